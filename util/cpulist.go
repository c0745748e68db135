package util

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

const onlineCPUsPath = "/sys/devices/system/cpu/online"

// ParseCPUList parses a kernel style CPU list such as "0-3,6,8-9". The
// result is sorted and free of duplicates.
func ParseCPUList(cpuList string) ([]int, error) {
	cpuList = strings.TrimSpace(cpuList)
	if cpuList == "" {
		return nil, nil
	}

	seen := map[int]bool{}
	var result []int
	add := func(cpu int) {
		if !seen[cpu] {
			seen[cpu] = true
			result = append(result, cpu)
		}
	}

	for _, segment := range strings.Split(cpuList, ",") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			return nil, fmt.Errorf("empty segment in cpu list: %q", cpuList)
		}
		if strings.Contains(segment, "-") {
			bounds := strings.Split(segment, "-")
			if len(bounds) != 2 {
				return nil, fmt.Errorf("invalid range: %s", segment)
			}

			start, err := strconv.Atoi(bounds[0])
			if err != nil || start < 0 {
				return nil, fmt.Errorf("invalid start of range: %s", bounds[0])
			}

			end, err := strconv.Atoi(bounds[1])
			if err != nil {
				return nil, fmt.Errorf("invalid end of range: %s", bounds[1])
			}

			if start > end {
				return nil, fmt.Errorf("start greater than end in range: %s", segment)
			}
			for i := start; i <= end; i++ {
				add(i)
			}
		} else {
			num, err := strconv.Atoi(segment)
			if err != nil || num < 0 {
				return nil, fmt.Errorf("invalid number: %s", segment)
			}
			add(num)
		}
	}

	sort.Ints(result)
	return result, nil
}

// OnlineCPUs returns the CPUs the kernel currently reports as online.
func OnlineCPUs() ([]int, error) {
	content, err := os.ReadFile(onlineCPUsPath)
	if err != nil {
		return nil, err
	}
	return ParseCPUList(string(content))
}

// SubsetOf reports the first cpu of cpus that is missing from online.
func SubsetOf(cpus, online []int) (missing int, ok bool) {
	set := make(map[int]bool, len(online))
	for _, cpu := range online {
		set[cpu] = true
	}
	for _, cpu := range cpus {
		if !set[cpu] {
			return cpu, false
		}
	}
	return 0, true
}
