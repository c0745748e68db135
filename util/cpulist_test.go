package util

import (
	"reflect"
	"testing"
)

func TestParseCPUList(t *testing.T) {
	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{"", nil, false},
		{"0", []int{0}, false},
		{"0-3", []int{0, 1, 2, 3}, false},
		{"6,0-2\n", []int{0, 1, 2, 6}, false},
		{"1-2,2-3", []int{1, 2, 3}, false},
		{"3-1", nil, true},
		{"a", nil, true},
		{"1-2-3", nil, true},
		{"1,,2", nil, true},
		{"-1", nil, true},
	}
	for _, tt := range tests {
		got, err := ParseCPUList(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCPUList(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseCPUList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSubsetOf(t *testing.T) {
	if _, ok := SubsetOf([]int{0, 2}, []int{0, 1, 2, 3}); !ok {
		t.Error("0,2 should be a subset of 0-3")
	}
	if cpu, ok := SubsetOf([]int{1, 7}, []int{0, 1}); ok || cpu != 7 {
		t.Errorf("SubsetOf = %d, %v; want 7, false", cpu, ok)
	}
}

func TestOnlineCPUs(t *testing.T) {
	cpus, err := OnlineCPUs()
	if err != nil {
		t.Skipf("cpu topology not readable: %v", err)
	}
	if len(cpus) == 0 {
		t.Fatal("no online cpus reported")
	}
}
