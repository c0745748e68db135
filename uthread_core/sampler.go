package core

import (
	"fmt"
	"os"
	"time"

	"github.com/c9s/goprocinfo/linux"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/tklauser/go-sysconf"
	"golang.org/x/sys/unix"

	"github.com/Gthulhu/goland_uthread/util"
)

// CPUTime is a per thread CPU usage reading.
type CPUTime struct {
	User   unix.Timeval
	System unix.Timeval
}

// Total is user plus system time.
func (t CPUTime) Total() unix.Timeval {
	return util.TimevalAdd(t.User, t.System)
}

// Sampler reads the CPU usage of a kernel thread. It is always invoked on
// the thread identified by tid.
type Sampler interface {
	Sample(tid int) (CPUTime, error)
}

// NewSampler returns the sampler registered under name: "rusage",
// "procstat" or "gopsutil".
func NewSampler(name string) (Sampler, error) {
	switch name {
	case "", "rusage":
		return RusageSampler{}, nil
	case "procstat":
		return NewProcStatSampler()
	case "gopsutil":
		return NewThreadTimesSampler()
	}
	return nil, fmt.Errorf("unknown sampler %q", name)
}

// RusageSampler uses getrusage(RUSAGE_THREAD), which only reports the
// calling thread.
type RusageSampler struct{}

func (RusageSampler) Sample(int) (CPUTime, error) {
	var ru unix.Rusage
	if err := unix.Getrusage(unix.RUSAGE_THREAD, &ru); err != nil {
		return CPUTime{}, fmt.Errorf("getrusage: %w", err)
	}
	return CPUTime{User: ru.Utime, System: ru.Stime}, nil
}

// ProcStatSampler reads utime and stime from /proc/self/task/<tid>/stat.
// Resolution is one clock tick.
type ProcStatSampler struct {
	tick time.Duration
}

func NewProcStatSampler() (*ProcStatSampler, error) {
	hz, err := sysconf.Sysconf(sysconf.SC_CLK_TCK)
	if err != nil {
		return nil, fmt.Errorf("sysconf(SC_CLK_TCK): %w", err)
	}
	if hz <= 0 {
		return nil, fmt.Errorf("sysconf(SC_CLK_TCK) returned %d", hz)
	}
	return &ProcStatSampler{tick: time.Second / time.Duration(hz)}, nil
}

func (s *ProcStatSampler) Sample(tid int) (CPUTime, error) {
	stat, err := linux.ReadProcessStat(fmt.Sprintf("/proc/self/task/%d/stat", tid))
	if err != nil {
		return CPUTime{}, fmt.Errorf("read stat of tid %d: %w", tid, err)
	}
	return CPUTime{
		User:   util.TimevalFromDuration(time.Duration(stat.Utime) * s.tick),
		System: util.TimevalFromDuration(time.Duration(stat.Stime) * s.tick),
	}, nil
}

// ThreadTimesSampler asks gopsutil for the per thread times of this
// process.
type ThreadTimesSampler struct {
	proc *process.Process
}

func NewThreadTimesSampler() (*ThreadTimesSampler, error) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("open self process: %w", err)
	}
	return &ThreadTimesSampler{proc: p}, nil
}

func (s *ThreadTimesSampler) Sample(tid int) (CPUTime, error) {
	threads, err := s.proc.Threads()
	if err != nil {
		return CPUTime{}, fmt.Errorf("list threads: %w", err)
	}
	times, ok := threads[int32(tid)]
	if !ok || times == nil {
		return CPUTime{}, fmt.Errorf("tid %d not found", tid)
	}
	return CPUTime{
		User:   util.TimevalFromDuration(secondsToDuration(times.User)),
		System: util.TimevalFromDuration(secondsToDuration(times.System)),
	}, nil
}

func secondsToDuration(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}
