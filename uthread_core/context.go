package core

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// Context is a suspended computation with its own stack and its own kernel
// thread. The goroutine behind it stays locked to that thread for its whole
// life, so terminating the goroutine also terminates the thread.
type Context struct {
	tid    int
	resume chan struct{}
}

// NewContext allocates a context that runs entry on its first Resume. It
// returns once the context's thread exists and is parked.
func NewContext(entry func(), cpus []int) (*Context, error) {
	c := &Context{resume: make(chan struct{}, 1)}
	ready := make(chan error, 1)
	go c.main(entry, cpus, ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Context) main(entry func(), cpus []int, ready chan<- error) {
	// Never unlocked: returning or Goexit destroys the thread with us.
	runtime.LockOSThread()
	c.tid = unix.Gettid()

	if len(cpus) > 0 {
		var set unix.CPUSet
		set.Zero()
		for _, cpu := range cpus {
			set.Set(cpu)
		}
		if err := unix.SchedSetaffinity(0, &set); err != nil {
			ready <- fmt.Errorf("sched_setaffinity %v: %w", cpus, err)
			return
		}
	}
	ready <- nil

	<-c.resume
	entry()
}

// Tid is the kernel thread id of the context's thread.
func (c *Context) Tid() int {
	return c.tid
}

// Resume makes c runnable. The caller keeps running; it must not touch c
// afterwards.
func (c *Context) Resume() {
	c.resume <- struct{}{}
}

// Swap resumes to and suspends the calling context until it is resumed in
// turn. It must be called from the goroutine that owns from.
func Swap(from, to *Context) {
	to.Resume()
	<-from.resume
}
