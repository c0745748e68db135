package core

import (
	"golang.org/x/sys/unix"

	"github.com/Gthulhu/goland_uthread/util"
)

type uthreadState int

const (
	stateWaiting uthreadState = iota + 1
	stateBound
	stateTerminated
)

func (s uthreadState) String() string {
	switch s {
	case stateWaiting:
		return "waiting"
	case stateBound:
		return "bound"
	case stateTerminated:
		return "terminated"
	}
	return "unknown"
}

// Uthread is a user level thread known to the scheduler.
type Uthread struct {
	id          uint64       // unique, assigned at creation
	entry       func()       // dropped once ctx is prepared
	ctx         *Context     // owned; prepared on first bind, released on exit
	runningTime unix.Timeval // user+system time accumulated while bound
	state       uthreadState
}

// uthreadPriority reports whether a must run before b: the uthread with
// less accumulated running time wins.
func uthreadPriority(a, b *Uthread) bool {
	return util.TimevalCmp(a.runningTime, b.runningTime) < 0
}

// charge adds the elapsed time between two samples of the uthread's thread
// to its running time. ok is false if the samples went backwards.
func (u *Uthread) charge(prev, cur CPUTime) bool {
	du, ok := util.TimevalSub(prev.User, cur.User)
	if !ok {
		return false
	}
	ds, ok := util.TimevalSub(prev.System, cur.System)
	if !ok {
		return false
	}
	u.runningTime = util.TimevalAdd(u.runningTime, du)
	u.runningTime = util.TimevalAdd(u.runningTime, ds)
	return true
}
