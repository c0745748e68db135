package util

import (
	"time"

	"golang.org/x/sys/unix"
)

// TimevalAdd returns fst + snd, normalised so that 0 <= Usec < 1e6.
func TimevalAdd(fst, snd unix.Timeval) unix.Timeval {
	return unix.NsecToTimeval(fst.Nano() + snd.Nano())
}

// TimevalSub returns snd - fst. The reading snd must not precede fst;
// ok is false when it does and the zero Timeval is returned.
func TimevalSub(fst, snd unix.Timeval) (diff unix.Timeval, ok bool) {
	if TimevalCmp(fst, snd) > 0 {
		return unix.Timeval{}, false
	}
	return unix.NsecToTimeval(snd.Nano() - fst.Nano()), true
}

// TimevalCmp returns -1, 0 or +1 as fst is before, equal to or after snd.
func TimevalCmp(fst, snd unix.Timeval) int {
	a, b := fst.Nano(), snd.Nano()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func TimevalToDuration(tv unix.Timeval) time.Duration {
	return time.Duration(tv.Nano())
}

func TimevalFromDuration(d time.Duration) unix.Timeval {
	return unix.NsecToTimeval(d.Nanoseconds())
}
