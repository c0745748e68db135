package core

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

type FaultKind int32

const (
	// FaultUsage is a programmer error: yield from a foreign thread,
	// reinitialisation, an out of range bound.
	FaultUsage FaultKind = iota + 1
	// FaultResource is an allocation failure for a record or context.
	FaultResource
	// FaultPlatform is a failing thread or CPU accounting primitive.
	FaultPlatform
	// FaultInvariant means the scheduler's own bookkeeping is inconsistent.
	FaultInvariant
)

func (k FaultKind) String() string {
	switch k {
	case FaultUsage:
		return "usage"
	case FaultResource:
		return "resource"
	case FaultPlatform:
		return "platform"
	case FaultInvariant:
		return "invariant"
	}
	return fmt.Sprintf("FaultKind(%d)", int32(k))
}

// Fault is the panic value of every unrecoverable scheduler error. There
// is no recoverable error path: a Fault means the process must stop.
type Fault struct {
	Kind   FaultKind
	Op     string
	Reason string
	Err    error
}

func (f *Fault) Error() string {
	msg := fmt.Sprintf("uthread: %s fault in %s: %s", f.Kind, f.Op, f.Reason)
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Fault) Unwrap() error {
	return f.Err
}

func raise(logger *log.Entry, kind FaultKind, op string, err error, format string, args ...any) {
	f := &Fault{
		Kind:   kind,
		Op:     op,
		Reason: fmt.Sprintf(format, args...),
		Err:    err,
	}
	logger.WithFields(log.Fields{
		"kind": kind.String(),
		"op":   op,
	}).Error(f.Error())
	panic(f)
}
