package core

import (
	"errors"
	"strings"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// The process wide scheduler can only be installed once per binary, so
// every step of its lifecycle lives in this test.
func TestSystemLifecycle(t *testing.T) {
	logger, _ := test.NewNullLogger()
	log.SetOutput(logger.Out)

	expectFault(t, FaultUsage, func() { System() })
	expectFault(t, FaultUsage, func() { Init(0) })

	Setup(Config{MaxKthreads: 1, Sampler: &manualClock{}, Logger: logger})
	expectFault(t, FaultUsage, func() { Init(1) })

	tr := &trace{}
	Create(func() {
		tr.add("a")
		Yield()
		Exit()
	})
	Exit()
	expectEvents(t, tr, "a")
}

func TestFaultError(t *testing.T) {
	inner := errors.New("boom")
	f := &Fault{Kind: FaultPlatform, Op: "yield", Reason: "sample failed", Err: inner}
	if !errors.Is(f, inner) {
		t.Fatal("Fault does not unwrap to its cause")
	}
	msg := f.Error()
	for _, part := range []string{"platform", "yield", "sample failed", "boom"} {
		if !strings.Contains(msg, part) {
			t.Errorf("Fault message %q lacks %q", msg, part)
		}
	}
	if FaultKind(42).String() != "FaultKind(42)" {
		t.Errorf("unexpected name for unknown kind: %v", FaultKind(42))
	}
}
