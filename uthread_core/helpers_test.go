package core

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"golang.org/x/sys/unix"
)

// manualClock is a Sampler whose readings only move when the test says so.
type manualClock struct {
	ns atomic.Int64
}

func (c *manualClock) Sample(int) (CPUTime, error) {
	return CPUTime{User: unix.NsecToTimeval(c.ns.Load())}, nil
}

func (c *manualClock) advance(d time.Duration) {
	c.ns.Add(int64(d))
}

func newTestScheduler(t *testing.T, cfg Config) (*Scheduler, *test.Hook, *manualClock) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(log.DebugLevel)
	clock := &manualClock{}
	cfg.Logger = logger
	if cfg.Sampler == nil {
		cfg.Sampler = clock
	}
	return New(cfg), hook, clock
}

type trace struct {
	mu     sync.Mutex
	events []string
}

func (tr *trace) add(ev string) {
	tr.mu.Lock()
	tr.events = append(tr.events, ev)
	tr.mu.Unlock()
}

func (tr *trace) get() []string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return append([]string(nil), tr.events...)
}

func expectEvents(t *testing.T, tr *trace, want ...string) {
	t.Helper()
	got := tr.get()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
}

func expectFault(t *testing.T, kind FaultKind, fn func()) *Fault {
	t.Helper()
	var got *Fault
	func() {
		defer func() {
			r := recover()
			f, ok := r.(*Fault)
			if !ok {
				t.Fatalf("expected a *Fault panic, got %v", r)
			}
			got = f
		}()
		fn()
	}()
	if got.Kind != kind {
		t.Fatalf("fault kind = %v, want %v (%v)", got.Kind, kind, got)
	}
	return got
}

func entriesWithMessage(hook *test.Hook, msg string) []*log.Entry {
	var out []*log.Entry
	for _, e := range hook.AllEntries() {
		if e.Message == msg {
			out = append(out, e)
		}
	}
	return out
}
