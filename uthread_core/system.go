package core

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

var (
	systemMu    sync.Mutex
	systemSched *Scheduler
)

// Init installs the process wide scheduler with a pool of maxKthreads
// kernel threads. It may be called only once.
func Init(maxKthreads int) {
	Setup(Config{MaxKthreads: maxKthreads})
}

// Setup is Init with a full configuration.
func Setup(cfg Config) {
	systemMu.Lock()
	defer systemMu.Unlock()
	if systemSched != nil {
		logger := cfg.Logger
		if logger == nil {
			logger = log.StandardLogger()
		}
		raise(logger.WithField("component", "uthread"), FaultUsage, "init", nil, "system already initialised")
	}
	systemSched = New(cfg)
}

// System returns the process wide scheduler.
func System() *Scheduler {
	systemMu.Lock()
	defer systemMu.Unlock()
	if systemSched == nil {
		raise(log.WithField("component", "uthread"), FaultUsage, "system", nil, "system not initialised")
	}
	return systemSched
}

// Create admits a uthread on the process wide scheduler.
func Create(fn func()) uint64 { return System().Create(fn) }

// Yield gives the caller's kthread away if a waiting uthread ran less.
func Yield() { System().Yield() }

// Exit terminates the calling uthread, or waits for the drain outside one.
func Exit() { System().Exit() }
