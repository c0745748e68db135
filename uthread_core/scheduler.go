package core

import (
	"runtime"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/Gthulhu/goland_uthread/util"
)

const (
	// MaxNumUthreads bounds both the kthread pool and the number of live
	// uthreads.
	MaxNumUthreads = 1000
)

// Config parameterises New and Setup.
type Config struct {
	// MaxKthreads is the pool size, 1 <= MaxKthreads <= MaxNumUthreads.
	MaxKthreads int
	// MaxUthreads caps live uthreads. Zero means MaxNumUthreads.
	MaxUthreads int
	// Sampler defaults to RusageSampler.
	Sampler Sampler
	// CPUs, when set, is the affinity of every uthread's kernel thread.
	CPUs []int
	// LockMemory calls mlockall so page faults do not show up as system
	// time.
	LockMemory bool
	Logger     *log.Logger
}

// Scheduler multiplexes uthreads over at most MaxKthreads kernel threads.
// The waiting uthread with the least running time runs next.
type Scheduler struct {
	mu       sync.Mutex
	kthreads []Kthread
	waiting  *util.Heap[*Uthread]
	nrActive int
	nrLive   int
	shutdown bool
	drained  chan struct{} // closed whenever nrActive is zero

	maxUthreads int
	cpus        []int
	sampler     Sampler
	log         *log.Entry

	nextID uint64
	stats  Stats
}

// New builds a scheduler. No kernel thread is started until the first
// Create.
func New(cfg Config) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	entry := logger.WithField("component", "uthread")

	if cfg.MaxKthreads < 1 || cfg.MaxKthreads > MaxNumUthreads {
		raise(entry, FaultUsage, "init", nil, "max kthreads %d out of range [1, %d]", cfg.MaxKthreads, MaxNumUthreads)
	}
	if cfg.MaxUthreads == 0 {
		cfg.MaxUthreads = MaxNumUthreads
	}
	if cfg.MaxUthreads < 0 || cfg.MaxUthreads > MaxNumUthreads {
		raise(entry, FaultUsage, "init", nil, "max uthreads %d out of range [1, %d]", cfg.MaxUthreads, MaxNumUthreads)
	}
	if cfg.Sampler == nil {
		cfg.Sampler = RusageSampler{}
	}
	if cfg.LockMemory {
		if err := unix.Mlockall(unix.MCL_CURRENT | unix.MCL_FUTURE); err != nil {
			entry.Warnf("mlockall failed: %v", err)
		}
	}

	s := &Scheduler{
		kthreads:    make([]Kthread, cfg.MaxKthreads),
		waiting:     util.NewHeap(uthreadPriority),
		drained:     make(chan struct{}),
		maxUthreads: cfg.MaxUthreads,
		cpus:        append([]int(nil), cfg.CPUs...),
		sampler:     cfg.Sampler,
		log:         entry,
	}
	for i := range s.kthreads {
		s.kthreads[i].idx = i
	}
	close(s.drained)
	entry.WithFields(log.Fields{
		"kthreads": cfg.MaxKthreads,
		"uthreads": cfg.MaxUthreads,
	}).Debug("scheduler initialised")
	return s
}

// Create admits a uthread running fn and returns its id. If the pool is
// not exhausted a kernel thread starts running it immediately, otherwise
// it waits and gets its thread when first bound. Returning from fn is
// equivalent to calling Exit.
func (s *Scheduler) Create(fn func()) uint64 {
	if fn == nil {
		raise(s.log, FaultUsage, "create", nil, "nil entry function")
	}

	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		raise(s.log, FaultUsage, "create", nil, "scheduler is shut down")
	}
	if s.nrLive >= s.maxUthreads {
		s.mu.Unlock()
		raise(s.log, FaultUsage, "create", nil, "too many uthreads (max %d)", s.maxUthreads)
	}

	s.nextID++
	u := &Uthread{id: s.nextID, entry: fn}
	cycleStart := s.nrActive == 0

	var spawned *Kthread
	if s.nrActive < len(s.kthreads) {
		if s.waiting.Len() != 0 {
			s.mu.Unlock()
			raise(s.log, FaultInvariant, "create", nil, "%d uthreads waiting with idle kthreads", s.waiting.Len())
		}
		k := s.findInactiveKthread()
		if k == nil {
			s.mu.Unlock()
			raise(s.log, FaultInvariant, "create", nil, "no inactive kthread with %d of %d active", s.nrActive, len(s.kthreads))
		}
		s.bindUthread("create", k, u)
		s.nrActive++
		s.stats.NrSpawned++
		spawned = k
	} else {
		u.state = stateWaiting
		s.waiting.Push(u)
		s.stats.NrEnqueued++
	}
	s.nrLive++
	s.stats.NrCreated++

	// First admission of a cycle: drain waiters block from now on.
	if cycleStart {
		s.drained = make(chan struct{})
	}

	logger := s.log.WithFields(log.Fields{
		"uthread": u.id,
		"waiting": s.waiting.Len(),
	})
	s.mu.Unlock()

	if spawned != nil {
		logger.WithFields(log.Fields{
			"kthread": spawned.idx,
			"tid":     u.ctx.Tid(),
		}).Debug("uthread bound to new kthread")
		u.ctx.Resume()
	} else {
		logger.Debug("uthread enqueued")
	}
	return u.id
}

// exitSignal unwinds a uthread that called Exit.
type exitSignal struct{}

// run is the body of every uthread context. The kthread is released only
// once fn, including its deferred calls, has fully unwound.
func (s *Scheduler) run(fn func()) {
	s.resumed("start")
	s.call(fn)
	s.exit()
}

func (s *Scheduler) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(exitSignal); !ok {
				panic(r)
			}
		}
	}()
	fn()
}

// resumed opens a new accounting window on the slot the caller was just
// bound to. CPU usage can only be sampled on the thread that spends it.
func (s *Scheduler) resumed(op string) {
	s.mu.Lock()
	k := s.kthreadSelf()
	if k == nil {
		s.mu.Unlock()
		raise(s.log, FaultInvariant, op, nil, "resumed tid %d is not bound to a kthread", unix.Gettid())
	}
	s.updateTimestamps(op, k)
	s.mu.Unlock()
}

// Yield charges the caller's CPU time and gives its kthread to the waiting
// uthread with the least running time, if that is strictly less than the
// caller's. It must be called by a uthread.
func (s *Scheduler) Yield() {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		raise(s.log, FaultUsage, "yield", nil, "scheduler is shut down")
	}
	k := s.kthreadSelf()
	if k == nil {
		s.mu.Unlock()
		raise(s.log, FaultUsage, "yield", nil, "caller tid %d is not a kthread", unix.Gettid())
	}

	cur := k.running
	s.transferElapsedTime("yield", k)
	s.stats.NrYields++

	if !s.waitingHasPriorityOver(cur) {
		s.mu.Unlock()
		return
	}

	next, _ := s.waiting.Pop()
	s.bindUthread("yield", k, next)
	cur.state = stateWaiting
	s.waiting.Push(cur)
	s.stats.NrPreemptions++

	logger := s.log.WithFields(log.Fields{
		"kthread":           k.idx,
		"prev":              cur.id,
		"next":              next.id,
		"prev_running_time": util.TimevalToDuration(cur.runningTime),
		"next_running_time": util.TimevalToDuration(next.runningTime),
	})
	s.mu.Unlock()

	logger.Debug("kthread handoff")
	Swap(cur.ctx, next.ctx)
	s.resumed("yield")
}

func (s *Scheduler) waitingHasPriorityOver(u *Uthread) bool {
	head, ok := s.waiting.Peek()
	return ok && uthreadPriority(head, u)
}

// Exit terminates the calling uthread. Its deferred calls run first, then
// its kthread moves on to the best waiting uthread, or terminates when
// none is waiting. Exit never returns to a uthread. A uthread that
// recovers the unwind simply exits when its entry function returns.
//
// Called from any other goroutine, Exit blocks until every kthread has
// terminated and returns immediately if none is active.
func (s *Scheduler) Exit() {
	s.mu.Lock()
	k := s.kthreadSelf()
	if k == nil {
		drained := s.drained
		s.mu.Unlock()
		<-drained
		return
	}
	s.mu.Unlock()
	panic(exitSignal{})
}

// exit retires the calling uthread once its entry function is done.
func (s *Scheduler) exit() {
	s.mu.Lock()
	k := s.kthreadSelf()
	if k == nil {
		s.mu.Unlock()
		raise(s.log, FaultInvariant, "exit", nil, "exiting tid %d is not bound to a kthread", unix.Gettid())
	}

	s.transferElapsedTime("exit", k)
	prev := k.unbind()
	prev.state = stateTerminated
	prev.ctx = nil
	s.nrLive--
	s.stats.NrExited++

	logger := s.log.WithFields(log.Fields{
		"kthread":      k.idx,
		"uthread":      prev.id,
		"running_time": util.TimevalToDuration(prev.runningTime),
	})

	if next, ok := s.waiting.Pop(); ok {
		s.bindUthread("exit", k, next)
		s.stats.NrReused++
		s.mu.Unlock()

		logger.WithField("next", next.id).Debug("uthread exited, kthread reused")
		next.ctx.Resume()
		runtime.Goexit()
	}

	s.nrActive--
	s.stats.NrRetired++
	if s.nrActive == 0 {
		close(s.drained)
	}
	active := s.nrActive
	s.mu.Unlock()

	logger.WithField("active", active).Debug("uthread exited, kthread retired")
	runtime.Goexit()

	raise(s.log, FaultInvariant, "exit", nil, "kthread %d survived termination", k.idx)
}

// Wait blocks until no kthread is active.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	drained := s.drained
	s.mu.Unlock()
	<-drained
}

// Shutdown waits for the drain and then refuses any further Create.
func (s *Scheduler) Shutdown() {
	for {
		s.Wait()
		s.mu.Lock()
		if s.nrActive == 0 {
			s.shutdown = true
			s.mu.Unlock()
			s.log.Debug("scheduler shut down")
			return
		}
		s.mu.Unlock()
	}
}

// Self reports the calling uthread and its running time, charged up to
// this call. ok is false outside of a uthread.
func (s *Scheduler) Self() (id uint64, runningTime time.Duration, ok bool) {
	s.mu.Lock()
	k := s.kthreadSelf()
	if k == nil {
		s.mu.Unlock()
		return 0, 0, false
	}
	s.transferElapsedTime("self", k)
	id, runningTime = k.running.id, util.TimevalToDuration(k.running.runningTime)
	s.mu.Unlock()
	return id, runningTime, true
}
