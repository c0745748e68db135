package core

import "golang.org/x/sys/unix"

// Kthread is one slot of the kernel thread pool. A slot is active iff
// running is set; tid and lastSample are only meaningful while active.
type Kthread struct {
	idx        int
	tid        int
	lastSample CPUTime
	running    *Uthread
}

func (k *Kthread) active() bool {
	return k.running != nil
}

// bind makes u the uthread executing on k. The slot's identity follows the
// thread of the bound context, so u.ctx must be prepared.
func (k *Kthread) bind(u *Uthread) {
	k.running = u
	k.tid = u.ctx.Tid()
	u.state = stateBound
}

func (k *Kthread) unbind() *Uthread {
	u := k.running
	k.running = nil
	k.tid = 0
	k.lastSample = CPUTime{}
	return u
}

// kthreadSelf returns the active slot executing the caller, or nil if the
// caller is not a thread handed out by this scheduler. Callers hold s.mu.
func (s *Scheduler) kthreadSelf() *Kthread {
	tid := unix.Gettid()
	for i := range s.kthreads {
		k := &s.kthreads[i]
		if k.active() && k.tid == tid {
			return k
		}
	}
	return nil
}

// bindUthread prepares u's context if it never ran and binds it to k.
// Callers hold s.mu.
func (s *Scheduler) bindUthread(op string, k *Kthread, u *Uthread) {
	if u.ctx == nil {
		ctx, err := NewContext(func() { s.run(u.entry) }, s.cpus)
		if err != nil {
			s.mu.Unlock()
			raise(s.log, FaultResource, op, err, "cannot allocate context for uthread %d", u.id)
		}
		u.ctx = ctx
		u.entry = nil
	}
	k.bind(u)
}

func (s *Scheduler) findInactiveKthread() *Kthread {
	for i := range s.kthreads {
		if !s.kthreads[i].active() {
			return &s.kthreads[i]
		}
	}
	return nil
}

func (s *Scheduler) sample(op string, k *Kthread) CPUTime {
	cur, err := s.sampler.Sample(k.tid)
	if err != nil {
		s.mu.Unlock()
		raise(s.log, FaultPlatform, op, err, "cannot sample cpu usage of kthread %d (tid %d)", k.idx, k.tid)
	}
	return cur
}

// updateTimestamps restarts the accounting window of k. It runs on the
// thread bound to k.
func (s *Scheduler) updateTimestamps(op string, k *Kthread) {
	k.lastSample = s.sample(op, k)
}

// transferElapsedTime charges the time since the last checkpoint of k to
// its bound uthread and starts a new window.
func (s *Scheduler) transferElapsedTime(op string, k *Kthread) {
	cur := s.sample(op, k)
	if !k.running.charge(k.lastSample, cur) {
		s.mu.Unlock()
		raise(s.log, FaultInvariant, op, nil, "cpu usage of tid %d went backwards", k.tid)
	}
	k.lastSample = cur
}
