package core

import "fmt"

type Stats struct {
	NrKthreads    uint64 // pool capacity
	NrActive      uint64 // active kthreads
	NrWaiting     uint64 // uthreads in the waiting queue
	NrLive        uint64 // created and not yet terminated
	NrCreated     uint64
	NrEnqueued    uint64 // admissions that went to the waiting queue
	NrSpawned     uint64 // admissions that started a kthread
	NrYields      uint64
	NrPreemptions uint64 // yields that switched uthreads
	NrReused      uint64 // exits that handed their kthread to a waiter
	NrRetired     uint64 // exits that terminated their kthread
	NrExited      uint64
}

func (data Stats) String() string {
	return fmt.Sprintf("Nr_kthreads: %v, Nr_active: %v ", data.NrKthreads, data.NrActive) +
		fmt.Sprintf("Nr_waiting: %v, Nr_live: %v ", data.NrWaiting, data.NrLive) +
		fmt.Sprintf("Nr_created: %v, Nr_enqueued: %v, Nr_spawned: %v ", data.NrCreated, data.NrEnqueued, data.NrSpawned) +
		fmt.Sprintf("Nr_yields: %v, Nr_preemptions: %v ", data.NrYields, data.NrPreemptions) +
		fmt.Sprintf("Nr_reused: %v, Nr_retired: %v, Nr_exited: %v", data.NrReused, data.NrRetired, data.NrExited)
}

// Stats returns a consistent snapshot of the scheduler counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stats
	st.NrKthreads = uint64(len(s.kthreads))
	st.NrActive = uint64(s.nrActive)
	st.NrWaiting = uint64(s.waiting.Len())
	st.NrLive = uint64(s.nrLive)
	return st
}
