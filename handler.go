package sigreceipts

import (
	"math"
	"os"
	"syscall"
)

// relayBuffer is the capacity of each slot's os/signal channel. os/signal
// drops a delivery when the channel is full, so it must absorb bursts
// between relay iterations.
const relayBuffer = 64

// The functions in this file are the handler entry point. They run for every
// delivery and do only what a signal handler may do. The slot counter is
// bumped with an atomic CAS and the semaphore post never blocks. Nothing here
// may lock or allocate.

// deliver records one delivery of sig.
func (r *Registry) deliver(sig syscall.Signal) {
	if sig <= 0 || int(sig) > MaxSignal {
		return
	}
	i := r.index[sig]
	if i < 0 {
		return
	}
	r.slots[i].incr()
	// A full semaphore already guarantees a pending wake; the count is the
	// record, so a dropped post loses nothing.
	_ = r.sem.Post()
}

// incr saturates at the maximum instead of wrapping to zero.
func (s *Slot) incr() {
	for {
		cur := s.count.Load()
		if cur == math.MaxUint64 {
			return
		}
		if s.count.CompareAndSwap(cur, cur+1) {
			return
		}
	}
}

// relay forwards the deliveries os/signal queued on c until c is closed.
func (r *Registry) relay(c <-chan os.Signal, done chan<- struct{}) {
	defer close(done)
	for s := range c {
		if sig, ok := s.(syscall.Signal); ok {
			r.deliver(sig)
		}
	}
}
