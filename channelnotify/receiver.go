package channelnotify

import (
	"iter"
	"syscall"
)

// Capacity selects the notification channel installed by Install.
type Capacity struct {
	bounded bool
	n       int
}

// Unbounded never blocks the consumer thread.
func Unbounded() Capacity { return Capacity{} }

// Bounded holds at most n notifications; the consumer thread blocks while it
// is full. Bounded(0) is a rendezvous: each send waits for a receive.
// Negative n is treated as 0.
func Bounded(n int) Capacity {
	return Capacity{bounded: true, n: max(n, 0)}
}

// FromConfig maps an optional capacity, as found in configuration files,
// where nil means unbounded.
func FromConfig(n *int) Capacity {
	if n == nil {
		return Unbounded()
	}
	return Bounded(*n)
}

func (c Capacity) pipeBound() int {
	if !c.bounded {
		return -1
	}
	return c.n
}

func (c Capacity) String() string {
	if !c.bounded {
		return "unbounded"
	}
	if c.n == 0 {
		return "rendezvous"
	}
	return "bounded"
}

// Converter maps a signal number to the channel's element type. Returning
// false drops the notification silently.
type Converter[T any] func(sig syscall.Signal) (T, bool)

// Identity passes signal numbers through unchanged.
func Identity(sig syscall.Signal) (syscall.Signal, bool) { return sig, true }

// Receiver is the receiving end of a channel created by Install.
type Receiver[T any] struct {
	owner *Facility
	gen   uint64
	p     *pipe[T]
}

// Recv blocks until a notification arrives. It returns false once the
// facility tore down the sending end and everything queued was received, or
// once the receiver was closed.
func (r *Receiver[T]) Recv() (T, bool) {
	v, st := r.p.recv(true)
	return v, st == recvOK
}

// TryRecv returns a queued notification without blocking.
func (r *Receiver[T]) TryRecv() (T, bool) {
	v, st := r.p.recv(false)
	return v, st == recvOK
}

// All yields notifications until Recv would return false.
func (r *Receiver[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, ok := r.Recv()
			if !ok || !yield(v) {
				return
			}
		}
	}
}

// Len is the number of queued notifications.
func (r *Receiver[T]) Len() int { return r.p.len() }

// Close drops the receiving end. Queued notifications are discarded and the
// consumer thread goes dormant at its next send.
func (r *Receiver[T]) Close() { r.p.closeRecv() }

// pipeSender feeds a Receiver from the consumer thread.
type pipeSender[T any] struct {
	p       *pipe[T]
	convert Converter[T]
}

func (s *pipeSender[T]) Send(sig syscall.Signal) error {
	v, ok := s.convert(sig)
	if !ok {
		return ErrSendIgnored
	}
	return s.p.send(v)
}

func (s *pipeSender[T]) Close() error {
	s.p.closeSend()
	return nil
}
