package channelnotify

import "sync"

type recvStatus int

const (
	recvOK recvStatus = iota
	recvEmpty
	recvClosed
)

// pipe is a FIFO whose ends can each be closed. A negative bound means
// unbounded. With bound 0, send returns only once its item was taken.
type pipe[T any] struct {
	mu    sync.Mutex
	cond  *sync.Cond
	items []T
	bound int

	sent     uint64
	received uint64

	sendClosed bool
	recvClosed bool
}

func newPipe[T any](bound int) *pipe[T] {
	p := &pipe[T]{bound: bound}
	p.cond = sync.NewCond(&p.mu)
	return p
}

func (p *pipe[T]) full() bool {
	switch {
	case p.bound < 0:
		return false
	case p.bound == 0:
		return len(p.items) > 0
	default:
		return len(p.items) >= p.bound
	}
}

// send blocks while the pipe is full. It fails with ErrSendDisconnected once
// the receiving end is closed, including while blocked.
func (p *pipe[T]) send(v T) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for p.full() && !p.recvClosed {
		p.cond.Wait()
	}
	if p.recvClosed {
		return ErrSendDisconnected
	}
	p.items = append(p.items, v)
	p.sent++
	seq := p.sent
	p.cond.Broadcast()

	if p.bound == 0 {
		for p.received < seq && !p.recvClosed {
			p.cond.Wait()
		}
		if p.received < seq {
			return ErrSendDisconnected
		}
	}
	return nil
}

// recv takes the oldest item. Queued items are still delivered after the
// sending end closes; nothing is delivered after the receiving end closes.
func (p *pipe[T]) recv(block bool) (T, recvStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for block && len(p.items) == 0 && !p.sendClosed && !p.recvClosed {
		p.cond.Wait()
	}

	var zero T
	switch {
	case p.recvClosed:
		return zero, recvClosed
	case len(p.items) > 0:
		v := p.items[0]
		p.items[0] = zero
		p.items = p.items[1:]
		p.received++
		p.cond.Broadcast()
		return v, recvOK
	case p.sendClosed:
		return zero, recvClosed
	default:
		return zero, recvEmpty
	}
}

func (p *pipe[T]) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}

func (p *pipe[T]) closeSend() {
	p.mu.Lock()
	p.sendClosed = true
	p.mu.Unlock()
	p.cond.Broadcast()
}

// closeRecv drops whatever is queued and wakes a blocked sender.
func (p *pipe[T]) closeRecv() {
	p.mu.Lock()
	p.recvClosed = true
	p.items = nil
	p.mu.Unlock()
	p.cond.Broadcast()
}
