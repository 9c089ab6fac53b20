package channelnotify

import "syscall"

// Sender is the sending side of a caller-owned notification channel,
// installed with InstallSender. Send runs on the consumer thread and may
// block; while it does, deliveries are still counted and are dispatched once
// it returns.
//
// If a Sender also implements io.Closer, Close is called when the facility
// stops using it.
type Sender interface {
	Send(sig syscall.Signal) error
}

// ChanSender sends converted signals on a Go channel.
type ChanSender[T any] struct {
	C       chan<- T
	Convert Converter[T]
	// Block waits for room in C instead of returning ErrSendFull.
	Block bool
	// Done, when closed, disconnects the sender. It also releases a
	// blocked send.
	Done <-chan struct{}
}

func (s ChanSender[T]) Send(sig syscall.Signal) error {
	v, ok := s.Convert(sig)
	if !ok {
		return ErrSendIgnored
	}
	select {
	case <-s.Done:
		return ErrSendDisconnected
	default:
	}
	if !s.Block {
		select {
		case s.C <- v:
			return nil
		default:
			return ErrSendFull
		}
	}
	select {
	case s.C <- v:
		return nil
	case <-s.Done:
		return ErrSendDisconnected
	}
}
