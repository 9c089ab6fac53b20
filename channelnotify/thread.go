package channelnotify

import (
	"context"
	"errors"
	"io"
	"runtime"

	"go.uber.org/zap"

	sigreceipts "github.com/srozzo/go-signal-receipts"
)

// thread is the dedicated consumer. control carries the Sender of each
// install and nil for each uninstall; closing it tells the thread to exit.
type thread struct {
	control *pipe[Sender]
	tid     int
	ready   chan struct{}
	done    chan struct{}
}

func (t *thread) alive() bool {
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

// spawn starts the consumer thread and waits until it is running.
func (f *Facility) spawn() {
	th := &thread{
		control: newPipe[Sender](-1),
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}
	go f.run(th)
	<-th.ready

	f.th = th
	f.spawns++
	if f.debug {
		f.logger.Debug("channelnotify: consumer thread started", zap.Int("thread_id", th.tid))
	}
}

func (f *Facility) run(th *thread) {
	defer close(th.done)
	// Never unlocked: the OS thread exits with the goroutine.
	runtime.LockOSThread()
	th.tid = sigreceipts.ThreadID()
	close(th.ready)

	err := f.reg.Consume(context.Background(), func(c *sigreceipts.Control) {
		f.control(th, c)
	})
	f.setActive(nil)
	if err != nil {
		f.logger.Error("channelnotify: consume loop failed", zap.Error(err))
	}
}

// control runs before every round. While there is no Sender the thread is
// dormant and blocks here until the next install or until it is told to
// exit.
func (f *Facility) control(th *thread, c *sigreceipts.Control) {
	for {
		s, st := th.control.recv(f.active == nil)
		switch st {
		case recvEmpty:
			return
		case recvClosed:
			c.Stop()
			return
		}
		f.setActive(s)
	}
}

func (f *Facility) setActive(s Sender) {
	if cl, ok := f.active.(io.Closer); ok {
		if err := cl.Close(); err != nil {
			f.logger.Warn("channelnotify: closing sender", zap.Error(err))
		}
	}
	f.active = s
}

// notify is the delegate of every slot: one send per receipt.
func (f *Facility) notify(r sigreceipts.Receipt, _ *sigreceipts.Control) {
	if f.active == nil {
		return
	}
	err := f.active.Send(r.Signal)
	switch {
	case err == nil:
	case errors.Is(err, ErrSendDisconnected):
		f.setActive(nil)
		if f.debug {
			f.logger.Debug("channelnotify: receiver gone, going dormant",
				zap.String("signal", sigreceipts.SignalName(r.Signal)))
		}
	default:
		if f.debug {
			f.logger.Debug("channelnotify: notification not sent",
				zap.String("signal", sigreceipts.SignalName(r.Signal)),
				zap.Uint64("count", r.Count),
				zap.Error(err))
		}
	}
}
