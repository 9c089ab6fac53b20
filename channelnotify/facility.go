// Package channelnotify delivers signal notifications on a channel.
//
// A Facility owns a sigreceipts.Registry and a dedicated consumer thread: a
// goroutine locked to its OS thread that runs the registry's consume loop
// and, for every receipt, sends one notification. Several deliveries of the
// same signal within one round produce a single notification.
//
// Lifecycle:
//
//	Uninstalled --Install--> Installed --Uninstall--> Dormant --Install--> Installed
//	                                                  Dormant --Finish---> Finished
//
// The consumer thread is spawned on the first install and kept, idle, while
// dormant so a later install reuses it. Finish terminates it; a finished
// facility cannot be installed again.
package channelnotify

import (
	"fmt"
	"sync"
	"syscall"

	"go.uber.org/zap"

	sigreceipts "github.com/srozzo/go-signal-receipts"
)

type State int

const (
	StateUninstalled State = iota
	StateInstalled
	StateDormant
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateUninstalled:
		return "uninstalled"
	case StateInstalled:
		return "installed"
	case StateDormant:
		return "dormant"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Handle identifies the receiving end of one install. *Receiver[T]
// implements it.
type Handle interface {
	Close()
	installOf() (*Facility, uint64)
}

func (r *Receiver[T]) installOf() (*Facility, uint64) {
	if r == nil {
		return nil, 0
	}
	return r.owner, r.gen
}

// Facility is safe for concurrent use.
type Facility struct {
	reg    *sigreceipts.Registry
	logger *zap.Logger
	debug  bool

	mu           sync.Mutex
	state        State
	encapsulated bool
	gen          uint64
	th           *thread
	spawns       int

	// active is owned by the consumer thread.
	active Sender
}

// New builds a facility for sigs. Nothing is installed yet.
func New(sigs []syscall.Signal, opts ...Option) (*Facility, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	f := &Facility{logger: o.logger, debug: o.debug}
	b := sigreceipts.NewBuilder(o.core...)
	for _, sig := range sigs {
		b.Handle(sig, f.notify)
	}
	reg, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("channelnotify: %w", err)
	}
	f.reg = reg
	return f, nil
}

// Install installs the handlers and returns the receiving end of a new
// channel of the given capacity. Signals convert rejects never appear on it.
func Install[T any](f *Facility, capacity Capacity, convert Converter[T]) (*Receiver[T], error) {
	if convert == nil {
		return nil, ErrNilConverter
	}
	p := newPipe[T](capacity.pipeBound())

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.install(&pipeSender[T]{p: p, convert: convert}, true); err != nil {
		return nil, err
	}
	if f.debug {
		f.logger.Debug("channelnotify: channel created", zap.Stringer("capacity", capacity))
	}
	return &Receiver[T]{owner: f, gen: f.gen, p: p}, nil
}

// InstallSender installs the handlers with a caller-owned channel. Undo it
// with UninstallSender or FinishSender.
func (f *Facility) InstallSender(s Sender) error {
	if s == nil {
		return ErrNilSender
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.install(s, false)
}

func (f *Facility) install(s Sender, encapsulated bool) error {
	switch f.state {
	case StateFinished:
		return ErrFinished
	case StateInstalled:
		return ErrAlreadyInstalled
	}

	// Counters restart from zero. Deliveries that land before the thread
	// picks up s are counted and dispatched to it.
	if err := f.reg.InstallAll(); err != nil {
		return fmt.Errorf("channelnotify: %w", err)
	}
	if f.th == nil || !f.th.alive() {
		f.spawn()
	}

	f.gen++
	f.encapsulated = encapsulated
	f.state = StateInstalled
	f.th.control.send(s)

	if f.debug {
		f.logger.Debug("channelnotify: installed",
			zap.Int("thread_id", f.th.tid),
			zap.Bool("encapsulated", encapsulated))
	}
	return nil
}

// Uninstall closes rx, restores the signals' previous dispositions and
// leaves the consumer thread dormant.
func (f *Facility) Uninstall(rx Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uninstall(rx, true)
}

// UninstallSender is Uninstall for InstallSender. The Sender is not used
// again.
func (f *Facility) UninstallSender() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uninstall(nil, false)
}

func (f *Facility) uninstall(rx Handle, encapsulated bool) error {
	switch f.state {
	case StateFinished:
		return ErrFinished
	case StateUninstalled, StateDormant:
		return ErrNotInstalled
	}
	if f.encapsulated != encapsulated {
		return ErrWrongMethod
	}
	if encapsulated {
		if rx == nil {
			return ErrWrongReceiver
		}
		if owner, gen := rx.installOf(); owner != f || gen != f.gen {
			return ErrWrongReceiver
		}
		// Closing first releases a thread blocked on a full channel.
		rx.Close()
	}

	if err := f.reg.UninstallAll(); err != nil {
		return fmt.Errorf("channelnotify: %w", err)
	}

	// Not joined: the thread may still be finishing a send.
	f.th.control.send(nil)
	f.reg.Wake()
	f.state = StateDormant

	if f.debug {
		f.logger.Debug("channelnotify: uninstalled", zap.Int("thread_id", f.th.tid))
	}
	return nil
}

// Finish uninstalls if needed, then terminates the consumer thread and
// waits for it. Finishing a facility that was never installed only marks it
// finished.
func (f *Facility) Finish(rx Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateInstalled {
		if err := f.uninstall(rx, true); err != nil {
			return err
		}
	}
	return f.finish()
}

// FinishSender is Finish for InstallSender. If the Sender is blocked in
// Send, it waits for Send to return.
func (f *Facility) FinishSender() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateInstalled {
		if err := f.uninstall(nil, false); err != nil {
			return err
		}
	}
	return f.finish()
}

func (f *Facility) finish() error {
	switch f.state {
	case StateFinished:
		return ErrFinished
	case StateDormant:
		f.reg.Stop()
		f.th.control.closeSend()
		<-f.th.done
		if f.debug {
			f.logger.Debug("channelnotify: consumer thread finished", zap.Int("thread_id", f.th.tid))
		}
	}
	f.state = StateFinished
	return nil
}

func (f *Facility) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Signals returns the signals the facility handles.
func (f *Facility) Signals() []syscall.Signal { return f.reg.Signals() }

// ThreadSpawns counts consumer threads started over the facility's life.
func (f *Facility) ThreadSpawns() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.spawns
}

// ThreadID is the OS thread id of the consumer thread, or 0 if none was
// spawned or the platform does not expose one.
func (f *Facility) ThreadID() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.th == nil {
		return 0
	}
	return f.th.tid
}
