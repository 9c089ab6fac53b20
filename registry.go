package sigreceipts

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"syscall"

	"go.uber.org/zap"
)

// Slot binds one signal number to its counter and delegate. The signal and
// delegate never change after Build; only the counter is shared with the
// handler entry point.
type Slot struct {
	sig      syscall.Signal
	delegate Delegate
	count    atomic.Uint64

	// Guarded by Registry.txMu.
	installed bool
	prev      Disposition
	notify    chan os.Signal
	relayDone chan struct{}
}

func (s *Slot) Signal() syscall.Signal { return s.sig }

type binding struct {
	sig      syscall.Signal
	delegate Delegate
}

// Builder collects (signal, delegate) pairs and produces a fixed-shape
// Registry.
type Builder struct {
	opts     []Option
	bindings []binding
}

func NewBuilder(opts ...Option) *Builder {
	return &Builder{opts: opts}
}

// Handle binds d to sig. Slots are dispatched in the order they were added.
func (b *Builder) Handle(sig syscall.Signal, d Delegate) *Builder {
	b.bindings = append(b.bindings, binding{sig: sig, delegate: d})
	return b
}

// Build validates the bindings and returns the registry. Every problem found
// is reported, joined.
func (b *Builder) Build() (*Registry, error) {
	if len(b.bindings) == 0 {
		return nil, ErrNoSignals
	}

	o := defaultOptions()
	for _, opt := range b.opts {
		opt(&o)
	}

	r := &Registry{
		slots:    make([]Slot, len(b.bindings)),
		sem:      NewSemaphore(o.semLimit),
		source:   o.source,
		logger:   o.logger,
		debug:    o.debug,
		policy:   o.policy,
		observer: o.observer,
	}
	for i := range r.index {
		r.index[i] = -1
	}

	var errs []error
	for i, bd := range b.bindings {
		switch {
		case bd.sig <= 0 || int(bd.sig) > MaxSignal:
			errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidSignal, int(bd.sig)))
			continue
		case r.index[bd.sig] >= 0:
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateSignal, SignalName(bd.sig)))
			continue
		case bd.delegate == nil:
			errs = append(errs, fmt.Errorf("%w for %s", ErrNilDelegate, SignalName(bd.sig)))
			continue
		}
		r.index[bd.sig] = int16(i)
		r.slots[i].sig = bd.sig
		r.slots[i].delegate = bd.delegate
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	r.proceed.Store(true)
	if r.debug {
		r.logger.Debug("sigreceipts: registry built", zap.Strings("signals", r.signalNames()))
	}
	return r, nil
}

// Registry is the fixed table of slots plus the wake semaphore shared by the
// handler entry point and the consume loop.
type Registry struct {
	slots []Slot
	index [MaxSignal + 1]int16
	sem   *Semaphore

	proceed atomic.Bool
	running atomic.Bool

	txMu      sync.Mutex
	installed bool

	source   Source
	logger   *zap.Logger
	debug    bool
	policy   Policy
	observer Observer
}

// Signals returns the configured signals in dispatch order.
func (r *Registry) Signals() []syscall.Signal {
	out := make([]syscall.Signal, len(r.slots))
	for i := range r.slots {
		out[i] = r.slots[i].sig
	}
	return out
}

func (r *Registry) slot(sig syscall.Signal) *Slot {
	if sig <= 0 || int(sig) > MaxSignal {
		return nil
	}
	i := r.index[sig]
	if i < 0 {
		return nil
	}
	return &r.slots[i]
}

// Pending returns the unclaimed count for sig without resetting it.
func (r *Registry) Pending(sig syscall.Signal) uint64 {
	if s := r.slot(sig); s != nil {
		return s.count.Load()
	}
	return 0
}

// Reset zeroes every counter. Dispositions are left as they are.
func (r *Registry) Reset() {
	for i := range r.slots {
		r.slots[i].count.Store(0)
	}
}

// Previous reports the disposition sig had before it was installed. The
// second result is false when sig is not currently installed.
func (r *Registry) Previous(sig syscall.Signal) (Disposition, bool) {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	s := r.slot(sig)
	if s == nil || !s.installed {
		return DispositionDefault, false
	}
	return s.prev, true
}

func (r *Registry) Installed() bool {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	return r.installed
}

func (r *Registry) signalNames() []string {
	names := make([]string, len(r.slots))
	for i := range r.slots {
		names[i] = SignalName(r.slots[i].sig)
	}
	return names
}
