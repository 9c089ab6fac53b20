package sigreceipts

import (
	"os"

	"go.uber.org/zap"
)

// InstallAll registers the handler entry point for every slot, in order,
// recording each signal's previous disposition. Counters and the continue
// flag are reset first so a re-install starts fresh.
//
// If registering slot k fails, slots registered before it are restored
// before the error is returned. Installing an installed registry fails with
// ErrAlreadyInstalled so the saved dispositions are never overwritten.
func (r *Registry) InstallAll() error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	if r.installed {
		return &InstallError{Err: ErrAlreadyInstalled}
	}

	r.Reset()
	r.proceed.Store(true)

	for i := range r.slots {
		s := &r.slots[i]
		c := make(chan os.Signal, relayBuffer)
		prev, err := r.source.Install(s.sig, c)
		if err != nil {
			failed := r.rollback(i)
			if len(failed) > 0 {
				// Whatever could not be restored is still live; let
				// UninstallAll retry it.
				r.installed = true
			}
			r.logger.Warn("sigreceipts: install failed",
				zap.String("signal", SignalName(s.sig)),
				zap.Int("rolled_back", i-len(failed)),
				zap.Error(err))
			return &InstallError{Signal: s.sig, Err: err, Rollback: failed}
		}
		s.prev = prev
		s.notify = c
		s.relayDone = make(chan struct{})
		s.installed = true
		go r.relay(c, s.relayDone)

		if r.debug {
			r.logger.Debug("sigreceipts: installed",
				zap.String("signal", SignalName(s.sig)),
				zap.Stringer("previous", prev))
		}
	}

	r.installed = true
	return nil
}

// rollback restores slots [0, n) in reverse order and returns the ones that
// could not be restored.
func (r *Registry) rollback(n int) []SlotError {
	var failed []SlotError
	for i := n - 1; i >= 0; i-- {
		s := &r.slots[i]
		if !s.installed {
			continue
		}
		if err := r.release(s); err != nil {
			failed = append(failed, SlotError{Signal: s.sig, Err: err})
		}
	}
	return failed
}

// UninstallAll restores every installed slot to the disposition captured at
// install time. A failed restore does not stop the others; the error lists
// every failure and those slots stay installed.
//
// Deliveries that arrived before a slot was restored are already counted
// when this returns; a running consume loop still dispatches them.
func (r *Registry) UninstallAll() error {
	r.txMu.Lock()
	defer r.txMu.Unlock()

	if !r.installed {
		return &UninstallError{Err: ErrNotInstalled}
	}

	var failed []SlotError
	for i := range r.slots {
		s := &r.slots[i]
		if !s.installed {
			continue
		}
		if err := r.release(s); err != nil {
			r.logger.Warn("sigreceipts: restore failed",
				zap.String("signal", SignalName(s.sig)),
				zap.Error(err))
			failed = append(failed, SlotError{Signal: s.sig, Err: err})
			continue
		}
		if r.debug {
			r.logger.Debug("sigreceipts: restored",
				zap.String("signal", SignalName(s.sig)),
				zap.Stringer("disposition", s.prev))
		}
	}
	if len(failed) > 0 {
		return &UninstallError{Failed: failed}
	}

	r.installed = false
	return nil
}

// release restores s and waits for its relay to drain.
func (r *Registry) release(s *Slot) error {
	if err := r.source.Restore(s.sig, s.notify, s.prev); err != nil {
		return err
	}
	// Restore guarantees nothing more is sent on notify.
	close(s.notify)
	<-s.relayDone
	s.notify = nil
	s.relayDone = nil
	s.installed = false
	return nil
}
