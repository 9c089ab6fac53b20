package sigreceipts

import (
	"context"
	"runtime/debug"
	"sync/atomic"

	"go.uber.org/zap"
)

// ConsumeLoop dispatches receipts until it is stopped through Control.Stop
// or Registry.Stop, returning nil, or until ctx is done, returning ctx.Err().
func (r *Registry) ConsumeLoop(ctx context.Context) error {
	return r.Consume(ctx, nil)
}

// Consume is ConsumeLoop with a callback run before every round. The
// callback may block, and may end the loop through its Control.
//
// A round claims every non-zero counter in slot order and calls its
// delegate. The loop waits on the semaphore between rounds. The first round
// runs before the first wait, so deliveries counted before the loop started
// are not left waiting.
func (r *Registry) Consume(ctx context.Context, beforeRound func(*Control)) error {
	if !r.running.CompareAndSwap(false, true) {
		return ErrConsumerRunning
	}
	defer r.running.Store(false)

	var cancelled atomic.Bool
	stop := context.AfterFunc(ctx, func() {
		cancelled.Store(true)
		r.sem.Post()
	})
	defer stop()

	for {
		if cancelled.Load() {
			return ctx.Err()
		}
		if !r.proceed.Load() {
			return nil
		}

		var ctl Control
		if beforeRound != nil {
			beforeRound(&ctl)
			if ctl.stop {
				return nil
			}
		}

		r.round(&ctl)
		if ctl.stop {
			if r.debug {
				r.logger.Debug("sigreceipts: consume loop stopped by delegate")
			}
			return nil
		}

		r.sem.Wait()
	}
}

// Stop makes the consume loop return before its next round. It also takes
// effect on a loop that has not started yet; InstallAll clears it.
func (r *Registry) Stop() {
	r.proceed.Store(false)
	r.sem.Post()
}

// Wake makes a waiting consume loop run one more iteration. Callers use it
// after changing state that a beforeRound callback inspects.
func (r *Registry) Wake() {
	r.sem.Post()
}

func (r *Registry) round(ctl *Control) {
	dispatched := 0
	panicked := false
	for i := range r.slots {
		s := &r.slots[i]
		n := s.count.Swap(0)
		if n == 0 {
			continue
		}
		rc := Receipt{Signal: s.sig, Count: n}
		dispatched++
		r.observer.ReceiptDispatched(rc)
		if r.dispatch(s, rc, ctl) {
			panicked = true
		}
	}
	r.observer.RoundCompleted(dispatched)

	if r.debug && dispatched > 0 {
		r.logger.Debug("sigreceipts: round complete", zap.Int("dispatched", dispatched))
	}
	if panicked && r.policy.StopOnPanic {
		ctl.Stop()
	}
}

// dispatch runs the delegate, recovering a panic so the rest of the round
// proceeds.
func (r *Registry) dispatch(s *Slot, rc Receipt, ctl *Control) (panicked bool) {
	defer func() {
		if rec := recover(); rec != nil {
			panicked = true
			r.observer.DelegatePanicked(s.sig)
			if r.policy.LogPanics {
				r.logger.Error("sigreceipts: delegate panicked",
					zap.String("signal", SignalName(s.sig)),
					zap.Uint64("count", rc.Count),
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()))
			}
		}
	}()
	s.delegate(rc, ctl)
	return false
}
