package sigreceipts

import (
	"context"
	"syscall"

	"go.uber.org/zap"
)

// SignalReceived is the cancellation cause of a context from ContextFor.
type SignalReceived struct {
	Receipt Receipt
}

func (e *SignalReceived) Error() string {
	return "sigreceipts: received " + e.Receipt.String()
}

// ContextFor returns a context that is cancelled the first time any of sigs
// is delivered; context.Cause then reports a *SignalReceived. The signals'
// previous dispositions are restored once the context is done. cancel
// releases the signals early and waits until they are restored.
func ContextFor(parent context.Context, sigs []syscall.Signal, opts ...Option) (context.Context, context.CancelFunc, error) {
	ctx, cancel := context.WithCancelCause(parent)

	b := NewBuilder(opts...)
	for _, sig := range sigs {
		b.Handle(sig, func(r Receipt, c *Control) {
			cancel(&SignalReceived{Receipt: r})
			c.Stop()
		})
	}
	reg, err := b.Build()
	if err != nil {
		cancel(err)
		return nil, nil, err
	}
	if err := reg.InstallAll(); err != nil {
		cancel(err)
		return nil, nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = reg.ConsumeLoop(ctx)
		if err := reg.UninstallAll(); err != nil {
			reg.logger.Warn("sigreceipts: releasing context signals", zap.Error(err))
		}
	}()

	return ctx, func() {
		cancel(context.Canceled)
		<-done
	}, nil
}
