// Package sigreceipts moves the occurrence of POSIX signals out of signal
// delivery and into an ordinary goroutine, where arbitrary processing can run.
//
// A Registry binds each configured signal number to one Delegate and one
// atomic counter. While installed, every delivery increments the counter and
// posts a wake semaphore; nothing else happens at delivery time. A consume
// loop, running on a normal goroutine, wakes on the semaphore, claims every
// non-zero counter and invokes the matching delegate with a Receipt carrying
// how many deliveries accumulated since the last round.
//
// Installing and uninstalling are transactional: a failed install leaves no
// signal registered, and uninstall restores each signal's previous
// disposition (default or ignored) even if restoring another one fails.
package sigreceipts

import (
	"fmt"
	"syscall"
)

// Receipt reports how many times Signal was delivered since its counter was
// last claimed. Count is never zero when given to a delegate.
type Receipt struct {
	Signal syscall.Signal
	Count  uint64
}

func (r Receipt) String() string {
	return fmt.Sprintf("%s x%d", SignalName(r.Signal), r.Count)
}

// Control lets a delegate end the consume loop. The loop exits after the
// current round; delegates already due in that round still run.
type Control struct {
	stop bool
}

func (c *Control) Stop() { c.stop = true }

func (c *Control) Stopped() bool { return c.stop }

// Delegate processes one receipt. It runs on the consume loop's goroutine,
// serialized with every other delegate of the registry.
type Delegate func(r Receipt, c *Control)

// Observer is notified of consume loop activity. Methods are called on the
// consume loop's goroutine.
type Observer interface {
	ReceiptDispatched(r Receipt)
	DelegatePanicked(sig syscall.Signal)
	RoundCompleted(dispatched int)
}

type nopObserver struct{}

func (nopObserver) ReceiptDispatched(Receipt)       {}
func (nopObserver) DelegatePanicked(syscall.Signal) {}
func (nopObserver) RoundCompleted(int)              {}
