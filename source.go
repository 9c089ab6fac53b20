package sigreceipts

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

// Disposition is how a signal was handled before a registry installed itself.
type Disposition int

const (
	// DispositionDefault means the signal was not ignored. Other os/signal
	// channels may have been notified for it; os/signal cannot tell, and
	// restoring leaves them registered.
	DispositionDefault Disposition = iota
	DispositionIgnored
)

func (d Disposition) String() string {
	switch d {
	case DispositionDefault:
		return "default"
	case DispositionIgnored:
		return "ignored"
	default:
		return fmt.Sprintf("Disposition(%d)", int(d))
	}
}

// Source abstracts the OS signal-registration interface. It is primarily
// useful for injecting fakes during testing.
type Source interface {
	// Install starts delivering sig to c and reports the disposition that was
	// in effect before.
	Install(sig syscall.Signal, c chan<- os.Signal) (Disposition, error)
	// Restore stops delivering sig to c and reinstates prev.
	Restore(sig syscall.Signal, c chan<- os.Signal, prev Disposition) error
}

// OSSource is the production Source. It delegates to os/signal, whose
// runtime handler is the process-level sigaction.
type OSSource struct{}

func (OSSource) Install(sig syscall.Signal, c chan<- os.Signal) (Disposition, error) {
	if err := checkCatchable(sig); err != nil {
		return DispositionDefault, err
	}
	prev := DispositionDefault
	if signal.Ignored(sig) {
		prev = DispositionIgnored
	}
	signal.Notify(c, sig)
	return prev, nil
}

func (OSSource) Restore(sig syscall.Signal, c chan<- os.Signal, prev Disposition) error {
	if err := checkCatchable(sig); err != nil {
		return err
	}
	signal.Stop(c)
	switch prev {
	case DispositionIgnored:
		signal.Ignore(sig)
	case DispositionDefault:
		// os/signal reverts to the default once no channel wants sig.
	default:
		return fmt.Errorf("unknown disposition %v", prev)
	}
	return nil
}

func checkCatchable(sig syscall.Signal) error {
	if sig <= 0 || int(sig) > MaxSignal {
		return ErrInvalidSignal
	}
	if sig == unix.SIGKILL || sig == unix.SIGSTOP {
		return ErrUncatchable
	}
	return nil
}
