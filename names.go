package sigreceipts

import (
	"fmt"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// MaxSignal is the largest signal number a registry can hold.
const MaxSignal = 64

// SignalName returns the conventional name of sig, e.g. "SIGINT". Signals
// without a name are rendered as "signal N".
func SignalName(sig syscall.Signal) string {
	if name := unix.SignalName(sig); name != "" {
		return name
	}
	return "signal " + strconv.Itoa(int(sig))
}

// ParseSignal accepts "SIGINT", "sigint", "INT", "int" or a decimal number.
func ParseSignal(s string) (syscall.Signal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty name", ErrInvalidSignal)
	}
	if n, err := strconv.Atoi(s); err == nil {
		sig := syscall.Signal(n)
		if n <= 0 || n > MaxSignal {
			return 0, fmt.Errorf("%w: %d", ErrInvalidSignal, n)
		}
		return sig, nil
	}
	name := strings.ToUpper(s)
	if !strings.HasPrefix(name, "SIG") {
		name = "SIG" + name
	}
	if sig := unix.SignalNum(name); sig != 0 {
		return sig, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidSignal, s)
}

// Raise sends sig to the current process.
func Raise(sig syscall.Signal) error {
	return unix.Kill(unix.Getpid(), sig)
}
