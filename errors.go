package sigreceipts

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
)

var (
	ErrAlreadyInstalled = errors.New("sigreceipts: handlers already installed")
	ErrNotInstalled     = errors.New("sigreceipts: handlers not installed")
	ErrConsumerRunning  = errors.New("sigreceipts: consume loop already running")
	ErrDuplicateSignal  = errors.New("sigreceipts: duplicate signal")
	ErrInvalidSignal    = errors.New("sigreceipts: invalid signal number")
	ErrUncatchable      = errors.New("sigreceipts: signal cannot be caught")
	ErrNilDelegate      = errors.New("sigreceipts: nil delegate")
	ErrNoSignals        = errors.New("sigreceipts: no signals configured")
)

// SlotError reports a failure to register or restore the disposition of one
// signal.
type SlotError struct {
	Signal syscall.Signal
	Err    error
}

func (e SlotError) Error() string {
	return fmt.Sprintf("%s: %v", SignalName(e.Signal), e.Err)
}

func (e SlotError) Unwrap() error { return e.Err }

// InstallError is returned by InstallAll. When Signal is non-zero, registering
// that signal failed and every slot registered before it was rolled back.
// Rollback lists restores that themselves failed during that rollback.
type InstallError struct {
	Signal   syscall.Signal
	Err      error
	Rollback []SlotError
}

func (e *InstallError) Error() string {
	var b strings.Builder
	b.WriteString("sigreceipts: install")
	if e.Signal != 0 {
		fmt.Fprintf(&b, " %s", SignalName(e.Signal))
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	if len(e.Rollback) > 0 {
		fmt.Fprintf(&b, " (rollback failed for %d signal(s))", len(e.Rollback))
	}
	return b.String()
}

func (e *InstallError) Unwrap() []error {
	errs := []error{e.Err}
	for _, r := range e.Rollback {
		errs = append(errs, r)
	}
	return errs
}

// UninstallError is returned by UninstallAll. Either Err is ErrNotInstalled,
// or Failed lists each signal whose previous disposition could not be
// restored; all other signals were restored.
type UninstallError struct {
	Err    error
	Failed []SlotError
}

func (e *UninstallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sigreceipts: uninstall: %v", e.Err)
	}
	parts := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		parts = append(parts, f.Error())
	}
	return "sigreceipts: uninstall: " + strings.Join(parts, "; ")
}

func (e *UninstallError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Err}
	}
	errs := make([]error, 0, len(e.Failed))
	for _, f := range e.Failed {
		errs = append(errs, f)
	}
	return errs
}
