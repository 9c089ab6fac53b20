//go:build unix

package sigreceipts_test

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	sigreceipts "github.com/srozzo/go-signal-receipts"
)

const helperEnv = "SIGRECEIPTS_HELPER"

// TestHelperProcess is not a real test. It runs in a child process started
// by the tests below and raises SIGHUP, which the Go runtime turns into
// process death while no channel is notified for it.
func TestHelperProcess(t *testing.T) {
	mode := os.Getenv(helperEnv)
	if mode == "" {
		return
	}
	if mode != "never" {
		noop := func(sigreceipts.Receipt, *sigreceipts.Control) {}
		reg, err := sigreceipts.NewBuilder().Handle(unix.SIGHUP, noop).Build()
		if err != nil {
			os.Exit(2)
		}
		if err := reg.InstallAll(); err != nil {
			os.Exit(3)
		}
		if mode == "uninstall" {
			if err := reg.UninstallAll(); err != nil {
				os.Exit(4)
			}
		}
	}
	_ = sigreceipts.Raise(unix.SIGHUP)
	time.Sleep(500 * time.Millisecond)
	os.Exit(0)
}

// killedBy runs the helper in mode and reports the signal that ended it, or
// zero when it exited normally.
func killedBy(t *testing.T, mode string) syscall.Signal {
	t.Helper()
	cmd := exec.Command(os.Args[0], "-test.run=^TestHelperProcess$")
	cmd.Env = append(os.Environ(), helperEnv+"="+mode)
	err := cmd.Run()
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	ws, ok := exitErr.Sys().(syscall.WaitStatus)
	require.True(t, ok)
	require.True(t, ws.Signaled(), "child exited with %v", ws.ExitStatus())
	return ws.Signal()
}

// Uninstalling restores the default action, so the raised signal kills the
// child just as it does when nothing was ever installed. While installed,
// the same signal is only counted.
func TestOSSource_RestoresDefault(t *testing.T) {
	if signal.Ignored(unix.SIGHUP) {
		t.Skip("SIGHUP is ignored by the parent and would be inherited")
	}

	assert.Equal(t, unix.SIGHUP, killedBy(t, "never"))
	assert.Zero(t, killedBy(t, "installed"))
	assert.Equal(t, unix.SIGHUP, killedBy(t, "uninstall"))
}

// A channel notified before the install keeps receiving after the restore.
func TestOSSource_RestoresOtherHandler(t *testing.T) {
	other := make(chan os.Signal, 8)
	signal.Notify(other, unix.SIGHUP)
	t.Cleanup(func() { signal.Stop(other) })

	noop := func(sigreceipts.Receipt, *sigreceipts.Control) {}
	reg, err := sigreceipts.NewBuilder().Handle(unix.SIGHUP, noop).Build()
	require.NoError(t, err)
	require.NoError(t, reg.InstallAll())

	prev, ok := reg.Previous(unix.SIGHUP)
	require.True(t, ok)
	assert.Equal(t, sigreceipts.DispositionDefault, prev)

	require.NoError(t, reg.UninstallAll())
	drain(other)

	require.NoError(t, sigreceipts.Raise(unix.SIGHUP))
	select {
	case sig := <-other:
		assert.Equal(t, unix.SIGHUP, sig)
	case <-time.After(2 * time.Second):
		t.Fatal("other handler lost after restore")
	}
}

func drain(c <-chan os.Signal) {
	for {
		select {
		case <-c:
		default:
			return
		}
	}
}

func TestOSSource_RestoresIgnored(t *testing.T) {
	signal.Ignore(unix.SIGUSR2)
	t.Cleanup(func() { signal.Reset(unix.SIGUSR2) })

	got := make(chan sigreceipts.Receipt, 8)
	reg, err := sigreceipts.NewBuilder().
		Handle(unix.SIGUSR2, func(r sigreceipts.Receipt, _ *sigreceipts.Control) { got <- r }).
		Build()
	require.NoError(t, err)
	require.NoError(t, reg.InstallAll())

	prev, ok := reg.Previous(unix.SIGUSR2)
	require.True(t, ok)
	assert.Equal(t, sigreceipts.DispositionIgnored, prev)
	assert.False(t, signal.Ignored(unix.SIGUSR2))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- reg.ConsumeLoop(ctx) }()

	require.NoError(t, sigreceipts.Raise(unix.SIGUSR2))
	select {
	case r := <-got:
		assert.Equal(t, unix.SIGUSR2, r.Signal)
		assert.GreaterOrEqual(t, r.Count, uint64(1))
	case <-time.After(2 * time.Second):
		t.Fatal("delegate not called")
	}
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	require.NoError(t, reg.UninstallAll())
	assert.True(t, signal.Ignored(unix.SIGUSR2))

	// Still ignored: the process survives.
	require.NoError(t, sigreceipts.Raise(unix.SIGUSR2))
	time.Sleep(20 * time.Millisecond)
}

// A signal that cannot be caught fails the install and rolls back the ones
// before it.
func TestOSSource_UncatchableRollsBack(t *testing.T) {
	signal.Ignore(unix.SIGUSR1)
	t.Cleanup(func() { signal.Reset(unix.SIGUSR1) })

	noop := func(sigreceipts.Receipt, *sigreceipts.Control) {}
	reg, err := sigreceipts.NewBuilder().
		Handle(unix.SIGUSR1, noop).
		Handle(unix.SIGKILL, noop).
		Build()
	require.NoError(t, err)

	err = reg.InstallAll()
	require.ErrorIs(t, err, sigreceipts.ErrUncatchable)
	var ie *sigreceipts.InstallError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, unix.SIGKILL, ie.Signal)
	assert.False(t, reg.Installed())
	assert.True(t, signal.Ignored(unix.SIGUSR1))
}
