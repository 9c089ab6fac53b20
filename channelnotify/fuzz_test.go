package channelnotify_test

import (
	"errors"
	"syscall"
	"testing"

	"golang.org/x/sys/unix"

	sigreceipts "github.com/srozzo/go-signal-receipts"
	"github.com/srozzo/go-signal-receipts/channelnotify"
	"github.com/srozzo/go-signal-receipts/internal/sigtest"
)

// FuzzStateMachine runs permutations of facility operations and checks the
// lifecycle never leaks a thread or lands in an unexpected state. It uses
// the fake source only.
func FuzzStateMachine(f *testing.F) {
	f.Add([]byte{0, 4, 2, 0, 4, 5})
	f.Add([]byte{1, 4, 3, 1, 2, 6, 0})
	f.Add([]byte{5, 0, 0, 2, 2, 5, 5})

	f.Fuzz(func(t *testing.T, data []byte) {
		src := sigtest.NewSource()
		fac, err := channelnotify.New([]syscall.Signal{unix.SIGUSR1, unix.SIGUSR2},
			channelnotify.WithRegistryOptions(sigreceipts.WithSource(src)))
		if err != nil {
			t.Fatal(err)
		}

		var rx *channelnotify.Receiver[syscall.Signal]
		const maxOps = 64
		for i := 0; i < len(data) && i < maxOps; i++ {
			before := fac.State()
			var err error
			switch data[i] % 7 {
			case 0:
				var r *channelnotify.Receiver[syscall.Signal]
				r, err = channelnotify.Install(fac, channelnotify.Unbounded(), channelnotify.Identity)
				if err == nil {
					rx = r
				}
			case 1:
				err = fac.InstallSender(channelnotify.ChanSender[syscall.Signal]{
					C:       make(chan syscall.Signal, 1),
					Convert: channelnotify.Identity,
				})
			case 2:
				err = fac.Uninstall(rx)
			case 3:
				err = fac.UninstallSender()
			case 4:
				src.Deliver(unix.SIGUSR1, int(data[i]%3))
			case 5:
				err = fac.Finish(rx)
				if errors.Is(err, channelnotify.ErrWrongMethod) {
					err = fac.FinishSender()
				}
			case 6:
				if rx != nil {
					rx.Close()
				}
			}

			after := fac.State()
			if err == nil && before == channelnotify.StateFinished && after != before {
				t.Fatalf("left finished state: %v", after)
			}
			if err != nil && after != before {
				t.Fatalf("op %d failed with %v but moved %v -> %v", data[i]%7, err, before, after)
			}
			if fac.ThreadSpawns() > 1 {
				t.Fatalf("thread respawned: %d", fac.ThreadSpawns())
			}
		}

		switch fac.State() {
		case channelnotify.StateInstalled:
			if err := fac.Finish(rx); errors.Is(err, channelnotify.ErrWrongMethod) {
				_ = fac.FinishSender()
			}
		case channelnotify.StateFinished:
		default:
			_ = fac.Finish(nil)
		}
		if fac.State() != channelnotify.StateFinished {
			t.Fatalf("not finished: %v", fac.State())
		}
		if src.Installed(unix.SIGUSR1) || src.Installed(unix.SIGUSR2) {
			t.Fatal("handlers left installed")
		}
	})
}
