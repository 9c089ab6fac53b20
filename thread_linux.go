//go:build linux

package sigreceipts

import "golang.org/x/sys/unix"

// ThreadID returns the kernel id of the calling OS thread. Callers that need
// a stable answer must hold runtime.LockOSThread.
func ThreadID() int {
	return unix.Gettid()
}
