//go:build !linux

package sigreceipts

// ThreadID is only implemented on Linux; elsewhere it returns 0.
func ThreadID() int {
	return 0
}
