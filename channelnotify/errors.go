package channelnotify

import "errors"

var (
	ErrAlreadyInstalled = errors.New("channelnotify: already installed")
	ErrNotInstalled     = errors.New("channelnotify: not installed")
	ErrFinished         = errors.New("channelnotify: facility finished")
	ErrWrongMethod      = errors.New("channelnotify: uninstall method does not match how it was installed")
	ErrWrongReceiver    = errors.New("channelnotify: receiver does not belong to the current install")
	ErrNilConverter     = errors.New("channelnotify: nil converter")
	ErrNilSender        = errors.New("channelnotify: nil sender")
)

// Errors a Sender returns. With any of them the notification was not sent.
var (
	// ErrSendDisconnected means the receiving end is gone. The consumer
	// thread stops sending and goes dormant until the next install.
	ErrSendDisconnected = errors.New("channelnotify: notification channel disconnected")
	// ErrSendFull means the channel was full and the sender chose not to block.
	ErrSendFull = errors.New("channelnotify: notification channel full")
	// ErrSendIgnored means the sender chose not to send, e.g. the signal has
	// no representation in the channel's element type.
	ErrSendIgnored = errors.New("channelnotify: notification ignored")
)
