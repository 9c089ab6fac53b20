// Package sigtest provides an in-memory sigreceipts.Source for tests.
package sigtest

import (
	"fmt"
	"os"
	"sync"
	"syscall"

	sigreceipts "github.com/srozzo/go-signal-receipts"
)

type Op string

const (
	OpInstall Op = "install"
	OpRestore Op = "restore"
)

// Event records one call made by a registry.
type Event struct {
	Op     Op
	Signal syscall.Signal
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Op, sigreceipts.SignalName(e.Signal))
}

// Source simulates process signal dispositions. Deliveries are injected with
// Deliver and travel the same channel path os/signal would use.
type Source struct {
	mu          sync.Mutex
	disposition map[syscall.Signal]sigreceipts.Disposition
	notify      map[syscall.Signal]chan<- os.Signal
	failInstall map[syscall.Signal]error
	failRestore map[syscall.Signal]error
	events      []Event
}

func NewSource() *Source {
	return &Source{
		disposition: make(map[syscall.Signal]sigreceipts.Disposition),
		notify:      make(map[syscall.Signal]chan<- os.Signal),
		failInstall: make(map[syscall.Signal]error),
		failRestore: make(map[syscall.Signal]error),
	}
}

// SetDisposition sets what sig looks like before anything is installed.
func (s *Source) SetDisposition(sig syscall.Signal, d sigreceipts.Disposition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposition[sig] = d
}

// Disposition is the disposition sig has while nothing is installed for it.
func (s *Source) Disposition(sig syscall.Signal) sigreceipts.Disposition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disposition[sig]
}

func (s *Source) FailInstall(sig syscall.Signal, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failInstall[sig] = err
}

func (s *Source) FailRestore(sig syscall.Signal, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRestore[sig] = err
}

func (s *Source) ClearFailures() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.failInstall)
	clear(s.failRestore)
}

func (s *Source) Install(sig syscall.Signal, c chan<- os.Signal) (sigreceipts.Disposition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, Event{Op: OpInstall, Signal: sig})
	if err := s.failInstall[sig]; err != nil {
		return sigreceipts.DispositionDefault, err
	}
	if _, ok := s.notify[sig]; ok {
		return sigreceipts.DispositionDefault, fmt.Errorf("sigtest: %s already has a handler", sigreceipts.SignalName(sig))
	}
	s.notify[sig] = c
	return s.disposition[sig], nil
}

func (s *Source) Restore(sig syscall.Signal, c chan<- os.Signal, prev sigreceipts.Disposition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, Event{Op: OpRestore, Signal: sig})
	if err := s.failRestore[sig]; err != nil {
		return err
	}
	if s.notify[sig] != c {
		return fmt.Errorf("sigtest: %s restored with a foreign channel", sigreceipts.SignalName(sig))
	}
	delete(s.notify, sig)
	s.disposition[sig] = prev
	return nil
}

// Installed reports whether a handler is currently registered for sig.
func (s *Source) Installed(sig syscall.Signal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.notify[sig]
	return ok
}

// Deliver sends sig n times to its handler. It reports false if no handler
// is registered, which is the simulated default or ignored behaviour.
func (s *Source) Deliver(sig syscall.Signal, n int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.notify[sig]
	if !ok {
		return false
	}
	for range n {
		c <- sig
	}
	return true
}

func (s *Source) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

func (s *Source) ResetEvents() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
