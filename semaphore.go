package sigreceipts

// Semaphore is a counting semaphore used purely as a wake signal between the
// handler entry point and the consume loop. Its value is bounded; a Post
// beyond the bound is dropped, which only coalesces wake-ups.
type Semaphore struct {
	tokens chan struct{}
}

func NewSemaphore(limit int) *Semaphore {
	if limit <= 0 {
		limit = 1
	}
	return &Semaphore{tokens: make(chan struct{}, limit)}
}

// Post increments the value without blocking. It reports false when the
// value is already at its limit.
func (s *Semaphore) Post() bool {
	select {
	case s.tokens <- struct{}{}:
		return true
	default:
		return false
	}
}

// Wait blocks until the value is positive and decrements it.
func (s *Semaphore) Wait() {
	<-s.tokens
}

// tryWait decrements the value if it is positive.
func (s *Semaphore) tryWait() bool {
	select {
	case <-s.tokens:
		return true
	default:
		return false
	}
}

func (s *Semaphore) value() int {
	return len(s.tokens)
}
