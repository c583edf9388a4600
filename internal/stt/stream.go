package stt

import (
	"sync"
	"time"
)

// Utterance is one finalized unit of recognized speech.
type Utterance struct {
	Text string
	At   time.Time
}

// Stream decouples transcription cadence from the dialog loop.
// Push never blocks and never drops; Pop waits up to a timeout for the
// next utterance; Clear flushes whatever a previous session left over.
// FIFO order is preserved.
type Stream struct {
	mu    sync.Mutex
	items []Utterance
	wake  chan struct{}
}

func NewStream() *Stream {
	return &Stream{wake: make(chan struct{}, 1)}
}

func (s *Stream) Push(u Utterance) {
	s.mu.Lock()
	s.items = append(s.items, u)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Pop returns the oldest utterance, waiting up to timeout for one to
// arrive. The second return is false on timeout.
func (s *Stream) Pop(timeout time.Duration) (Utterance, bool) {
	deadline := time.Now().Add(timeout)
	for {
		s.mu.Lock()
		if len(s.items) > 0 {
			u := s.items[0]
			s.items = s.items[1:]
			s.mu.Unlock()
			return u, true
		}
		s.mu.Unlock()

		wait := time.Until(deadline)
		if wait <= 0 {
			return Utterance{}, false
		}
		select {
		case <-s.wake:
			// re-check under the lock; the token may be stale
		case <-time.After(wait):
			return Utterance{}, false
		}
	}
}

// Clear drops all buffered utterances so a new dialog session never
// consumes leftovers from the previous one.
func (s *Stream) Clear() {
	s.mu.Lock()
	s.items = nil
	s.mu.Unlock()

	select {
	case <-s.wake:
	default:
	}
}

func (s *Stream) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
