package tts

import (
	"context"
	"log/slog"
	"sync"
)

// Synthesizer turns text into played-back audio, blocking until the
// audio finishes. It must stop promptly when ctx is cancelled.
type Synthesizer interface {
	SynthesizeAndPlay(ctx context.Context, text string) error
}

type task struct {
	text string
	done chan struct{}
}

// Queue serializes speech: a single worker drains tasks strictly in
// FIFO order, one item fully played before the next begins. Enqueue
// never blocks; Cancel kills the current playback and drains the rest.
type Queue struct {
	synth Synthesizer
	log   *slog.Logger

	mu      sync.Mutex
	pending []*task
	current *task              // dequeued but possibly not yet playing
	cancel  context.CancelFunc // current playback; nil when idle

	wake chan struct{}
	stop chan struct{}
	done chan struct{}
}

func NewQueue(synth Synthesizer, logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		synth: synth,
		log:   logger,
		wake:  make(chan struct{}, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

func (q *Queue) Start() {
	go q.worker()
}

// Enqueue appends text without blocking the caller.
func (q *Queue) Enqueue(text string) {
	q.add(text)
}

// EnqueueAndWait appends text and blocks until that item (and only
// that item) has finished playing or was cancelled.
func (q *Queue) EnqueueAndWait(text string) {
	t := q.add(text)
	<-t.done
}

func (q *Queue) add(text string) *task {
	t := &task{text: text, done: make(chan struct{})}
	q.mu.Lock()
	q.pending = append(q.pending, t)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return t
}

// Cancel stops the currently playing item and drains every item that
// has not started yet. Clearing current covers the item the worker has
// dequeued but not begun playing. Idempotent.
func (q *Queue) Cancel() {
	q.mu.Lock()
	pending := q.pending
	q.pending = nil
	cancel := q.cancel
	q.current = nil
	q.mu.Unlock()

	for _, t := range pending {
		close(t.done)
	}
	if cancel != nil {
		cancel()
	}
}

// Close cancels whatever is queued or playing and stops the worker.
func (q *Queue) Close() {
	q.Cancel()
	close(q.stop)
	<-q.done

	q.mu.Lock()
	for _, t := range q.pending {
		close(t.done)
	}
	q.pending = nil
	q.mu.Unlock()
}

func (q *Queue) worker() {
	defer close(q.done)
	for {
		t := q.next()
		if t == nil {
			select {
			case <-q.stop:
				return
			case <-q.wake:
			}
			continue
		}
		q.play(t)
	}
}

func (q *Queue) next() *task {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	t := q.pending[0]
	q.pending = q.pending[1:]
	q.current = t
	return t
}

func (q *Queue) play(t *task) {
	defer close(t.done)

	text := Sanitize(t.text)
	if text == "" {
		q.log.Debug("discarding speech task, empty after sanitization")
		q.mu.Lock()
		if q.current == t {
			q.current = nil
		}
		q.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	q.mu.Lock()
	if q.current != t {
		// cancelled between dequeue and here; never play it
		q.mu.Unlock()
		cancel()
		return
	}
	q.cancel = cancel
	q.mu.Unlock()

	err := q.synth.SynthesizeAndPlay(ctx, text)

	q.mu.Lock()
	q.cancel = nil
	q.current = nil
	q.mu.Unlock()
	cancel()

	if err != nil && ctx.Err() == nil {
		q.log.Error("speech playback failed", "err", err)
	}
}
