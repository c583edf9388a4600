package stt

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"kiosk/pkg/audioconv"
)

// Transcriber turns accumulated mono 16 kHz PCM into text.
// Implemented by pkg/stt (whisper.cpp) and by fakes in tests.
type Transcriber interface {
	Transcribe(ctx context.Context, pcm []float32) (string, error)
}

const (
	// minSamples skips flushes of buffers too short to carry speech.
	minSamples = 1600 // 100ms @ 16kHz

	transcribeTimeout = 60 * time.Second
)

// Feeder buffers noise-gated frames from the capture loop and flushes
// them to the transcriber once the speaker pauses for gap (or the
// buffer reaches maxSamples). Finalized text is pushed to the stream.
type Feeder struct {
	tr         Transcriber
	out        *Stream
	gap        time.Duration
	maxSamples int
	log        *slog.Logger

	mu      sync.Mutex
	buf     []float32
	lastFed time.Time

	stop chan struct{}
	done chan struct{}
}

func NewFeeder(tr Transcriber, out *Stream, gap time.Duration, maxSamples int, logger *slog.Logger) *Feeder {
	if logger == nil {
		logger = slog.Default()
	}
	if gap <= 0 {
		gap = 700 * time.Millisecond
	}
	if maxSamples <= 0 {
		maxSamples = 16000 * 10
	}
	return &Feeder{
		tr:         tr,
		out:        out,
		gap:        gap,
		maxSamples: maxSamples,
		log:        logger,
	}
}

// Feed implements the capture sink. Called only with frames that
// passed the noise gate.
func (f *Feeder) Feed(frame []int16) {
	f.mu.Lock()
	f.buf = append(f.buf, audioconv.Int16ToFloat32(frame)...)
	f.lastFed = time.Now()
	over := len(f.buf) >= f.maxSamples
	f.mu.Unlock()

	if over {
		f.flush()
	}
}

func (f *Feeder) Start() {
	f.stop = make(chan struct{})
	f.done = make(chan struct{})
	go f.watch(f.stop, f.done)
}

func (f *Feeder) Stop() {
	if f.stop == nil {
		return
	}
	close(f.stop)
	<-f.done
	f.stop = nil

	f.mu.Lock()
	f.buf = nil
	f.mu.Unlock()
}

// watch finalizes an utterance when no gated frame arrived for gap.
func (f *Feeder) watch(stop, done chan struct{}) {
	defer close(done)

	tick := time.NewTicker(f.gap / 2)
	defer tick.Stop()

	for {
		select {
		case <-stop:
			return
		case <-tick.C:
		}

		f.mu.Lock()
		ready := len(f.buf) >= minSamples && time.Since(f.lastFed) >= f.gap
		f.mu.Unlock()
		if ready {
			f.flush()
		}
	}
}

func (f *Feeder) flush() {
	f.mu.Lock()
	pcm := f.buf
	f.buf = nil
	f.mu.Unlock()

	if len(pcm) < minSamples {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), transcribeTimeout)
	defer cancel()

	text, err := f.tr.Transcribe(ctx, pcm)
	if err != nil {
		f.log.Error("transcription failed", "err", err)
		return
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	f.log.Info("utterance finalized", "text", text)
	f.out.Push(Utterance{Text: text, At: time.Now()})
}
