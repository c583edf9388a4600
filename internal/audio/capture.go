package audio

import (
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"
)

// Source abstracts the microphone. ReadFrame blocks for one frame of
// int16 mono samples. Close must be safe to call more than once.
type Source interface {
	Open() error
	ReadFrame() ([]int16, error)
	Close() error
}

// Sink receives frames that pass the noise gate.
type Sink interface {
	Feed(frame []int16)
}

const releaseTimeout = 2 * time.Second

// Capture runs the noise-gated acquisition loop: frames below the RMS
// threshold are dropped, the rest forwarded unmodified to the sink.
// One read failure is logged and skipped; the loop only exits on Stop.
type Capture struct {
	src       Source
	sink      Sink
	threshold float64
	frameDur  time.Duration
	log       *slog.Logger

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func NewCapture(src Source, sink Sink, threshold float64, frameDur time.Duration, logger *slog.Logger) *Capture {
	if logger == nil {
		logger = slog.Default()
	}
	if frameDur <= 0 {
		frameDur = 64 * time.Millisecond
	}
	return &Capture{
		src:       src,
		sink:      sink,
		threshold: threshold,
		frameDur:  frameDur,
		log:       logger,
	}
}

// Start opens the source and begins the acquisition loop. Starting an
// already running capture is an error.
func (c *Capture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stop != nil {
		return errors.New("capture already running")
	}
	if err := c.src.Open(); err != nil {
		return err
	}

	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.loop(c.stop, c.done)

	c.log.Info("capture started", "threshold", c.threshold)
	return nil
}

// Stop halts the loop and waits for the device to be released, forcing
// the release after a bounded grace period. Idempotent.
func (c *Capture) Stop() {
	c.mu.Lock()
	stop, done := c.stop, c.done
	c.stop, c.done = nil, nil
	c.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)

	select {
	case <-done:
	case <-time.After(releaseTimeout):
		c.log.Error("capture loop stuck, forcing device release")
		if err := c.src.Close(); err != nil {
			c.log.Error("forced release failed", "err", err)
		}
	}
	c.log.Info("capture stopped")
}

func (c *Capture) loop(stop, done chan struct{}) {
	defer close(done)
	defer c.src.Close()

	for {
		select {
		case <-stop:
			return
		default:
		}

		frame, err := c.src.ReadFrame()
		if err != nil {
			c.log.Warn("frame read failed", "err", err)
			select {
			case <-stop:
				return
			case <-time.After(c.frameDur):
			}
			continue
		}

		if FrameRMS(frame) < c.threshold {
			continue
		}
		c.sink.Feed(frame)
	}
}

// FrameRMS is the root-mean-square energy of a frame, normalized to
// [0, 1] against full-scale int16.
func FrameRMS(frame []int16) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		x := float64(s) / 32768
		sum += x * x
	}
	return math.Sqrt(sum / float64(len(frame)))
}
