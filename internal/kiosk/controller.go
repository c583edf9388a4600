package kiosk

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"kiosk/internal/resolve"
	"kiosk/internal/stt"
)

// Mode is the kiosk's top-level state. The controller is its only
// writer; the promo and session loops read it to discard late ticks.
type Mode int32

const (
	ModePromo Mode = iota
	ModeDialog
)

func (m Mode) String() string {
	if m == ModeDialog {
		return "dialog"
	}
	return "promo"
}

// CaptureUnit is the noise-gated microphone pipeline.
type CaptureUnit interface {
	Start() error
	Stop()
}

// Speech is the serialized speech output queue.
type Speech interface {
	Enqueue(text string)
	EnqueueAndWait(text string)
	Cancel()
}

// Resolver maps an utterance to a response.
type Resolver interface {
	Resolve(text string) resolve.Match
}

// StatusFunc receives mode transitions for the front-end to render.
type StatusFunc func(mode Mode, label string)

type Config struct {
	PromoLines    []string
	PromoInterval time.Duration
	Inactivity    time.Duration
	PollTimeout   time.Duration

	UnknownReply string
	PromoLabel   string
	ListenLabel  string
	SpeakLabel   string

	// Optional hooks around a dialog session (chime, audio ducking).
	OnDialogStart func()
	OnDialogEnd   func()
}

func (c *Config) applyDefaults() {
	if c.PromoInterval <= 0 {
		c.PromoInterval = 20 * time.Second
	}
	if c.Inactivity <= 0 {
		c.Inactivity = 15 * time.Second
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 500 * time.Millisecond
	}
	if c.UnknownReply == "" {
		c.UnknownReply = "Nie wiem, zapytaj operatora stoiska."
	}
	if c.PromoLabel == "" {
		c.PromoLabel = "Zapraszamy!"
	}
	if c.ListenLabel == "" {
		c.ListenLabel = "Słucham..."
	}
	if c.SpeakLabel == "" {
		c.SpeakLabel = "Mówię..."
	}
}

// Controller drives the PROMO/DIALOG state machine: it cycles promo
// lines while idle, opens a single-turn dialog session on Activate and
// always returns to promo through one teardown path.
type Controller struct {
	cfg      Config
	speech   Speech
	stream   *stt.Stream
	capture  CaptureUnit
	resolver Resolver
	onStatus StatusFunc
	log      *slog.Logger

	mode atomic.Int32

	mu          sync.Mutex
	session     *Session
	promoCancel context.CancelFunc
	closed      bool
	wg          sync.WaitGroup
}

func NewController(cfg Config, speech Speech, stream *stt.Stream, capture CaptureUnit, resolver Resolver, onStatus StatusFunc, logger *slog.Logger) *Controller {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		cfg:      cfg,
		speech:   speech,
		stream:   stream,
		capture:  capture,
		resolver: resolver,
		onStatus: onStatus,
		log:      logger,
	}
}

func (c *Controller) Mode() Mode {
	return Mode(c.mode.Load())
}

// Start enters PROMO and begins cycling promo lines.
func (c *Controller) Start() {
	c.mu.Lock()
	c.startPromoLocked()
	c.mu.Unlock()
	c.status(ModePromo, c.cfg.PromoLabel)
}

// Shutdown ends any active session, stops the promo loop and waits for
// both to finish.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	c.closed = true
	if c.promoCancel != nil {
		c.promoCancel()
		c.promoCancel = nil
	}
	s := c.session
	c.mu.Unlock()

	if s != nil {
		s.stop()
	}
	c.wg.Wait()
	c.speech.Cancel()
}

// Activate triggers PROMO → DIALOG. Calling it while a dialog session
// is active is a logged no-op.
func (c *Controller) Activate() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.session != nil {
		c.mu.Unlock()
		c.log.Info("activation ignored, dialog already active")
		return
	}

	if c.promoCancel != nil {
		c.promoCancel()
		c.promoCancel = nil
	}
	c.speech.Cancel()
	c.stream.Clear()

	if err := c.capture.Start(); err != nil {
		c.log.Error("failed to start capture", "err", err)
		c.startPromoLocked()
		c.mu.Unlock()
		return
	}

	s := newSession()
	c.session = s
	c.mode.Store(int32(ModeDialog))
	c.mu.Unlock()

	c.log.Info("dialog session started")
	c.status(ModeDialog, c.cfg.ListenLabel)
	if c.cfg.OnDialogStart != nil {
		c.cfg.OnDialogStart()
	}

	c.wg.Add(1)
	go c.runSession(s)
}

// runSession polls the transcript stream until one utterance is
// answered or the inactivity window elapses. Single-turn by design.
func (c *Controller) runSession(s *Session) {
	defer c.wg.Done()
	defer c.endSession(s)

	for {
		select {
		case <-s.stopc:
			return
		default:
		}

		if s.Expired(c.cfg.Inactivity) {
			c.log.Info("dialog timed out", "after", c.cfg.Inactivity)
			return
		}

		u, ok := c.stream.Pop(c.cfg.PollTimeout)
		if !ok || strings.TrimSpace(u.Text) == "" {
			continue
		}
		s.Touch()

		m := c.resolver.Resolve(u.Text)
		reply := m.Response
		if m.Unknown() {
			reply = c.cfg.UnknownReply
		}

		c.status(ModeDialog, c.cfg.SpeakLabel)
		c.speech.EnqueueAndWait(reply)
		return
	}
}

// endSession is the single teardown path for DIALOG → PROMO. It runs
// exactly once per session, whatever ended it.
func (c *Controller) endSession(s *Session) {
	s.endOnce.Do(func() {
		c.capture.Stop()
		if c.cfg.OnDialogEnd != nil {
			c.cfg.OnDialogEnd()
		}

		c.mu.Lock()
		c.session = nil
		c.mode.Store(int32(ModePromo))
		if !c.closed {
			c.startPromoLocked()
		}
		c.mu.Unlock()

		c.log.Info("dialog session ended")
		c.status(ModePromo, c.cfg.PromoLabel)
	})
}

func (c *Controller) startPromoLocked() {
	if c.closed || len(c.cfg.PromoLines) == 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.promoCancel = cancel
	c.wg.Add(1)
	go c.promoLoop(ctx)
}

// promoLoop cycles the configured lines. A tick that fires after a
// transition to DIALOG checks the mode and stays silent.
func (c *Controller) promoLoop(ctx context.Context) {
	defer c.wg.Done()

	i := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if c.Mode() == ModePromo {
			c.speech.Enqueue(c.cfg.PromoLines[i])
			i = (i + 1) % len(c.cfg.PromoLines)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.cfg.PromoInterval):
		}
	}
}

func (c *Controller) status(mode Mode, label string) {
	if c.onStatus != nil {
		c.onStatus(mode, label)
	}
}
