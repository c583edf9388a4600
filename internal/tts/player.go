package tts

import (
	"context"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

// Player renders mono PCM through the system speaker. Play blocks
// until the samples finish or ctx is cancelled; the speech queue
// guarantees calls never overlap.
type Player struct {
	rate     beep.SampleRate
	initOnce sync.Once
	initErr  error
}

func NewPlayer(sampleRate int) *Player {
	return &Player{rate: beep.SampleRate(sampleRate)}
}

func (p *Player) init() error {
	p.initOnce.Do(func() {
		p.initErr = speaker.Init(p.rate, p.rate.N(time.Second/10))
	})
	return p.initErr
}

func (p *Player) Play(ctx context.Context, pcm []float32) error {
	if len(pcm) == 0 {
		return nil
	}
	if err := p.init(); err != nil {
		return err
	}

	done := make(chan struct{})
	speaker.Play(beep.Seq(&pcmStreamer{samples: pcm}, beep.Callback(func() {
		close(done)
	})))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return ctx.Err()
	}
}

// pcmStreamer adapts a mono float32 buffer to beep's stereo stream.
type pcmStreamer struct {
	samples []float32
	pos     int
}

func (s *pcmStreamer) Stream(out [][2]float64) (int, bool) {
	if s.pos >= len(s.samples) {
		return 0, false
	}
	n := 0
	for i := range out {
		if s.pos >= len(s.samples) {
			break
		}
		v := float64(s.samples[s.pos])
		out[i][0], out[i][1] = v, v
		s.pos++
		n++
	}
	return n, true
}

func (s *pcmStreamer) Err() error { return nil }
