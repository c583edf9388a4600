// Package notify plays the short activation chime heard when the
// kiosk starts listening.
package notify

import (
	"context"
	"fmt"
	"time"

	"kiosk/internal/tts"
	"kiosk/pkg/audioconv"
)

type Chime struct {
	pcm    []float32
	player *tts.Player
}

// LoadChime decodes the chime asset once; Play reuses the samples.
func LoadChime(path string, player *tts.Player) (*Chime, error) {
	pcm, err := audioconv.DecodeFile(path)
	if err != nil {
		return nil, fmt.Errorf("load chime %s: %w", path, err)
	}
	return &Chime{pcm: pcm, player: player}, nil
}

func (c *Chime) Play() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return c.player.Play(ctx, c.pcm)
}
