package audio

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

var volumeRe = regexp.MustCompile(`(\d+)\s*%`)

type sinkInput struct {
	id      int
	volume  int
	appName string
}

// Ducker lowers the volume of other playback streams while the kiosk
// is listening, so ambient audio does not bleed into the microphone.
// Streams whose application.name is in selfNames are left alone.
type Ducker struct {
	log       *slog.Logger
	selfNames []string
	duckedVol int

	mu       sync.Mutex
	active   bool
	original map[int]int // sink-input id -> volume % before ducking
}

func NewDucker(selfNames []string, duckedVol int, logger *slog.Logger) *Ducker {
	if logger == nil {
		logger = slog.Default()
	}
	if duckedVol < 0 {
		duckedVol = 0
	}
	if duckedVol > 100 {
		duckedVol = 100
	}
	return &Ducker{
		log:       logger,
		selfNames: append([]string(nil), selfNames...),
		duckedVol: duckedVol,
		original:  make(map[int]int),
	}
}

// Duck caps every foreign stream at the configured volume. Idempotent
// until Unduck is called.
func (d *Ducker) Duck(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.active {
		return nil
	}

	inputs, err := listSinkInputs(ctx)
	if err != nil {
		return fmt.Errorf("list sink inputs: %w", err)
	}

	d.original = make(map[int]int)
	for _, in := range inputs {
		if d.isSelf(in) || in.volume <= d.duckedVol {
			continue
		}
		if err := setSinkInputVolume(ctx, in.id, d.duckedVol); err != nil {
			d.log.Warn("failed to duck stream", "id", in.id, "err", err)
			continue
		}
		d.original[in.id] = in.volume
	}

	d.active = true
	return nil
}

// Unduck restores the volumes recorded by Duck. Streams that vanished
// in the meantime are skipped.
func (d *Ducker) Unduck(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.active {
		return nil
	}

	for id, vol := range d.original {
		if err := setSinkInputVolume(ctx, id, vol); err != nil {
			d.log.Warn("failed to restore stream volume", "id", id, "err", err)
		}
	}
	d.original = make(map[int]int)
	d.active = false
	return nil
}

func (d *Ducker) isSelf(in sinkInput) bool {
	for _, name := range d.selfNames {
		if strings.EqualFold(in.appName, name) {
			return true
		}
	}
	return false
}

func listSinkInputs(ctx context.Context) ([]sinkInput, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "pactl", "list", "sink-inputs").Output()
	if err != nil {
		return nil, err
	}

	var (
		inputs []sinkInput
		cur    *sinkInput
	)
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Sink Input #"):
			if cur != nil {
				inputs = append(inputs, *cur)
			}
			id, err := strconv.Atoi(strings.TrimPrefix(line, "Sink Input #"))
			if err != nil {
				cur = nil
				continue
			}
			cur = &sinkInput{id: id, volume: -1}
		case cur != nil && strings.HasPrefix(line, "Volume:") && cur.volume < 0:
			if m := volumeRe.FindStringSubmatch(line); m != nil {
				cur.volume, _ = strconv.Atoi(m[1])
			}
		case cur != nil && strings.HasPrefix(line, "application.name"):
			if _, v, ok := strings.Cut(line, "="); ok {
				cur.appName = strings.Trim(strings.TrimSpace(v), `"`)
			}
		}
	}
	if cur != nil {
		inputs = append(inputs, *cur)
	}
	return inputs, nil
}

func setSinkInputVolume(ctx context.Context, id, percent int) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return exec.CommandContext(ctx, "pactl",
		"set-sink-input-volume", strconv.Itoa(id), strconv.Itoa(percent)+"%").Run()
}
