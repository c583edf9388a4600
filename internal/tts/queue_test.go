package tts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSynth records what it was asked to speak and how many items were
// in flight at once, simulating playback with a fixed delay.
type fakeSynth struct {
	mu      sync.Mutex
	spoken  []string
	active  int
	overlap bool
	delay   time.Duration
	err     error
	started chan struct{} // receives once per item that begins playing
}

func newFakeSynth(delay time.Duration) *fakeSynth {
	return &fakeSynth{delay: delay, started: make(chan struct{}, 16)}
}

func (f *fakeSynth) SynthesizeAndPlay(ctx context.Context, text string) error {
	f.mu.Lock()
	f.active++
	if f.active > 1 {
		f.overlap = true
	}
	f.spoken = append(f.spoken, text)
	f.mu.Unlock()
	f.started <- struct{}{}

	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
		return ctx.Err()
	}

	f.mu.Lock()
	f.active--
	f.mu.Unlock()
	return f.err
}

func (f *fakeSynth) spokenTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.spoken...)
}

func TestQueueFIFONoOverlap(t *testing.T) {
	synth := newFakeSynth(20 * time.Millisecond)
	q := NewQueue(synth, discard())
	q.Start()
	defer q.Close()

	q.Enqueue("pierwszy")
	q.Enqueue("drugi")
	q.EnqueueAndWait("trzeci")

	got := synth.spokenTexts()
	want := []string{"pierwszy", "drugi", "trzeci"}
	if len(got) != len(want) {
		t.Fatalf("spoke %d items, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d = %q, want %q", i, got[i], want[i])
		}
	}
	synth.mu.Lock()
	overlap := synth.overlap
	synth.mu.Unlock()
	if overlap {
		t.Error("two items were playing at the same time")
	}
}

func TestQueueEnqueueAndWaitBlocksUntilPlayed(t *testing.T) {
	synth := newFakeSynth(30 * time.Millisecond)
	q := NewQueue(synth, discard())
	q.Start()
	defer q.Close()

	start := time.Now()
	q.EnqueueAndWait("komunikat")
	if time.Since(start) < 25*time.Millisecond {
		t.Error("EnqueueAndWait returned before playback finished")
	}
}

func TestQueueCancelStopsCurrentAndDrainsPending(t *testing.T) {
	synth := newFakeSynth(5 * time.Second)
	q := NewQueue(synth, discard())
	q.Start()
	defer q.Close()

	q.Enqueue("graj")
	<-synth.started // current item is now playing
	q.Enqueue("nigdy")
	q.Enqueue("nigdy dwa")

	start := time.Now()
	q.Cancel()

	// worker may pull one pending item between Cancel's drain and the
	// next Enqueue being absent; give it a moment to settle
	time.Sleep(50 * time.Millisecond)

	if time.Since(start) > time.Second {
		t.Fatal("Cancel did not stop playback promptly")
	}
	got := synth.spokenTexts()
	if len(got) != 1 || got[0] != "graj" {
		t.Errorf("spoke %v, want only the cancelled current item", got)
	}
}

func TestQueueCancelBetweenDequeueAndPlay(t *testing.T) {
	synth := newFakeSynth(time.Millisecond)
	q := NewQueue(synth, discard())

	// no worker: step through dequeue and playback by hand so the
	// cancel lands exactly between them
	q.Enqueue("spóźniona promocja")
	tk := q.next()
	q.Cancel()
	q.play(tk)

	if got := synth.spokenTexts(); len(got) != 0 {
		t.Errorf("spoke %v after cancel, want nothing", got)
	}
	select {
	case <-tk.done:
	default:
		t.Error("cancelled task never finished")
	}
}

func TestQueueDiscardsEmptyAfterSanitize(t *testing.T) {
	synth := newFakeSynth(time.Millisecond)
	q := NewQueue(synth, discard())
	q.Start()
	defer q.Close()

	q.Enqueue("```kod```")
	q.Enqueue("   ")
	q.EnqueueAndWait("prawdziwy tekst")

	got := synth.spokenTexts()
	if len(got) != 1 || got[0] != "prawdziwy tekst" {
		t.Errorf("spoke %v, want only the real text", got)
	}
}

func TestQueueContinuesAfterSynthError(t *testing.T) {
	synth := newFakeSynth(time.Millisecond)
	synth.err = errors.New("device busy")
	q := NewQueue(synth, discard())
	q.Start()
	defer q.Close()

	q.Enqueue("pada")
	q.EnqueueAndWait("dalej gra")

	if got := synth.spokenTexts(); len(got) != 2 {
		t.Errorf("spoke %d items after an error, want 2", len(got))
	}
}

func TestSanitize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Zwykłe zdanie.", "Zwykłe zdanie."},
		{"  dużo   spacji  ", "dużo spacji"},
		{"cena: 8 zł, ostrość 3/5!", "cena: 8 zł, ostrość 35!"},
		{"```fmt.Println()``` tekst", "tekst"},
		{"***", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := Sanitize(c.in); got != c.want {
			t.Errorf("Sanitize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
