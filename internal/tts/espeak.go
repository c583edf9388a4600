package tts

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <string.h>
#include <espeak-ng/speak_lib.h>

static int
espeak_setup(const char *lang)
{
	if (espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0) < 0)
	{ return -1; }

	espeak_VOICE specs = { .languages = lang };
	if (espeak_SetVoiceByProperties(&specs) != EE_OK)
	{ return -2; }

	return 0;
}

static int
espeak_say(const char *text)
{
	if (!text)
	{ return -1; }

	if (espeak_Synth(text, strlen(text) + 1, 0, 0, 0, espeakCHARS_AUTO, NULL, NULL) != EE_OK)
	{ return -2; }
	espeak_Synchronize();

	return 0;
}

static void
espeak_stop(void)
{
	espeak_Cancel();
}
*/
import "C"

import (
	"context"
	"fmt"
	"unsafe"
)

// EspeakSynth speaks through espeak-ng in synchronous playback mode.
// Fully offline; the voice language is fixed at construction.
type EspeakSynth struct{}

func NewEspeakSynth(lang string) (*EspeakSynth, error) {
	clang := C.CString(lang)
	defer C.free(unsafe.Pointer(clang))

	if rc := C.espeak_setup(clang); rc != 0 {
		return nil, fmt.Errorf("espeak init failed: %d", int(rc))
	}
	return &EspeakSynth{}, nil
}

func (s *EspeakSynth) SynthesizeAndPlay(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	ctext := C.CString(text)
	done := make(chan error, 1)
	go func() {
		defer C.free(unsafe.Pointer(ctext))
		if rc := C.espeak_say(ctext); rc != 0 {
			done <- fmt.Errorf("espeak synth failed: %d", int(rc))
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		C.espeak_stop()
		<-done
		return ctx.Err()
	}
}
