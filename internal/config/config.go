// Package config collects the tunables of the voice pipeline. Values
// come from the environment (godotenv loads the file in main) with
// sane defaults for a Polish-language kiosk.
package config

import (
	"os"
	"strconv"
	"time"
)

type Settings struct {
	SampleRate int
	FrameSize  int

	NoiseGate  float64       // normalized RMS floor, [0, 1]
	SilenceGap time.Duration // pause that finalizes an utterance
	MaxSpeech  time.Duration // longest single utterance buffered

	Inactivity    time.Duration
	PromoInterval time.Duration
	PollTimeout   time.Duration

	UnknownReply string

	KnowledgePath string
	ModelPath     string
	ChimePath     string
	Language      string
	ListenAddr    string
}

func Defaults() Settings {
	return Settings{
		SampleRate:    16000,
		FrameSize:     1024,
		NoiseGate:     0.015,
		SilenceGap:    700 * time.Millisecond,
		MaxSpeech:     10 * time.Second,
		Inactivity:    15 * time.Second,
		PromoInterval: 20 * time.Second,
		PollTimeout:   500 * time.Millisecond,
		UnknownReply:  "Nie wiem, zapytaj operatora stoiska.",
		KnowledgePath: "data/knowledge.json",
		ModelPath:     "third_party/whisper.cpp/models/ggml-medium.bin",
		ChimePath:     "assets/chime.wav",
		Language:      "pl",
		ListenAddr:    "127.0.0.1:8080",
	}
}

// FromEnv overlays KIOSK_* environment variables on the defaults.
func FromEnv() Settings {
	s := Defaults()

	envFloat("KIOSK_NOISE_GATE", &s.NoiseGate)
	envDuration("KIOSK_SILENCE_GAP", &s.SilenceGap)
	envDuration("KIOSK_MAX_SPEECH", &s.MaxSpeech)
	envDuration("KIOSK_INACTIVITY", &s.Inactivity)
	envDuration("KIOSK_PROMO_INTERVAL", &s.PromoInterval)
	envDuration("KIOSK_POLL_TIMEOUT", &s.PollTimeout)
	envString("KIOSK_UNKNOWN_REPLY", &s.UnknownReply)
	envString("KIOSK_KNOWLEDGE", &s.KnowledgePath)
	envString("KIOSK_MODEL", &s.ModelPath)
	envString("KIOSK_CHIME", &s.ChimePath)
	envString("KIOSK_LANGUAGE", &s.Language)
	envString("KIOSK_LISTEN", &s.ListenAddr)

	return s
}

// MaxSpeechSamples is MaxSpeech expressed in samples at SampleRate.
func (s Settings) MaxSpeechSamples() int {
	return int(float64(s.SampleRate) * s.MaxSpeech.Seconds())
}

func envString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envFloat(key string, dst *float64) {
	if v, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
