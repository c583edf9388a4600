package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"kiosk/pkg/audioconv"
)

// OpenAISynth synthesizes speech through the OpenAI audio API and
// plays the returned MP3 locally.
type OpenAISynth struct {
	client openai.Client
	player *Player
	voice  openai.AudioSpeechNewParamsVoice
}

func NewOpenAISynth(apiKey string, httpClient *http.Client, player *Player) *OpenAISynth {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &OpenAISynth{
		client: openai.NewClient(opts...),
		player: player,
		voice:  openai.AudioSpeechNewParamsVoiceAlloy,
	}
}

func (s *OpenAISynth) SynthesizeAndPlay(ctx context.Context, text string) error {
	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          openai.SpeechModelGPT4oMiniTTS,
		Voice:          s.voice,
		Input:          text,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read synthesized audio: %w", err)
	}

	pcm, err := audioconv.DecodeBytes(data)
	if err != nil {
		return fmt.Errorf("decode synthesized audio: %w", err)
	}
	return s.player.Play(ctx, pcm)
}
