package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Surya-blippi/Livio-sub001/models"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Transcriber recovers word-level timings from narration audio. Callers
// fall back to the syllable estimator when transcription fails, so
// implementations should return errors rather than guess.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]models.WordTiming, error)
}

// WhisperTranscriber asks the OpenAI audio API for word timestamps.
type WhisperTranscriber struct {
	client openai.Client
}

func NewWhisperTranscriber() (*WhisperTranscriber, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	return &WhisperTranscriber{client: openai.NewClient(option.WithAPIKey(apiKey))}, nil
}

func (t *WhisperTranscriber) Transcribe(ctx context.Context, audioPath string) ([]models.WordTiming, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio: %w", err)
	}
	defer f.Close()

	resp, err := t.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:                   f,
		Model:                  openai.AudioModelWhisper1,
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"word"},
	})
	if err != nil {
		return nil, fmt.Errorf("transcription request failed: %w", err)
	}

	// The typed Transcription struct only carries the text; word-level
	// timestamps live in the verbose_json payload, so decode the raw body.
	return wordsFromVerboseTranscription([]byte(resp.RawJSON()))
}

func wordsFromVerboseTranscription(raw []byte) ([]models.WordTiming, error) {
	var verbose struct {
		Words []struct {
			Word  string  `json:"word"`
			Start float64 `json:"start"`
			End   float64 `json:"end"`
		} `json:"words"`
	}
	if err := json.Unmarshal(raw, &verbose); err != nil {
		return nil, fmt.Errorf("failed to decode transcription payload: %w", err)
	}
	if len(verbose.Words) == 0 {
		return nil, fmt.Errorf("transcription returned no word timestamps")
	}

	words := make([]models.WordTiming, 0, len(verbose.Words))
	for _, w := range verbose.Words {
		words = append(words, models.WordTiming{
			Word:  w.Word,
			Start: w.Start,
			End:   w.End,
		})
	}
	return words, nil
}
