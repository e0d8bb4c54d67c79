package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/Surya-blippi/Livio-sub001/models"
)

type fakeTranscriber struct {
	words []models.WordTiming
	err   error
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) ([]models.WordTiming, error) {
	return f.words, f.err
}

func TestAlignWordsPrefersTranscription(t *testing.T) {
	transcribed := []models.WordTiming{
		{Word: "hello", Start: 0, End: 0.4},
		{Word: "world", Start: 0.4, End: 0.9},
	}
	p := &Processor{Transcriber: &fakeTranscriber{words: transcribed}}
	job := &models.RenderJob{ID: "job-1", Script: "hello world"}

	words := p.alignWords(context.Background(), job, synthesisResult{AudioPath: "a.mp3", Duration: 0.9})
	if len(words) != 2 || words[0].Word != "hello" || words[1].End != 0.9 {
		t.Fatalf("expected transcribed timings, got %v", words)
	}
}

func TestAlignWordsFallsBackToEstimator(t *testing.T) {
	p := &Processor{Transcriber: &fakeTranscriber{err: errors.New("whisper unavailable")}}
	job := &models.RenderJob{ID: "job-1", Script: "hello wonderful world"}

	words := p.alignWords(context.Background(), job, synthesisResult{AudioPath: "a.mp3", Duration: 3})
	if len(words) != 3 {
		t.Fatalf("expected 3 estimated words, got %d", len(words))
	}
	if last := words[2].End; last != 3 {
		t.Fatalf("estimated timings end at %f, want 3", last)
	}
}

func TestAlignWordsWithoutTranscriber(t *testing.T) {
	p := &Processor{}
	job := &models.RenderJob{ID: "job-1", Script: "one two"}

	words := p.alignWords(context.Background(), job, synthesisResult{Duration: 1})
	if len(words) != 2 {
		t.Fatalf("expected estimator output, got %v", words)
	}
}
