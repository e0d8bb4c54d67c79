package captions

import (
	"strings"

	"github.com/Surya-blippi/Livio-sub001/models"
)

// DefaultWordsPerPhrase is how many words share the screen at once.
const DefaultWordsPerPhrase = 4

// Animation entry transition: the phrase pops in over its first few frames.
const (
	entryFrames    = 5
	entryScaleFrom = 0.8
)

// Phrase is a run of consecutive words displayed together. Its window spans
// the first word's start to the last word's end; phrases never overlap and
// are derived per render, never persisted.
type Phrase struct {
	Words []models.WordTiming `json:"words"`
	Text  string              `json:"text"`
	Start float64             `json:"start"`
	End   float64             `json:"end"`
}

// Group chunks words into fixed-size phrases; the last one may be shorter.
func Group(words []models.WordTiming, wordsPerPhrase int) []Phrase {
	if wordsPerPhrase <= 0 {
		wordsPerPhrase = DefaultWordsPerPhrase
	}

	var phrases []Phrase
	for i := 0; i < len(words); i += wordsPerPhrase {
		end := i + wordsPerPhrase
		if end > len(words) {
			end = len(words)
		}
		run := words[i:end]

		parts := make([]string, len(run))
		for j, w := range run {
			parts[j] = w.Word
		}
		phrases = append(phrases, Phrase{
			Words: run,
			Text:  strings.Join(parts, " "),
			Start: run[0].Start,
			End:   run[len(run)-1].End,
		})
	}
	return phrases
}

// ActivePhrase returns the phrase whose window contains t, or nil. Gaps
// between phrase windows intentionally show no caption rather than holding
// the previous one.
func ActivePhrase(phrases []Phrase, t float64) *Phrase {
	for i := range phrases {
		if t >= phrases[i].Start && t < phrases[i].End {
			return &phrases[i]
		}
	}
	return nil
}

// FrameState is the per-frame animation state of the caption layer.
// HighlightIndex points at the word being spoken within the active phrase,
// or -1.
type FrameState struct {
	Visible        bool
	Scale          float64
	Opacity        float64
	HighlightIndex int
}

// StateAt samples the caption animation at time t. The active phrase ramps
// scale 0.8→1.0 and opacity 0→1 linearly over its first entryFrames frames;
// a linear ramp keeps the per-frame cost bounded.
func StateAt(phrases []Phrase, t float64, fps int) FrameState {
	p := ActivePhrase(phrases, t)
	if p == nil {
		return FrameState{HighlightIndex: -1}
	}

	progress := (t - p.Start) * float64(fps) / entryFrames
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}

	state := FrameState{
		Visible:        true,
		Scale:          entryScaleFrom + (1-entryScaleFrom)*progress,
		Opacity:        progress,
		HighlightIndex: -1,
	}
	for i, w := range p.Words {
		if t >= w.Start && t < w.End {
			state.HighlightIndex = i
			break
		}
	}
	return state
}
