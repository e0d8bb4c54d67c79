package captions

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/Surya-blippi/Livio-sub001/models"
)

func wordStream(n int, step float64) []models.WordTiming {
	words := make([]models.WordTiming, n)
	for i := range words {
		words[i] = models.WordTiming{
			Word:  fmt.Sprintf("w%d", i),
			Start: float64(i) * step,
			End:   float64(i+1) * step,
		}
	}
	return words
}

func TestGroupPhraseCount(t *testing.T) {
	cases := []struct {
		words, perPhrase, want int
	}{
		{10, 4, 3},
		{8, 4, 2},
		{1, 4, 1},
		{0, 4, 0},
		{12, 3, 4},
	}
	for _, tc := range cases {
		phrases := Group(wordStream(tc.words, 0.25), tc.perPhrase)
		if len(phrases) != tc.want {
			t.Errorf("Group(%d words, %d per phrase) = %d phrases, want %d",
				tc.words, tc.perPhrase, len(phrases), tc.want)
		}
	}
}

func TestGroupWindows(t *testing.T) {
	words := wordStream(10, 0.25)
	phrases := Group(words, 4)

	for i, p := range phrases {
		if p.Start != p.Words[0].Start {
			t.Errorf("phrase %d start %f != first word start %f", i, p.Start, p.Words[0].Start)
		}
		if p.End != p.Words[len(p.Words)-1].End {
			t.Errorf("phrase %d end %f != last word end %f", i, p.End, p.Words[len(p.Words)-1].End)
		}
		if i > 0 && p.Start < phrases[i-1].End {
			t.Errorf("phrase %d overlaps previous: start %f < prev end %f", i, p.Start, phrases[i-1].End)
		}
	}
	if phrases[2].Text != "w8 w9" {
		t.Errorf("last phrase text = %q, want %q", phrases[2].Text, "w8 w9")
	}
}

func TestGroupDefaultSize(t *testing.T) {
	phrases := Group(wordStream(8, 0.25), 0)
	if len(phrases) != 2 {
		t.Fatalf("got %d phrases with default size, want 2", len(phrases))
	}
}

func TestActivePhrase(t *testing.T) {
	// Two phrases with a gap between them.
	phrases := []Phrase{
		{Start: 0, End: 1, Words: wordStream(4, 0.25)},
		{Start: 2, End: 3},
	}

	if p := ActivePhrase(phrases, 0.5); p == nil || p.Start != 0 {
		t.Fatalf("expected first phrase at t=0.5, got %+v", p)
	}
	if p := ActivePhrase(phrases, 1.5); p != nil {
		t.Fatalf("expected no phrase in the gap, got %+v", p)
	}
	// Windows are half-open: the exact end belongs to no phrase.
	if p := ActivePhrase(phrases, 1.0); p != nil {
		t.Fatalf("expected no phrase at first window's end, got %+v", p)
	}
	if p := ActivePhrase(phrases, 2.0); p == nil || p.Start != 2 {
		t.Fatalf("expected second phrase at its start, got %+v", p)
	}
}

func TestStateAtEntryRamp(t *testing.T) {
	phrases := Group(wordStream(4, 0.5), 4)
	fps := 30

	at := func(t float64) FrameState { return StateAt(phrases, t, fps) }

	start := at(0)
	if !start.Visible {
		t.Fatal("phrase not visible at its start")
	}
	if math.Abs(start.Scale-0.8) > 1e-9 || start.Opacity != 0 {
		t.Fatalf("at start: scale %f opacity %f, want 0.8 and 0", start.Scale, start.Opacity)
	}

	mid := at(2.5 / float64(fps)) // halfway through the 5-frame entry
	if math.Abs(mid.Scale-0.9) > 1e-9 || math.Abs(mid.Opacity-0.5) > 1e-9 {
		t.Fatalf("mid entry: scale %f opacity %f, want 0.9 and 0.5", mid.Scale, mid.Opacity)
	}

	settled := at(10.0 / float64(fps))
	if settled.Scale != 1.0 || settled.Opacity != 1.0 {
		t.Fatalf("after entry: scale %f opacity %f, want 1 and 1", settled.Scale, settled.Opacity)
	}
}

func TestStateAtHighlightsSpokenWord(t *testing.T) {
	phrases := Group(wordStream(4, 0.5), 4)

	if got := StateAt(phrases, 1.25, 30).HighlightIndex; got != 2 {
		t.Fatalf("highlight index at t=1.25 is %d, want 2", got)
	}
	if got := StateAt(phrases, 5.0, 30).HighlightIndex; got != -1 {
		t.Fatalf("highlight index outside all phrases is %d, want -1", got)
	}
}

func TestStyleByNameFallback(t *testing.T) {
	if got := StyleByName("no-such-style"); got.Name != DefaultStyleName {
		t.Fatalf("unknown style resolved to %q, want %q", got.Name, DefaultStyleName)
	}
	if got := StyleByName("  POP  "); got.Name != "pop" {
		t.Fatalf("style lookup not case/space tolerant: got %q", got.Name)
	}
	if got := StyleByName(""); got.Name != DefaultStyleName {
		t.Fatalf("empty style resolved to %q, want %q", got.Name, DefaultStyleName)
	}
}

func TestWriteASS(t *testing.T) {
	words := wordStream(6, 0.5)
	phrases := Group(words, 4)

	var sb strings.Builder
	if err := WriteASS(&sb, phrases, StyleByName("classic"), 1080, 1920, 30); err != nil {
		t.Fatal(err)
	}
	out := sb.String()

	if !strings.Contains(out, "PlayResX: 1080") || !strings.Contains(out, "PlayResY: 1920") {
		t.Error("resolution missing from script header")
	}
	if got := strings.Count(out, "Dialogue:"); got != len(words) {
		t.Errorf("got %d dialogue events, want one per word (%d)", got, len(words))
	}
	// Each phrase's first event carries the pop-in transform, timed as
	// entryFrames at the composition frame rate (5 frames at 30fps).
	if got := strings.Count(out, `\t(0,166,`); got != len(phrases) {
		t.Errorf("got %d pop transforms, want one per phrase (%d)", got, len(phrases))
	}
	if !strings.Contains(out, "0:00:00.00") {
		t.Error("first event does not start at zero")
	}

	// The entry duration follows the frame rate, not a fixed 30fps.
	var hi strings.Builder
	if err := WriteASS(&hi, phrases, StyleByName("classic"), 1080, 1920, 60); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(hi.String(), `\t(0,83,`) {
		t.Error("entry transition not derived from fps")
	}
}
