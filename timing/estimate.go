package timing

import (
	"regexp"
	"strings"

	"github.com/Surya-blippi/Livio-sub001/models"
)

// defaultSyllablesPerSecond approximates a conversational speaking rate,
// used when the real audio duration is unknown.
const defaultSyllablesPerSecond = 3.5

var (
	vowelGroupRe = regexp.MustCompile(`[aeiouy]+`)
	nonLetterRe  = regexp.MustCompile(`[^a-z]`)
)

// Estimate produces approximate word timings from text alone, the fallback
// when exact transcription is unavailable. Output is contiguous (each word
// starts where the previous ended) and monotonic, one entry per
// whitespace-separated word. When totalDuration > 0 the last word's end is
// pinned to it exactly.
func Estimate(text string, totalDuration float64) []models.WordTiming {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	syllables := make([]int, len(words))
	total := 0
	for i, w := range words {
		syllables[i] = SyllableCount(w)
		total += syllables[i]
	}

	secondsPerSyllable := 1.0 / defaultSyllablesPerSecond
	if totalDuration > 0 {
		secondsPerSyllable = totalDuration / float64(total)
	}

	timings := make([]models.WordTiming, len(words))
	cursor := 0.0
	for i, w := range words {
		end := cursor + float64(syllables[i])*secondsPerSyllable
		timings[i] = models.WordTiming{Word: w, Start: cursor, End: end}
		cursor = end
	}
	if totalDuration > 0 {
		timings[len(timings)-1].End = totalDuration
	}
	return timings
}

// SyllableCount estimates syllables by counting vowel-group runs. Words of
// one or two letters count as one syllable; all-consonant tokens (e.g.
// spelled-out abbreviations) fall back to one syllable per three letters.
func SyllableCount(word string) int {
	w := nonLetterRe.ReplaceAllString(strings.ToLower(word), "")
	if len(w) <= 2 {
		return 1
	}
	groups := len(vowelGroupRe.FindAllString(w, -1))
	if groups == 0 {
		groups = len(w) / 3
	}
	if groups < 1 {
		groups = 1
	}
	return groups
}
