package processing

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxChunkChars matches the per-request character ceiling of the
// speech vendors in use (observed 280-300; the lower bound is used).
const DefaultMaxChunkChars = 280

// Chunk splits text into vendor-sized segments, looking backwards from the
// limit for a break point: the last sentence terminator past the halfway
// mark, else the last comma past the halfway mark, else the last space,
// else a hard cut. Chunks and the remainder are trimmed, so joining the
// returned chunks with single spaces reproduces the input. A single token
// longer than maxChars has no space to break at and is hard-cut; that is
// lossy at the word boundary but never drops text.
func Chunk(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChunkChars
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= maxChars {
		return []string{text}
	}

	var chunks []string
	remaining := text
	for len(remaining) > maxChars {
		cut := breakPoint(remaining[:maxChars], maxChars)
		// Never split a multi-byte rune on a hard cut.
		for cut > 0 && !utf8.RuneStart(remaining[cut]) {
			cut--
		}
		if cut == 0 {
			cut = maxChars
		}
		chunks = append(chunks, strings.TrimSpace(remaining[:cut]))
		remaining = strings.TrimSpace(remaining[cut:])
	}
	if remaining != "" {
		chunks = append(chunks, remaining)
	}
	return chunks
}

var sentenceTerminators = []string{". ", "! ", "? "}

// breakPoint returns the index to cut window at. Punctuation breaks keep
// the punctuation with the leading chunk; the space itself is consumed by
// trimming.
func breakPoint(window string, maxChars int) int {
	half := maxChars / 2

	best := -1
	for _, term := range sentenceTerminators {
		if idx := strings.LastIndex(window, term); idx > best {
			best = idx
		}
	}
	if best > half {
		return best + 1
	}

	if idx := strings.LastIndex(window, ", "); idx > half {
		return idx + 1
	}

	if idx := strings.LastIndex(window, " "); idx > 0 {
		return idx
	}

	return maxChars
}
