package processing

import (
	"strings"
	"testing"
)

func TestChunkShortInputReturnedVerbatim(t *testing.T) {
	text := "A short script that fits in one request."
	chunks := Chunk(text, DefaultMaxChunkChars)
	if len(chunks) != 1 || chunks[0] != text {
		t.Fatalf("expected [%q], got %v", text, chunks)
	}
}

func TestChunkEmptyInput(t *testing.T) {
	if got := Chunk("", 100); got != nil {
		t.Fatalf("expected nil for empty input, got %v", got)
	}
	if got := Chunk("   \n  ", 100); got != nil {
		t.Fatalf("expected nil for whitespace input, got %v", got)
	}
}

func TestChunkRoundTrip(t *testing.T) {
	sentence := "The quick brown fox jumps over the lazy dog near the river bank every single morning."
	text := strings.TrimSpace(strings.Repeat(sentence+" ", 8))

	for _, maxChars := range []int{40, 80, 120, 280} {
		chunks := Chunk(text, maxChars)
		if len(chunks) < 2 {
			t.Fatalf("maxChars=%d: expected multiple chunks for %d chars", maxChars, len(text))
		}
		for i, c := range chunks {
			if len(c) > maxChars {
				t.Errorf("maxChars=%d: chunk %d has %d chars: %q", maxChars, i, len(c), c)
			}
			if c != strings.TrimSpace(c) {
				t.Errorf("maxChars=%d: chunk %d not trimmed: %q", maxChars, i, c)
			}
		}
		if joined := strings.Join(chunks, " "); joined != text {
			t.Errorf("maxChars=%d: round trip lost text\nwant: %q\ngot:  %q", maxChars, text, joined)
		}
	}
}

func TestChunkPrefersSentenceBreak(t *testing.T) {
	// The sentence terminator sits past the halfway mark, so the chunker
	// must break there even though later commas and spaces exist.
	text := "First sentence ends right here. Second sentence keeps going with more words, and even a comma."
	chunks := Chunk(text, 56)
	if chunks[0] != "First sentence ends right here." {
		t.Fatalf("expected break at sentence terminator, got %q", chunks[0])
	}
}

func TestChunkFallsBackToComma(t *testing.T) {
	text := "no terminators in this stretch of words at all, but a comma appears here and the text runs on"
	chunks := Chunk(text, 60)
	if !strings.HasSuffix(chunks[0], ",") {
		t.Fatalf("expected first chunk to end at the comma, got %q", chunks[0])
	}
	if len(chunks[0]) > 60 {
		t.Fatalf("chunk exceeds limit: %d", len(chunks[0]))
	}
}

func TestChunkUnbreakableToken(t *testing.T) {
	token := strings.Repeat("x", 50)
	chunks := Chunk(token, 20)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 hard-cut chunks, got %d: %v", len(chunks), chunks)
	}
	if strings.Join(chunks, "") != token {
		t.Fatalf("hard cut dropped characters: %v", chunks)
	}
	for i, c := range chunks {
		if len(c) > 20 {
			t.Errorf("chunk %d exceeds limit: %d chars", i, len(c))
		}
	}
}

func TestChunkHardCutKeepsRunesIntact(t *testing.T) {
	token := strings.Repeat("ü", 30) // 2 bytes per rune
	chunks := Chunk(token, 21)
	for i, c := range chunks {
		if !strings.HasPrefix(c, "ü") || strings.ContainsRune(c, '�') {
			t.Fatalf("chunk %d split a rune: %q", i, c)
		}
	}
	if strings.Join(chunks, "") != token {
		t.Fatalf("hard cut dropped runes")
	}
}
