package captions

import (
	"fmt"
	"io"
	"os"
)

// WriteASS renders phrases as an ASS subtitle stream for ffmpeg burn-in.
// Each phrase emits one dialogue event per word so the spoken word can be
// highlighted while the rest of the phrase stays in the primary color; the
// phrase pops in with a scale transform over its entry transition. fps is
// the composition frame rate the entry transition is timed against.
func WriteASS(w io.Writer, phrases []Phrase, style Style, playResX, playResY, fps int) error {
	if fps <= 0 {
		fps = 30
	}
	bold := 0
	if style.Bold {
		bold = -1
	}

	fmt.Fprintln(w, "[Script Info]")
	fmt.Fprintln(w, "ScriptType: v4.00+")
	fmt.Fprintf(w, "PlayResX: %d\n", playResX)
	fmt.Fprintf(w, "PlayResY: %d\n", playResY)
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "[V4+ Styles]")
	fmt.Fprintln(w, "Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding")

	// Captions sit at 40% from the bottom of the frame.
	marginV := playResY * 2 / 5
	fmt.Fprintf(w, "Style: Default,%s,%d,%s,%s,%s,&H00000000,%d,0,0,0,100,100,0,0,1,%d,0,2,40,40,%d,1\n",
		style.Font, style.FontSize, style.PrimaryColour, style.PrimaryColour, style.OutlineColour, bold, style.Outline, marginV)

	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "[Events]")
	fmt.Fprintln(w, "Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text")

	entryMs := entryFrames * 1000 / fps
	pop := fmt.Sprintf(`{\fscx%d\fscy%d\t(0,%d,\fscx100\fscy100)}`, int(entryScaleFrom*100), int(entryScaleFrom*100), entryMs)

	for _, phrase := range phrases {
		for wordIdx, word := range phrase.Words {
			start := word.Start
			end := word.End
			if wordIdx < len(phrase.Words)-1 {
				end = phrase.Words[wordIdx+1].Start
			}

			text := ""
			for i, pw := range phrase.Words {
				if i > 0 {
					text += " "
				}
				if i == wordIdx {
					text += fmt.Sprintf(`{\c%s&}%s{\c%s&}`, trimColor(style.HighlightColour), pw.Word, trimColor(style.PrimaryColour))
				} else {
					text += pw.Word
				}
			}
			// Only the first event of the phrase carries the pop transform.
			if wordIdx == 0 {
				text = pop + text
			}

			fmt.Fprintf(w, "Dialogue: 0,%s,%s,Default,,0,0,0,,%s\n",
				formatASSTimestamp(start), formatASSTimestamp(end), text)
		}
	}
	return nil
}

// WriteASSFile writes the ASS rendering of phrases to path.
func WriteASSFile(path string, phrases []Phrase, style Style, playResX, playResY, fps int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteASS(f, phrases, style, playResX, playResY, fps)
}

// trimColor strips the &H prefix's trailing delimiter usage in overrides:
// styles use "&H00FFFFFF", inline overrides use "&HFFFFFF&" without alpha.
func trimColor(assColor string) string {
	if len(assColor) == 10 && assColor[:2] == "&H" {
		return "&H" + assColor[4:]
	}
	return assColor
}

// formatASSTimestamp converts seconds to ASS timestamp format (h:mm:ss.cc).
func formatASSTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := int(seconds / 3600)
	minutes := int((seconds - float64(hours*3600)) / 60)
	secs := int(seconds) % 60
	centisecs := int((seconds - float64(int(seconds))) * 100)

	return fmt.Sprintf("%d:%02d:%02d.%02d", hours, minutes, secs, centisecs)
}
