package timing

import (
	"log"
	"strings"

	"github.com/Surya-blippi/Livio-sub001/models"
)

// Allocate partitions a flat word-timing stream into per-scene time ranges
// by consuming each scene's word count in order.
//
// The word counts come from the scene texts themselves, so a synthesis
// vendor that drops or merges words leaves the stream shorter than
// expected. That is a recoverable mismatch, not a crash: the last slice is
// clamped to whatever remains and scenes past the end are dropped with a
// warning. Adjacent SceneTimings may overlap slightly when upstream timings
// jitter; consumers must take the ranges verbatim and not assume strict
// ordering between a scene's end and the next scene's start.
func Allocate(scenes []models.Scene, words []models.WordTiming) []models.SceneTiming {
	var out []models.SceneTiming
	cursor := 0
	for i, scene := range scenes {
		expected := len(strings.Fields(scene.Text))
		if expected == 0 {
			continue
		}
		if cursor >= len(words) {
			log.Printf("Word timings exhausted at scene %d of %d; dropping remaining scenes", i, len(scenes))
			break
		}

		end := cursor + expected
		if end > len(words) {
			log.Printf("Word timings ran short for scene %d: wanted %d words, got %d", i, expected, len(words)-cursor)
			end = len(words)
		}

		slice := words[cursor:end]
		out = append(out, models.SceneTiming{
			SceneIndex:  i,
			Scene:       scene,
			Text:        scene.Text,
			Keywords:    scene.Keywords,
			StartTime:   slice[0].Start,
			EndTime:     slice[len(slice)-1].End,
			WordTimings: slice,
		})
		cursor = end
	}
	return out
}
