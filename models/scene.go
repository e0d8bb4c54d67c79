package models

// Scene visual kinds.
const (
	SceneTypeFace  = "face"
	SceneTypeAsset = "asset"
)

// Scene is one contiguous slice of the narration mapped to a visual: either
// a pre-rendered face/avatar clip or a still image. Scenes are ordered, and
// their Text fields space-joined must reconstruct the narration handed to
// speech synthesis; timing allocation slices the flat word-timing stream
// by each scene's word count.
type Scene struct {
	Text     string   `json:"text"`
	Type     string   `json:"type"`
	AssetURL string   `json:"asset_url,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
}

// WordTiming is one spoken word with its position in the audio, in seconds.
// Sequences are ordered, non-overlapping, with End > Start for every entry;
// the final End is the spoken-audio duration.
type WordTiming struct {
	Word  string  `json:"word"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// SceneTiming is a scene with its allotted slice of the word-timing stream.
// Computed once per render and immutable afterwards; both the compositor
// and the caption grouper read it, so visual cuts and caption cuts can
// never disagree about where a scene's narration starts.
type SceneTiming struct {
	SceneIndex  int          `json:"scene_index"`
	Scene       Scene        `json:"scene"`
	Text        string       `json:"text"`
	Keywords    []string     `json:"keywords,omitempty"`
	StartTime   float64      `json:"start_time"`
	EndTime     float64      `json:"end_time"`
	WordTimings []WordTiming `json:"word_timings"`
}

// Duration is the scene's allotted time in seconds.
func (st SceneTiming) Duration() float64 {
	return st.EndTime - st.StartTime
}
