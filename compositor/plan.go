package compositor

import (
	"math"

	"github.com/Surya-blippi/Livio-sub001/models"
)

// ScenePlan pins a scene's visual to an exact frame range in the output.
// Frame ranges are back-to-back: the visual track is cut by allotted scene
// duration, never directly by word timings, so jitter in the audio-side
// timings cannot open gaps or overlaps between visuals.
type ScenePlan struct {
	SceneIndex int          `json:"scene_index"`
	Scene      models.Scene `json:"scene"`
	StartTime  float64      `json:"start_time"`
	StartFrame int          `json:"start_frame"`
	Frames     int          `json:"frames"`
	Effect     Effect       `json:"effect"`
}

// Plan converts scene timings into contiguous frame ranges at the given
// frame rate. Boundaries are derived from cumulative scene durations, so
// rounding never drifts: the planned frames always sum to the rounded total
// composition length. Asset scenes get a Ken Burns effect chosen by scene
// index so consecutive stills visibly differ.
func Plan(timings []models.SceneTiming, fps int) []ScenePlan {
	plans := make([]ScenePlan, 0, len(timings))

	cumulative := 0.0
	prevBoundary := 0
	start := 0.0
	for i, st := range timings {
		cumulative += st.Duration()
		boundary := int(math.Round(cumulative * float64(fps)))
		frames := boundary - prevBoundary
		if frames < 1 {
			frames = 1
			boundary = prevBoundary + 1
		}

		plan := ScenePlan{
			SceneIndex: st.SceneIndex,
			Scene:      st.Scene,
			StartTime:  start,
			StartFrame: prevBoundary,
			Frames:     frames,
		}
		if st.Scene.Type != models.SceneTypeFace {
			plan.Effect = EffectForScene(i)
		}
		plans = append(plans, plan)

		prevBoundary = boundary
		start += st.Duration()
	}
	return plans
}

// TotalFrames is the length of the planned visual track.
func TotalFrames(plans []ScenePlan) int {
	total := 0
	for _, p := range plans {
		total += p.Frames
	}
	return total
}
