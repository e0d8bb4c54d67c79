package compositor

// Effect is a deterministic Ken Burns pan/zoom applied to a still image.
// Zoom is the scale factor; pan values are the fraction of the pannable
// slack (0 = left/top edge, 1 = right/bottom edge). Parameters interpolate
// linearly across the scene's frames and clamp at the final value, with no
// overshoot past the end state.
type Effect struct {
	Name     string  `json:"name"`
	ZoomFrom float64 `json:"zoom_from"`
	ZoomTo   float64 `json:"zoom_to"`
	PanXFrom float64 `json:"pan_x_from"`
	PanXTo   float64 `json:"pan_x_to"`
	PanYFrom float64 `json:"pan_y_from"`
	PanYTo   float64 `json:"pan_y_to"`
}

var effects = []Effect{
	{Name: "zoom-in", ZoomFrom: 1.0, ZoomTo: 1.25, PanXFrom: 0.5, PanXTo: 0.5, PanYFrom: 0.5, PanYTo: 0.5},
	{Name: "zoom-out", ZoomFrom: 1.25, ZoomTo: 1.0, PanXFrom: 0.5, PanXTo: 0.5, PanYFrom: 0.5, PanYTo: 0.5},
	{Name: "pan-left", ZoomFrom: 1.15, ZoomTo: 1.15, PanXFrom: 1.0, PanXTo: 0.0, PanYFrom: 0.5, PanYTo: 0.5},
	{Name: "pan-right", ZoomFrom: 1.15, ZoomTo: 1.15, PanXFrom: 0.0, PanXTo: 1.0, PanYFrom: 0.5, PanYTo: 0.5},
	{Name: "zoom-pan", ZoomFrom: 1.0, ZoomTo: 1.3, PanXFrom: 0.0, PanXTo: 1.0, PanYFrom: 0.0, PanYTo: 0.5},
}

// NumEffects is the number of Ken Burns variants.
func NumEffects() int { return len(effects) }

// EffectForScene picks a variant by scene index, cycling through the table
// so consecutive asset scenes never repeat the same motion.
func EffectForScene(sceneIndex int) Effect {
	if sceneIndex < 0 {
		sceneIndex = -sceneIndex
	}
	return effects[sceneIndex%len(effects)]
}

// At evaluates the effect at a frame of a totalFrames-long scene, clamped
// to the boundary values.
func (e Effect) At(frame, totalFrames int) (zoom, panX, panY float64) {
	p := 0.0
	if totalFrames > 0 {
		p = float64(frame) / float64(totalFrames)
	}
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}
	zoom = e.ZoomFrom + (e.ZoomTo-e.ZoomFrom)*p
	panX = e.PanXFrom + (e.PanXTo-e.PanXFrom)*p
	panY = e.PanYFrom + (e.PanYTo-e.PanYFrom)*p
	return zoom, panX, panY
}
