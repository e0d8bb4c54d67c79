package tasks

import "encoding/json"

// ---
// QUEUE DEFINITIONS
// ---
// We define all queue names as constants here.
const (
	// QueueRenderPlan is the first step: turn a topic into a script and
	// scene list. Jobs created with explicit scenes skip this queue.
	QueueRenderPlan = "q_render_plan"

	// QueueRenderSubmit is the second step: synthesize narration, build
	// the timeline, and drive the render backend to completion.
	QueueRenderSubmit = "q_render_submit"
)

// ---
// TASK PAYLOADS
// ---
// These are the structs that will be JSON-marshalled and sent to Redis.

// PlanTaskPayload is the payload for QueueRenderPlan.
type PlanTaskPayload struct {
	JobID string `json:"job_id"`
}

// SubmitTaskPayload is the payload for QueueRenderSubmit.
type SubmitTaskPayload struct {
	JobID string `json:"job_id"`
}

// ---
// HELPER FUNCTIONS
// ---

// Marshal creates a JSON payload for a task.
func Marshal(payload interface{}) (string, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
