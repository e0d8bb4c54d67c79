package render

import (
	"context"

	"github.com/Surya-blippi/Livio-sub001/captions"
	"github.com/Surya-blippi/Livio-sub001/models"
)

// Timeline is the complete composition request handed to a render backend:
// ordered, timed scenes, the narration audio, and the caption layer.
type Timeline struct {
	JobID         string               `json:"job_id"`
	SceneTimings  []models.SceneTiming `json:"scene_timings"`
	AudioURL      string               `json:"audio_url"`
	AudioDuration float64              `json:"audio_duration"`
	Phrases       []captions.Phrase    `json:"phrases"`
	CaptionStyle  string               `json:"caption_style"`
	MusicURL      string               `json:"music_url,omitempty"`
	FPS           int                  `json:"fps"`
}

// Progress is what a backend reports when polled. Fraction is the
// backend's own 0..1 scale before the orchestrator's remap. A fatal error
// arrives here as data, not as the Poll error. Poll errors mean the poll
// itself failed (network, timeout) and are retried as transient.
type Progress struct {
	Done            bool    `json:"done"`
	Fraction        float64 `json:"fraction"`
	OutputURL       string  `json:"output_url,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	FatalError      string  `json:"fatal_error,omitempty"`
}

// Backend abstracts the render service behind submit/poll/trigger.
//
// Trigger exists for cooperative backends that only advance when nudged.
// Implementations must make it idempotent: a call while a step is already
// running is a safe no-op, and a processing lock left behind by a dead
// worker is broken once it passes the staleness threshold rather than
// wedging the job.
type Backend interface {
	Submit(ctx context.Context, tl Timeline) (handle string, err error)
	Poll(ctx context.Context, handle string) (Progress, error)
	Trigger(ctx context.Context, handle string) error
}

// JobStore is the external persistence collaborator for job state.
// Updates are at-least-once and idempotent: writing the same progress
// twice is harmless.
type JobStore interface {
	UpdateProgress(jobID string, progress int, message string) error
	MarkCompleted(jobID string, videoURL string, durationSeconds float64) error
	MarkFailed(jobID string, kind, message string) error
}

// Failure kinds recorded on the job, distinguishable by callers.
const (
	FailureBackend = "backend_error"
	FailureTimeout = "timeout"
)
