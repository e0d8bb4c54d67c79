package models

import (
	"time"
)

// Job lifecycle states. A terminal job always carries either a video URL
// (completed) or an error (failed), so callers are never left with an
// ambiguous stuck state.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// Backend-side render states, tracked separately from the public job status
// so the orchestrator can observe the backend without overwriting what the
// user sees.
const (
	BackendStateQueued    = "queued"
	BackendStateRendering = "rendering"
	BackendStateFinished  = "finished"
	BackendStateError     = "error"
)

// RenderJob is the persisted record for one end-to-end render. The public
// fields (status, progress, progress_message, video_url, error) are the
// shape returned by the status endpoint; the backend_* and scene counters
// belong to the in-process render backend.
type RenderJob struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	UserID          uint      `gorm:"index" json:"user_id"`
	RequestHash     string    `gorm:"size:64;index" json:"-"`
	Status          string    `gorm:"default:'pending'" json:"status"`
	Progress        int       `json:"progress"`
	ProgressMessage string    `gorm:"size:255" json:"progress_message"`
	VideoURL        string    `gorm:"size:512" json:"video_url,omitempty"`
	DurationSeconds float64   `json:"duration_seconds,omitempty"`
	Error           string    `gorm:"type:text" json:"error,omitempty"`
	ErrorKind       string    `gorm:"size:32" json:"error_kind,omitempty"`
	Topic           string    `gorm:"size:512" json:"-"`
	CaptionStyle    string    `gorm:"size:32" json:"-"`
	MusicURL        string    `gorm:"size:512" json:"-"`
	FaceClipURL     string    `gorm:"size:512" json:"-"`
	Script          string    `gorm:"type:text" json:"-"`
	ScenesJSON      string    `gorm:"type:text" json:"-"`
	TimelineJSON    string    `gorm:"type:text" json:"-"`
	BackendHandle   string    `gorm:"size:128" json:"-"`
	BackendState    string    `gorm:"size:32" json:"-"`
	BackendError    string    `gorm:"type:text" json:"-"`
	OutputURL       string    `gorm:"size:512" json:"-"`
	SceneCount      int       `json:"-"`
	ScenesDone      int       `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (RenderJob) TableName() string {
	return "render_jobs"
}

// IsTerminal reports whether the job reached a final state.
func (j *RenderJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
