package worker

import (
	"github.com/Surya-blippi/Livio-sub001/models"
	"gorm.io/gorm"
)

// GormJobStore persists orchestrator updates on the render_jobs table.
// All writes are idempotent row updates, safe to repeat.
type GormJobStore struct {
	DB *gorm.DB
}

func NewGormJobStore(db *gorm.DB) *GormJobStore {
	return &GormJobStore{DB: db}
}

func (s *GormJobStore) UpdateProgress(jobID string, progress int, message string) error {
	return s.DB.Model(&models.RenderJob{}).Where("id = ?", jobID).Updates(map[string]interface{}{
		"status":           models.JobStatusProcessing,
		"progress":         progress,
		"progress_message": message,
	}).Error
}

func (s *GormJobStore) MarkCompleted(jobID string, videoURL string, durationSeconds float64) error {
	return s.DB.Model(&models.RenderJob{}).Where("id = ?", jobID).Updates(map[string]interface{}{
		"status":           models.JobStatusCompleted,
		"progress":         100,
		"progress_message": "Render complete",
		"video_url":        videoURL,
		"duration_seconds": durationSeconds,
	}).Error
}

func (s *GormJobStore) MarkFailed(jobID string, kind, message string) error {
	return s.DB.Model(&models.RenderJob{}).Where("id = ?", jobID).Updates(map[string]interface{}{
		"status":           models.JobStatusFailed,
		"progress_message": "Render failed",
		"error":            message,
		"error_kind":       kind,
	}).Error
}
