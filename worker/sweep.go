package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/Surya-blippi/Livio-sub001/models"
	"github.com/Surya-blippi/Livio-sub001/render"
	"gorm.io/gorm"
)

const defaultSweepBatch = 50

// Sweeper is the scheduler's safety net behind the orchestrator. Each run
// nudges in-flight renders forward, promotes jobs whose backend reached a
// terminal state while no orchestrator was alive to record it, and fails
// jobs that stopped moving entirely. Every pass is idempotent, so sweeping
// a healthy job that an orchestrator is still driving is harmless.
type Sweeper struct {
	DB         *gorm.DB
	Backend    render.Backend
	Store      render.JobStore
	JobTimeout time.Duration
	Batch      int
}

func NewSweeper(db *gorm.DB, backend render.Backend) *Sweeper {
	return &Sweeper{
		DB:         db,
		Backend:    backend,
		Store:      NewGormJobStore(db),
		JobTimeout: render.DefaultConfig().JobTimeout,
		Batch:      defaultSweepBatch,
	}
}

func (s *Sweeper) Run(ctx context.Context) {
	s.triggerInFlight(ctx)
	s.promoteOrphans()
	s.failStalled()
}

// triggerInFlight re-triggers every submitted, non-terminal job.
func (s *Sweeper) triggerInFlight(ctx context.Context) {
	var jobs []models.RenderJob
	err := s.DB.Where("status = ? AND backend_handle <> ''", models.JobStatusProcessing).
		Where("backend_state NOT IN ?", []string{models.BackendStateFinished, models.BackendStateError}).
		Order("updated_at asc").
		Limit(s.Batch).
		Find(&jobs).Error
	if err != nil {
		log.Printf("Error querying in-flight renders: %v", err)
		return
	}
	if len(jobs) == 0 {
		return
	}

	log.Printf("Sweeping %d in-flight render(s)", len(jobs))
	for _, job := range jobs {
		tctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		if err := s.Backend.Trigger(tctx, job.BackendHandle); err != nil {
			log.Printf("Sweep trigger failed for job %s: %v", job.ID, err)
		}
		cancel()
	}
}

// promoteOrphans finds jobs whose backend is terminal but whose public
// status is still processing. That happens when the orchestrator that was
// awaiting the job died; the trigger sweep keeps the backend stepping, so
// someone has to write the terminal state the job is owed.
func (s *Sweeper) promoteOrphans() {
	var jobs []models.RenderJob
	err := s.DB.Where("status = ? AND backend_state IN ?", models.JobStatusProcessing,
		[]string{models.BackendStateFinished, models.BackendStateError}).
		Limit(s.Batch).
		Find(&jobs).Error
	if err != nil {
		log.Printf("Error querying orphaned renders: %v", err)
		return
	}
	s.resolveOrphans(jobs)
}

func (s *Sweeper) resolveOrphans(jobs []models.RenderJob) {
	for _, job := range jobs {
		switch job.BackendState {
		case models.BackendStateFinished:
			if job.OutputURL == "" {
				if err := s.Store.MarkFailed(job.ID, render.FailureBackend, "backend finished without an output URL"); err != nil {
					log.Printf("Error failing orphaned job %s: %v", job.ID, err)
				}
				continue
			}
			if err := s.Store.MarkCompleted(job.ID, job.OutputURL, job.DurationSeconds); err != nil {
				log.Printf("Error completing orphaned job %s: %v", job.ID, err)
				continue
			}
			log.Printf("Promoted orphaned job %s to completed", job.ID)
		case models.BackendStateError:
			msg := job.BackendError
			if msg == "" {
				msg = "render failed"
			}
			if err := s.Store.MarkFailed(job.ID, render.FailureBackend, msg); err != nil {
				log.Printf("Error failing orphaned job %s: %v", job.ID, err)
			}
		}
	}
}

// failStalled fails processing jobs that have not moved within the job
// timeout. Progress writes and backend scene steps both touch updated_at,
// so a row this old has no live orchestrator and no advancing backend
// behind it.
func (s *Sweeper) failStalled() {
	timeout := s.JobTimeout
	if timeout <= 0 {
		timeout = render.DefaultConfig().JobTimeout
	}
	cutoff := time.Now().Add(-timeout)

	var jobs []models.RenderJob
	err := s.DB.Where("status = ? AND updated_at < ?", models.JobStatusProcessing, cutoff).
		Limit(s.Batch).
		Find(&jobs).Error
	if err != nil {
		log.Printf("Error querying stalled renders: %v", err)
		return
	}
	for _, job := range jobs {
		msg := fmt.Sprintf("render did not finish within %s", timeout)
		if err := s.Store.MarkFailed(job.ID, render.FailureTimeout, msg); err != nil {
			log.Printf("Error failing stalled job %s: %v", job.ID, err)
			continue
		}
		log.Printf("Failed stalled job %s (no movement since %s)", job.ID, job.UpdatedAt.Format(time.RFC3339))
	}
}
