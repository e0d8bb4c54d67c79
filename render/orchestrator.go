package render

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"
)

// Displayed-progress band reserved for the backend. The backend reports
// its own 0..1 fraction; the orchestrator maps that into [10, 95] so the
// 0-10 and 95-100 stretches remain available for "queued" and "finalizing"
// states the backend never reports. The band is part of the user-visible
// contract; clients key off these numbers.
const (
	ProgressFloor = 10
	ProgressCeil  = 95
)

// Config groups the orchestrator's cadence knobs in one place: the
// status-poll interval, the strictly separate work-trigger interval, and
// the call/job time budgets.
type Config struct {
	PollInterval    time.Duration
	TriggerInterval time.Duration
	CallTimeout     time.Duration
	JobTimeout      time.Duration
	MaxCallRetries  int
	RetryBackoff    time.Duration
}

// DefaultConfig returns the production cadence.
func DefaultConfig() Config {
	return Config{
		PollInterval:    2 * time.Second,
		TriggerInterval: 5 * time.Second,
		CallTimeout:     15 * time.Second,
		JobTimeout:      10 * time.Minute,
		MaxCallRetries:  3,
		RetryBackoff:    time.Second,
	}
}

// Orchestrator drives one submitted render job to a terminal state. One
// caller per job; jobs share nothing in-process, so any number can run
// side by side.
type Orchestrator struct {
	Backend Backend
	Store   JobStore
	Config  Config
}

func NewOrchestrator(backend Backend, store JobStore, cfg Config) *Orchestrator {
	return &Orchestrator{Backend: backend, Store: store, Config: cfg}
}

// DisplayProgress maps a backend fraction onto the job's 0-100 scale.
func DisplayProgress(fraction float64) int {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return ProgressFloor + int(math.Round(fraction*float64(ProgressCeil-ProgressFloor)))
}

// Await polls the backend until the job completes, fails, or exceeds the
// wall-clock budget. Triggering runs on its own interval so a cooperative
// backend keeps stepping even when polls are slow. Poll responses may
// arrive stale or out of order; displayed progress only ever moves
// forward, whatever the backend's numbers do.
func (o *Orchestrator) Await(ctx context.Context, jobID, handle string) error {
	deadline := time.Now().Add(o.Config.JobTimeout)

	pollTicker := time.NewTicker(o.Config.PollInterval)
	defer pollTicker.Stop()
	triggerTicker := time.NewTicker(o.Config.TriggerInterval)
	defer triggerTicker.Stop()

	best := ProgressFloor
	if err := o.Store.UpdateProgress(jobID, best, "rendering"); err != nil {
		log.Printf("Error writing initial progress for job %s: %v", jobID, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-triggerTicker.C:
			// Trigger failures are not terminal; the next tick retries.
			tctx, cancel := context.WithTimeout(ctx, o.Config.CallTimeout)
			if err := o.Backend.Trigger(tctx, handle); err != nil {
				log.Printf("Trigger failed for job %s: %v", jobID, err)
			}
			cancel()

		case <-pollTicker.C:
			if time.Now().After(deadline) {
				msg := fmt.Sprintf("render did not finish within %s", o.Config.JobTimeout)
				if err := o.Store.MarkFailed(jobID, FailureTimeout, msg); err != nil {
					log.Printf("Error marking job %s timed out: %v", jobID, err)
				}
				return errors.New(msg)
			}

			progress, err := o.pollWithRetry(ctx, handle)
			if err != nil {
				if err := o.Store.MarkFailed(jobID, FailureBackend, err.Error()); err != nil {
					log.Printf("Error marking job %s failed: %v", jobID, err)
				}
				return err
			}

			if progress.FatalError != "" {
				// Preserve the backend's error content verbatim.
				if err := o.Store.MarkFailed(jobID, FailureBackend, progress.FatalError); err != nil {
					log.Printf("Error marking job %s failed: %v", jobID, err)
				}
				return errors.New(progress.FatalError)
			}

			if progress.Done {
				if progress.OutputURL == "" {
					msg := "backend reported done without an output URL"
					if err := o.Store.MarkFailed(jobID, FailureBackend, msg); err != nil {
						log.Printf("Error marking job %s failed: %v", jobID, err)
					}
					return errors.New(msg)
				}
				if err := o.Store.MarkCompleted(jobID, progress.OutputURL, progress.DurationSeconds); err != nil {
					return fmt.Errorf("failed to persist completed job %s: %w", jobID, err)
				}
				return nil
			}

			if p := DisplayProgress(progress.Fraction); p > best {
				best = p
			}
			if err := o.Store.UpdateProgress(jobID, best, fmt.Sprintf("rendering (%d%%)", best)); err != nil {
				log.Printf("Error writing progress for job %s: %v", jobID, err)
			}
		}
	}
}

// pollWithRetry retries transient poll failures with doubling backoff
// before escalating to a job-level failure. Backend-reported fatal errors
// come back as Progress data and are never retried here.
func (o *Orchestrator) pollWithRetry(ctx context.Context, handle string) (Progress, error) {
	attempts := o.Config.MaxCallRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	backoff := o.Config.RetryBackoff
	for attempt := 1; attempt <= attempts; attempt++ {
		cctx, cancel := context.WithTimeout(ctx, o.Config.CallTimeout)
		progress, err := o.Backend.Poll(cctx, handle)
		cancel()
		if err == nil {
			return progress, nil
		}
		lastErr = err
		if attempt < attempts {
			log.Printf("Poll attempt %d/%d failed: %v", attempt, attempts, err)
			select {
			case <-ctx.Done():
				return Progress{}, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}
	return Progress{}, fmt.Errorf("poll failed after %d attempts: %w", attempts, lastErr)
}
