package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Surya-blippi/Livio-sub001/captions"
	"github.com/Surya-blippi/Livio-sub001/compositor"
	"github.com/Surya-blippi/Livio-sub001/models"
	"github.com/Surya-blippi/Livio-sub001/processing"
	"github.com/Surya-blippi/Livio-sub001/render"
	"github.com/Surya-blippi/Livio-sub001/tasks"
	"github.com/Surya-blippi/Livio-sub001/timing"
	"golang.org/x/sync/errgroup"
)

// Pipeline-stage failure kinds, alongside the orchestrator's
// backend_error and timeout kinds.
const (
	failureValidation = "validation_error"
	failureGeneration = "generation_error"
	failureSynthesis  = "synthesis_error"
)

// HandlePlanGeneration processes tasks from QueueRenderPlan: it turns a
// topic-only job into a script plus scene list, then chains the job to
// the synthesis queue.
func (p *Processor) HandlePlanGeneration(ctx context.Context, payload string) error {
	var task tasks.PlanTaskPayload
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return err
	}

	log.Printf("Planning scenes for job %s", task.JobID)
	var job models.RenderJob
	if err := p.DB.First(&job, "id = ?", task.JobID).Error; err != nil {
		return err
	}
	if job.IsTerminal() {
		log.Printf("Job %s already %s, skipping plan", job.ID, job.Status)
		return nil
	}

	p.DB.Model(&job).Updates(map[string]interface{}{
		"status":           models.JobStatusProcessing,
		"progress_message": "Writing script",
	})

	script, scenes, err := processing.GeneratePlan(ctx, job.Topic)
	if err != nil {
		p.failJob(&job, failureGeneration, err.Error())
		return err
	}

	// Planned scenes carry no media yet; the avatar clip covers them all.
	// Visual vendors plug in here later without changing the pipeline.
	if job.FaceClipURL == "" {
		msg := "topic-based jobs require a face clip URL"
		p.failJob(&job, failureValidation, msg)
		return fmt.Errorf("%s (job %s)", msg, job.ID)
	}
	for i := range scenes {
		if scenes[i].AssetURL == "" {
			scenes[i].Type = models.SceneTypeFace
			scenes[i].AssetURL = job.FaceClipURL
		}
	}

	scenesJSON, err := json.Marshal(scenes)
	if err != nil {
		return err
	}
	if err := p.DB.Model(&job).Updates(map[string]interface{}{
		"script":      script,
		"scenes_json": string(scenesJSON),
	}).Error; err != nil {
		return err
	}
	log.Printf("Planned %d scenes for job %s", len(scenes), job.ID)

	if err := p.Enqueue(ctx, tasks.QueueRenderSubmit, tasks.SubmitTaskPayload{JobID: job.ID}); err != nil {
		p.failJob(&job, failureGeneration, "failed to queue synthesis: "+err.Error())
		return err
	}
	p.DB.Model(&job).Update("progress_message", "Queued for synthesis")
	return nil
}

// HandleRenderSubmit processes tasks from QueueRenderSubmit: narration
// synthesis, word alignment, timeline assembly, and driving the render
// backend to a terminal state.
func (p *Processor) HandleRenderSubmit(ctx context.Context, payload string) error {
	var task tasks.SubmitTaskPayload
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		return err
	}

	log.Printf("Submitting render for job %s", task.JobID)
	var job models.RenderJob
	if err := p.DB.First(&job, "id = ?", task.JobID).Error; err != nil {
		return err
	}
	if job.IsTerminal() {
		log.Printf("Job %s already %s, skipping render", job.ID, job.Status)
		return nil
	}

	var scenes []models.Scene
	if err := json.Unmarshal([]byte(job.ScenesJSON), &scenes); err != nil || len(scenes) == 0 {
		msg := "job has no usable scenes"
		p.failJob(&job, failureValidation, msg)
		return fmt.Errorf("%s (job %s)", msg, job.ID)
	}
	if job.Script == "" {
		msg := "job has no script"
		p.failJob(&job, failureValidation, msg)
		return fmt.Errorf("%s (job %s)", msg, job.ID)
	}

	p.DB.Model(&job).Updates(map[string]interface{}{
		"status":           models.JobStatusProcessing,
		"progress_message": "Synthesizing narration",
	})

	workDir := filepath.Join(p.WorkRoot, job.ID)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return err
	}

	// Narration synthesis and asset downloads are independent; run them
	// in parallel and fail the job on the first error.
	var speech synthesisResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := p.Speech.Synthesize(gctx, job.Script, workDir)
		if err != nil {
			return fmt.Errorf("narration synthesis failed: %w", err)
		}
		speech = synthesisResult{AudioPath: res.AudioPath, Duration: res.Duration}
		return nil
	})
	for i, scene := range scenes {
		url := scene.AssetURL
		if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
			continue
		}
		i, sceneType := i, scene.Type
		g.Go(func() error {
			ext := ".jpg"
			if sceneType == models.SceneTypeFace {
				ext = ".mp4"
			}
			local := filepath.Join(workDir, fmt.Sprintf("visual_%d%s", i, ext))
			if _, err := os.Stat(local); err == nil {
				return nil
			}
			if err := compositor.DownloadFile(gctx, url, local); err != nil {
				return fmt.Errorf("failed to fetch visual for scene %d: %w", i, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		p.failJob(&job, failureSynthesis, err.Error())
		return err
	}

	words := p.alignWords(ctx, &job, speech)
	timings := timing.Allocate(scenes, words)
	if len(timings) == 0 {
		msg := "no scenes received any word timings"
		p.failJob(&job, failureValidation, msg)
		return fmt.Errorf("%s (job %s)", msg, job.ID)
	}
	phrases := captions.Group(words, captions.DefaultWordsPerPhrase)

	tl := render.Timeline{
		JobID:         job.ID,
		SceneTimings:  timings,
		AudioURL:      speech.AudioPath,
		AudioDuration: speech.Duration,
		Phrases:       phrases,
		CaptionStyle:  job.CaptionStyle,
		MusicURL:      job.MusicURL,
		FPS:           compositor.VideoFPS,
	}

	handle, err := p.Backend.Submit(ctx, tl)
	if err != nil {
		p.failJob(&job, render.FailureBackend, err.Error())
		return err
	}

	orch := render.NewOrchestrator(p.Backend, NewGormJobStore(p.DB), p.RenderConfig)
	if err := orch.Await(ctx, job.ID, handle); err != nil {
		// Await already recorded the terminal state.
		return err
	}
	log.Printf("Completed render for job %s", job.ID)
	return nil
}

type synthesisResult struct {
	AudioPath string
	Duration  float64
}

// alignWords recovers word timings from the narration, preferring real
// transcription and falling back to the syllable estimator on any error.
func (p *Processor) alignWords(ctx context.Context, job *models.RenderJob, speech synthesisResult) []models.WordTiming {
	if p.Transcriber != nil {
		words, err := p.Transcriber.Transcribe(ctx, speech.AudioPath)
		if err == nil && len(words) > 0 {
			return words
		}
		log.Printf("Transcription unavailable for job %s, estimating timings: %v", job.ID, err)
	}
	return timing.Estimate(job.Script, speech.Duration)
}

// failJob records a terminal failure with its kind.
func (p *Processor) failJob(job *models.RenderJob, kind, message string) {
	log.Printf("Job %s failed (%s): %s", job.ID, kind, message)
	if err := p.DB.Model(job).Updates(map[string]interface{}{
		"status":           models.JobStatusFailed,
		"progress_message": "Render failed",
		"error":            message,
		"error_kind":       kind,
	}).Error; err != nil {
		log.Printf("Error marking job %s failed: %v", job.ID, err)
	}
}
