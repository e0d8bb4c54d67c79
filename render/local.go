package render

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Surya-blippi/Livio-sub001/captions"
	"github.com/Surya-blippi/Livio-sub001/compositor"
	"github.com/Surya-blippi/Livio-sub001/models"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// DefaultStaleness is how long a processing lock may live before it is
// considered abandoned and eligible to be broken by the next trigger.
const DefaultStaleness = 2 * time.Minute

// Uploader publishes a finished render and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}

// LocalBackend renders timelines in-process with ffmpeg, one scene per
// Trigger call. It is a cooperative backend: nothing advances unless the
// orchestrator or the scheduler sweep nudges it. A redis SetNX lock keyed
// by job id makes redundant triggers no-ops, and the lock's TTL doubles as
// the staleness threshold, so a lock orphaned by a dead worker expires
// instead of wedging the job.
type LocalBackend struct {
	DB        *gorm.DB
	Redis     *redis.Client
	Uploader  Uploader // nil leaves the output on local disk
	WorkRoot  string
	Staleness time.Duration
}

func NewLocalBackend(db *gorm.DB, rdb *redis.Client, uploader Uploader, workRoot string) *LocalBackend {
	return &LocalBackend{
		DB:        db,
		Redis:     rdb,
		Uploader:  uploader,
		WorkRoot:  workRoot,
		Staleness: DefaultStaleness,
	}
}

// Submit stores the timeline on the job record and returns the job id as
// the backend handle. Submitting the same timeline again just rewrites the
// same state, so duplicate submissions are harmless.
func (b *LocalBackend) Submit(ctx context.Context, tl Timeline) (string, error) {
	payload, err := json.Marshal(tl)
	if err != nil {
		return "", fmt.Errorf("failed to encode timeline: %w", err)
	}

	updates := map[string]interface{}{
		"timeline_json":  string(payload),
		"scene_count":    len(tl.SceneTimings),
		"backend_state":  models.BackendStateQueued,
		"backend_handle": tl.JobID,
	}
	if err := b.DB.Model(&models.RenderJob{}).Where("id = ?", tl.JobID).Updates(updates).Error; err != nil {
		return "", fmt.Errorf("failed to store timeline for job %s: %w", tl.JobID, err)
	}
	return tl.JobID, nil
}

// Poll reports the backend's own view of the job: scenes done over scene
// count, plus terminal state and output URL once finished.
func (b *LocalBackend) Poll(ctx context.Context, handle string) (Progress, error) {
	var job models.RenderJob
	if err := b.DB.WithContext(ctx).First(&job, "id = ?", handle).Error; err != nil {
		return Progress{}, fmt.Errorf("unknown render handle %s: %w", handle, err)
	}

	progress := Progress{}
	if job.SceneCount > 0 {
		progress.Fraction = float64(job.ScenesDone) / float64(job.SceneCount)
	}
	switch job.BackendState {
	case models.BackendStateFinished:
		progress.Done = true
		progress.Fraction = 1
		progress.OutputURL = job.OutputURL
		progress.DurationSeconds = job.DurationSeconds
	case models.BackendStateError:
		progress.FatalError = job.BackendError
	}
	return progress, nil
}

// Trigger advances the job by at most one scene. Concurrent and redundant
// calls are safe: whoever loses the lock race does nothing.
func (b *LocalBackend) Trigger(ctx context.Context, handle string) error {
	staleness := b.Staleness
	if staleness <= 0 {
		staleness = DefaultStaleness
	}

	lockKey := "render:lock:" + handle
	acquired, err := b.Redis.SetNX(ctx, lockKey, time.Now().Format(time.RFC3339), staleness).Result()
	if err != nil {
		return fmt.Errorf("failed to acquire render lock for %s: %w", handle, err)
	}
	if !acquired {
		// Another worker holds the step; this nudge is a no-op.
		return nil
	}
	defer b.Redis.Del(context.Background(), lockKey)

	return b.step(ctx, handle)
}

// step renders the next pending scene, or finalizes when all scenes are
// rendered. Render failures land in the backend error state so the next
// poll surfaces them; they never panic the worker.
func (b *LocalBackend) step(ctx context.Context, handle string) error {
	var job models.RenderJob
	if err := b.DB.WithContext(ctx).First(&job, "id = ?", handle).Error; err != nil {
		return fmt.Errorf("unknown render handle %s: %w", handle, err)
	}
	if job.BackendState == models.BackendStateFinished || job.BackendState == models.BackendStateError {
		return nil
	}

	var tl Timeline
	if err := json.Unmarshal([]byte(job.TimelineJSON), &tl); err != nil {
		return b.fail(&job, fmt.Sprintf("corrupt timeline: %v", err))
	}

	workDir := filepath.Join(b.WorkRoot, job.ID)
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return b.fail(&job, fmt.Sprintf("failed to create work dir: %v", err))
	}
	comp := compositor.New(workDir)

	fps := tl.FPS
	if fps <= 0 {
		fps = compositor.VideoFPS
	}
	comp.FPS = fps
	plans := compositor.Plan(tl.SceneTimings, fps)
	if len(plans) == 0 {
		return b.fail(&job, "timeline has no renderable scenes")
	}

	audioPath, err := b.localAudio(ctx, comp, &tl)
	if err != nil {
		return b.fail(&job, fmt.Sprintf("failed to fetch narration audio: %v", err))
	}

	if job.ScenesDone < len(plans) {
		idx := job.ScenesDone
		outPath := comp.TempFile(fmt.Sprintf("scene_%03d.mp4", idx))
		log.Printf("Rendering scene %d/%d for job %s", idx+1, len(plans), job.ID)
		if err := comp.RenderScene(ctx, plans[idx], tl.SceneTimings[idx], audioPath, outPath); err != nil {
			return b.fail(&job, err.Error())
		}
		job.ScenesDone = idx + 1
		updates := map[string]interface{}{
			"scenes_done":   job.ScenesDone,
			"backend_state": models.BackendStateRendering,
		}
		if err := b.DB.Model(&job).Updates(updates).Error; err != nil {
			return err
		}
	}

	if job.ScenesDone < len(plans) {
		return nil
	}
	return b.finalize(ctx, &job, comp, &tl, plans)
}

// finalize concatenates the scene renders, burns captions, mixes music,
// and publishes the result.
func (b *LocalBackend) finalize(ctx context.Context, job *models.RenderJob, comp *compositor.Compositor, tl *Timeline, plans []compositor.ScenePlan) error {
	log.Printf("Finalizing render for job %s (%d scenes)", job.ID, len(plans))

	paths := make([]string, len(plans))
	for i := range plans {
		paths[i] = comp.TempFile(fmt.Sprintf("scene_%03d.mp4", i))
	}

	assembled := comp.TempFile("assembled.mp4")
	if err := comp.Concat(paths, assembled); err != nil {
		return b.fail(job, err.Error())
	}

	current := assembled
	if len(tl.Phrases) > 0 {
		assPath := comp.TempFile("captions.ass")
		style := captions.StyleByName(tl.CaptionStyle)
		if err := captions.WriteASSFile(assPath, tl.Phrases, style, comp.Width, comp.Height, comp.FPS); err != nil {
			return b.fail(job, fmt.Sprintf("failed to write captions: %v", err))
		}
		captioned := comp.TempFile("captioned.mp4")
		if err := comp.BurnCaptions(current, assPath, captioned); err != nil {
			return b.fail(job, err.Error())
		}
		current = captioned
	}

	if tl.MusicURL != "" {
		musicPath := tl.MusicURL
		if strings.HasPrefix(musicPath, "http://") || strings.HasPrefix(musicPath, "https://") {
			musicPath = comp.TempFile("music.mp3")
			if err := compositor.DownloadFile(ctx, tl.MusicURL, musicPath); err != nil {
				// Music is decorative; render without it rather than failing.
				log.Printf("Music download failed for job %s, continuing without: %v", job.ID, err)
				musicPath = ""
			}
		}
		if musicPath != "" {
			withMusic := comp.TempFile("with_music.mp4")
			if err := comp.MixMusic(current, musicPath, withMusic); err != nil {
				log.Printf("Music mix failed for job %s, continuing without: %v", job.ID, err)
			} else {
				current = withMusic
			}
		}
	}

	outputURL := "file://" + current
	if b.Uploader != nil {
		key := fmt.Sprintf("renders/%s.mp4", job.ID)
		url, err := b.Uploader.Upload(ctx, current, key)
		if err != nil {
			return b.fail(job, fmt.Sprintf("failed to publish render: %v", err))
		}
		outputURL = url
	}

	duration := tl.AudioDuration
	if probed, err := compositor.ProbeDuration(current); err == nil {
		duration = probed
	}

	updates := map[string]interface{}{
		"backend_state":    models.BackendStateFinished,
		"output_url":       outputURL,
		"duration_seconds": duration,
	}
	return b.DB.Model(job).Updates(updates).Error
}

// localAudio resolves the narration audio to a local file, downloading it
// once per job.
func (b *LocalBackend) localAudio(ctx context.Context, comp *compositor.Compositor, tl *Timeline) (string, error) {
	if !strings.HasPrefix(tl.AudioURL, "http://") && !strings.HasPrefix(tl.AudioURL, "https://") {
		return tl.AudioURL, nil
	}
	local := comp.TempFile("narration.mp3")
	if _, err := os.Stat(local); err == nil {
		return local, nil
	}
	if err := compositor.DownloadFile(ctx, tl.AudioURL, local); err != nil {
		return "", err
	}
	return local, nil
}

// fail records a backend-level fatal error; the next poll surfaces it.
func (b *LocalBackend) fail(job *models.RenderJob, message string) error {
	log.Printf("Render backend error for job %s: %s", job.ID, message)
	updates := map[string]interface{}{
		"backend_state": models.BackendStateError,
		"backend_error": message,
	}
	if err := b.DB.Model(job).Updates(updates).Error; err != nil {
		return err
	}
	return fmt.Errorf("render failed for job %s: %s", job.ID, message)
}
