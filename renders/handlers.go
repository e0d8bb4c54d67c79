package renders

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Surya-blippi/Livio-sub001/captions"
	"github.com/Surya-blippi/Livio-sub001/models"
	"github.com/Surya-blippi/Livio-sub001/tasks"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// requestDedupTTL bounds how long an identical request maps to the same
// job. Past it, resubmitting starts a fresh render.
const requestDedupTTL = 24 * time.Hour

type Handler struct {
	DB    *gorm.DB
	Redis *redis.Client
}

func NewHandler(db *gorm.DB, rdb *redis.Client) *Handler {
	return &Handler{DB: db, Redis: rdb}
}

type SceneRequest struct {
	Text     string   `json:"text" binding:"required"`
	Type     string   `json:"type"`
	AssetURL string   `json:"asset_url"`
	Keywords []string `json:"keywords"`
}

type CreateRenderRequest struct {
	Topic        string         `json:"topic"`
	Script       string         `json:"script"`
	Scenes       []SceneRequest `json:"scenes"`
	CaptionStyle string         `json:"caption_style"`
	MusicURL     string         `json:"music_url"`
	FaceClipURL  string         `json:"face_clip_url"`
}

// CreateRender accepts a render request and returns a job id. Creation is
// idempotent: the same user submitting the same request within the dedup
// window gets the original job back instead of a second render.
func (h *Handler) CreateRender(c *gin.Context) {
	userID := c.GetUint("user_id")
	var req CreateRenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	scenes, queue, err := h.validate(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash := requestHash(userID, &req)
	jobID := uuid.NewString()

	dedupKey := "render:request:" + hash
	created, err := h.Redis.SetNX(c.Request.Context(), dedupKey, jobID, requestDedupTTL).Result()
	if err != nil {
		log.Printf("Error checking request dedup key: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create render"})
		return
	}
	if !created {
		existingID, err := h.Redis.Get(c.Request.Context(), dedupKey).Result()
		if err == nil {
			var existing models.RenderJob
			if err := h.DB.First(&existing, "id = ? AND user_id = ?", existingID, userID).Error; err == nil {
				c.JSON(http.StatusOK, existing)
				return
			}
		}
		// Dedup key points at a job we can no longer find; fall through
		// and create a fresh one under the same key.
		h.Redis.Set(c.Request.Context(), dedupKey, jobID, requestDedupTTL)
	}

	scenesJSON, err := json.Marshal(scenes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create render"})
		return
	}

	job := models.RenderJob{
		ID:              jobID,
		UserID:          userID,
		RequestHash:     hash,
		Status:          models.JobStatusPending,
		ProgressMessage: "Queued",
		Topic:           strings.TrimSpace(req.Topic),
		CaptionStyle:    captions.StyleByName(req.CaptionStyle).Name,
		MusicURL:        req.MusicURL,
		FaceClipURL:     req.FaceClipURL,
		Script:          strings.TrimSpace(req.Script),
		ScenesJSON:      string(scenesJSON),
	}
	if err := h.DB.Create(&job).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create render"})
		return
	}

	var taskPayload interface{} = tasks.PlanTaskPayload{JobID: job.ID}
	if queue == tasks.QueueRenderSubmit {
		taskPayload = tasks.SubmitTaskPayload{JobID: job.ID}
	}
	payload, err := tasks.Marshal(taskPayload)
	if err == nil {
		err = h.Redis.LPush(c.Request.Context(), queue, payload).Err()
	}
	if err != nil {
		log.Printf("Error queueing job %s: %v", job.ID, err)
		h.DB.Model(&job).Updates(map[string]interface{}{
			"status":     models.JobStatusFailed,
			"error":      "failed to queue render",
			"error_kind": "queue_error",
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue render"})
		return
	}

	log.Printf("Created render job %s for user %d on %s", job.ID, userID, queue)
	c.JSON(http.StatusCreated, job)
}

// GetRender returns the job's public status shape. Reads are idempotent
// and scoped to the requesting user.
func (h *Handler) GetRender(c *gin.Context) {
	userID := c.GetUint("user_id")
	jobID := c.Param("id")

	var job models.RenderJob
	if err := h.DB.First(&job, "id = ? AND user_id = ?", jobID, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Render not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

// validate checks the request and decides which queue the job starts on:
// topic-only jobs need a planning pass, explicit-scene jobs go straight
// to synthesis.
func (h *Handler) validate(req *CreateRenderRequest) ([]models.Scene, string, error) {
	hasTopic := strings.TrimSpace(req.Topic) != ""
	hasScenes := len(req.Scenes) > 0

	if hasTopic == hasScenes {
		return nil, "", fmt.Errorf("provide either a topic or explicit scenes, not both")
	}

	if hasTopic {
		if req.FaceClipURL == "" {
			return nil, "", fmt.Errorf("topic renders require face_clip_url")
		}
		return nil, tasks.QueueRenderPlan, nil
	}

	if strings.TrimSpace(req.Script) == "" {
		return nil, "", fmt.Errorf("scene renders require a script")
	}

	scenes := make([]models.Scene, 0, len(req.Scenes))
	for i, s := range req.Scenes {
		sceneType := s.Type
		if sceneType != models.SceneTypeFace {
			sceneType = models.SceneTypeAsset
		}
		assetURL := s.AssetURL
		if assetURL == "" && sceneType == models.SceneTypeFace {
			assetURL = req.FaceClipURL
		}
		if assetURL == "" {
			return nil, "", fmt.Errorf("scene %d has no asset_url", i)
		}
		scenes = append(scenes, models.Scene{
			Text:     strings.TrimSpace(s.Text),
			Type:     sceneType,
			AssetURL: assetURL,
			Keywords: s.Keywords,
		})
	}
	return scenes, tasks.QueueRenderSubmit, nil
}

// requestHash canonicalizes the request per user so retried submissions
// hash identically.
func requestHash(userID uint, req *CreateRenderRequest) string {
	canonical, _ := json.Marshal(req)
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%s", userID, canonical)))
	return hex.EncodeToString(sum[:])
}
