package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"clippulse/internal/engine"
	"clippulse/internal/httpkit"
	"clippulse/internal/models"
	"clippulse/internal/pkg/errors"
	"clippulse/internal/pkg/logger"
	"clippulse/internal/pkg/middleware"
	"clippulse/internal/worker/pipeline"
)

type CreateVideoRequest struct {
	Title       string `json:"title"`
	Prompt      string `json:"prompt"`
	Engine      string `json:"engine"`
	Voice       string `json:"voice,omitempty"`
	OriginalURL string `json:"original_url,omitempty"`
}

// PostVideo validates the request, reserves the credit cost on the record
// and enqueues the render job. The actual charge happens on completion.
func (h *Handler) PostVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)
	log := h.log.FromContext(ctx).WithUserID(userID)

	var req CreateVideoRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "invalid json body", nil)
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Prompt = strings.TrimSpace(req.Prompt)
	req.Engine = strings.TrimSpace(req.Engine)

	if n := len(req.Title); n < 1 || n > 100 {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "title must be 1-100 characters", map[string]any{"field": "title"})
		return
	}
	if n := len(req.Prompt); n < 1 || n > 1000 {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "prompt must be 1-1000 characters", map[string]any{"field": "prompt"})
		return
	}
	cost, ok := engine.CreditCost(req.Engine)
	if !ok {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "unsupported engine: "+req.Engine, map[string]any{"field": "engine"})
		return
	}

	user, err := h.users.Get(ctx, userID)
	if err != nil {
		h.writeStoreErr(w, log, err, "user lookup failed")
		return
	}
	if user.Credits < cost {
		httpkit.WriteErr(w, 400, string(errors.CodeInsufficient), "Insufficient credits", map[string]any{
			"required":  cost,
			"available": user.Credits,
		})
		return
	}

	now := time.Now().UTC()
	video := &models.Video{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       req.Title,
		Prompt:      req.Prompt,
		Engine:      req.Engine,
		Voice:       strings.TrimSpace(req.Voice),
		OriginalURL: strings.TrimSpace(req.OriginalURL),
		Status:      models.StatusPending,
		CreditsUsed: cost,
		Watermarked: user.Plan == models.PlanFree,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := h.videos.Create(ctx, video); err != nil {
		log.Error("video insert failed", "error", err.Error())
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "db insert failed", nil)
		return
	}

	if err := h.queue.Enqueue(ctx, pipeline.Job{VideoID: video.ID, UserID: userID}); err != nil {
		log.Error("queue push failed", "error", err.Error(), "video_id", video.ID)
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "queue push failed", nil)
		return
	}

	httpkit.WriteJSON(w, 201, map[string]any{"video": video})
}

func (h *Handler) ListVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)

	limit := 50
	if s := strings.TrimSpace(r.URL.Query().Get("limit")); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}

	videos, err := h.videos.ListByUser(ctx, userID, limit)
	if err != nil {
		h.log.FromContext(ctx).Error("video list failed", "error", err.Error())
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "db query failed", nil)
		return
	}

	httpkit.WriteJSON(w, 200, map[string]any{"videos": videos})
}

func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)
	videoID := chi.URLParam(r, "videoId")

	video, err := h.videos.GetOwned(ctx, videoID, userID)
	if err != nil {
		h.writeStoreErr(w, h.log.FromContext(ctx), err, "video lookup failed")
		return
	}

	httpkit.WriteJSON(w, 200, map[string]any{"video": video})
}

// RemoveWatermark clears the watermark flag for eligible videos. Repeat
// calls are a no-op.
func (h *Handler) RemoveWatermark(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)
	videoID := chi.URLParam(r, "videoId")
	log := h.log.FromContext(ctx).WithUserID(userID)

	video, err := h.videos.GetOwned(ctx, videoID, userID)
	if err != nil {
		h.writeStoreErr(w, log, err, "video lookup failed")
		return
	}

	if !video.Watermarked {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "video is not watermarked", nil)
		return
	}
	if !video.WatermarkRemoved {
		if err := h.videos.RemoveWatermark(ctx, video.ID); err != nil {
			log.Error("watermark removal failed", "error", err.Error())
			httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "db update failed", nil)
			return
		}
		video.WatermarkRemoved = true
	}

	httpkit.WriteJSON(w, 200, map[string]any{"video": video})
}

type YouTubeMetadataRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Privacy     string   `json:"privacy"`
}

var youtubePrivacy = map[string]bool{
	"public":   true,
	"unlisted": true,
	"private":  true,
}

// SetYouTubeMetadata persists export metadata for a completed video.
func (h *Handler) SetYouTubeMetadata(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.UserID(ctx)
	videoID := chi.URLParam(r, "videoId")
	log := h.log.FromContext(ctx).WithUserID(userID)

	var req YouTubeMetadataRequest
	if err := httpkit.DecodeJSON(r, &req); err != nil {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "invalid json body", nil)
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if n := len(req.Title); n < 1 || n > 90 {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "title must be 1-90 characters", map[string]any{"field": "title"})
		return
	}
	if len(req.Description) > 500 {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "description must be at most 500 characters", map[string]any{"field": "description"})
		return
	}
	if len(req.Tags) > 15 {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "at most 15 tags allowed", map[string]any{"field": "tags"})
		return
	}
	if !youtubePrivacy[req.Privacy] {
		httpkit.WriteErr(w, 400, "VALIDATION_ERROR", "privacy must be public, unlisted or private", map[string]any{"field": "privacy"})
		return
	}

	video, err := h.videos.GetOwned(ctx, videoID, userID)
	if err != nil {
		h.writeStoreErr(w, log, err, "video lookup failed")
		return
	}
	if video.Status != models.StatusCompleted {
		httpkit.WriteErr(w, 409, "CONFLICT", "video is not completed", map[string]any{"status": string(video.Status)})
		return
	}

	if err := h.videos.SetYouTubeMetadata(ctx, video.ID, req.Title, req.Description, req.Tags, req.Privacy); err != nil {
		log.Error("youtube metadata update failed", "error", err.Error())
		httpkit.WriteErr(w, 500, "INTERNAL_ERROR", "db update failed", nil)
		return
	}

	httpkit.WriteJSON(w, 200, map[string]any{
		"video_id": video.ID,
		"youtube": map[string]any{
			"title":       req.Title,
			"description": req.Description,
			"tags":        req.Tags,
			"privacy":     req.Privacy,
		},
	})
}

// writeStoreErr maps coded store errors onto HTTP responses.
func (h *Handler) writeStoreErr(w http.ResponseWriter, log *logger.Logger, err error, msg string) {
	var cErr *errors.Error
	if errors.As(err, &cErr) && cErr.Code == errors.CodeNotFound {
		httpkit.WriteErr(w, 404, "NOT_FOUND", cErr.Message, cErr.Fields)
		return
	}
	log.Error(msg, "error", err.Error())
	httpkit.WriteErr(w, 500, "INTERNAL_ERROR", msg, nil)
}
