// Package pipeline drives one queued video through the fixed render stage
// sequence to a terminal state. It is the single error boundary for a job
// run: nothing escapes uncaught, so a video is never left stuck in
// PROCESSING without a terminal notification.
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"clippulse/internal/engine"
	"clippulse/internal/metrics"
	"clippulse/internal/models"
	"clippulse/internal/notify"
	"clippulse/internal/pkg/errors"
	"clippulse/internal/pkg/logger"
	"clippulse/internal/ports"
)

// Job is the queue reference the worker hands to the pipeline.
type Job struct {
	VideoID string `json:"video_id"`
	UserID  string `json:"user_id"`
}

// VideoStore is the slice of the video store the pipeline mutates.
type VideoStore interface {
	Get(ctx context.Context, id string) (*models.Video, error)
	MarkProcessing(ctx context.Context, id string, progress int) error
	UpdateProgress(ctx context.Context, id string, progress int) error
	MarkCompleted(ctx context.Context, id, videoURL, thumbnailURL string, durationSeconds int) error
	MarkFailed(ctx context.Context, id, errText string) error
}

// UserStore applies the credit charge on completion.
type UserStore interface {
	DecrementCredits(ctx context.Context, id string, amount int) error
}

// Notifier pushes events to the owning user's channel. Failures are
// swallowed by the pipeline; they never fail the job.
type Notifier interface {
	Progress(ctx context.Context, userID string, ev notify.ProgressEvent) error
	Complete(ctx context.Context, userID string, ev notify.CompleteEvent) error
	Error(ctx context.Context, userID string, ev notify.ErrorEvent) error
}

// Progress checkpoints for the fixed stage ladder.
const (
	progressProcessing = 10
	progressDownload   = 20
	progressTranscribe = 30
	progressRewrite    = 40
	progressGenerate   = 60
	progressVoice      = 80
	progressStitch     = 90
	progressUpload     = 95
)

// mock duration until the stitcher reports real media length
const mockDurationSeconds = 5

type Deps struct {
	Videos      VideoStore
	Users       UserStore
	Notifier    Notifier
	Engines     *engine.Registry
	Rewriter    engine.Rewriter
	Thumbnailer engine.Thumbnailer
	Artifacts   ports.StorageProvider
	Log         *logger.Logger
}

// Pipeline executes one job end-to-end, non-preemptively with respect to
// its own stages. Distinct jobs run concurrently across worker slots; the
// only shared mutable state is the user credit balance, which is moved with
// an atomic decrement.
type Pipeline struct {
	videos      VideoStore
	users       UserStore
	notifier    Notifier
	engines     *engine.Registry
	rewriter    engine.Rewriter
	thumbnailer engine.Thumbnailer
	artifacts   ports.StorageProvider
	log         *logger.Logger
}

func New(d Deps) *Pipeline {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	return &Pipeline{
		videos:      d.Videos,
		users:       d.Users,
		notifier:    d.Notifier,
		engines:     d.Engines,
		rewriter:    d.Rewriter,
		thumbnailer: d.Thumbnailer,
		artifacts:   d.Artifacts,
		log:         log.WithComponent("pipeline"),
	}
}

// Process drives the video identified by job to COMPLETED or FAILED.
// The returned error is for worker logging only: by the time Process
// returns, the job record is terminal (or was never readable, in which
// case the queue's redelivery policy applies).
func (p *Pipeline) Process(ctx context.Context, job Job) (err error) {
	log := p.log.WithVideoID(job.VideoID).WithUserID(job.UserID)
	start := time.Now()

	video, err := p.videos.Get(ctx, job.VideoID)
	if err != nil {
		log.Error("failed to load video record", "error", err.Error())
		return errors.Wrap(err, "pipeline.load", "failed to load video record")
	}

	// At-least-once delivery: a redelivered terminal job is already done.
	if video.Status.Terminal() {
		log.Info("skipping job already in terminal state", "status", string(video.Status))
		return nil
	}

	// Adapter panics are treated as provider errors for the stage.
	defer func() {
		if rec := recover(); rec != nil {
			err = p.failJob(ctx, video, errors.Newf(errors.CodeProvider, "unexpected failure: %v", rec))
		}
	}()

	if err := p.run(ctx, video, log); err != nil {
		metrics.VideosProcessedTotal.WithLabelValues("failed").Inc()
		return err
	}

	metrics.VideosProcessedTotal.WithLabelValues("completed").Inc()
	metrics.RenderDuration.WithLabelValues(video.Engine).Observe(time.Since(start).Seconds())
	log.Info("video completed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (p *Pipeline) run(ctx context.Context, video *models.Video, log *logger.Logger) error {
	// Stage 1: mark processing.
	if err := p.videos.MarkProcessing(ctx, video.ID, progressProcessing); err != nil {
		return p.failJob(ctx, video, errors.Wrap(err, "pipeline.status", "failed to mark video as processing"))
	}
	p.notifyProgress(ctx, video, notify.ProgressEvent{
		VideoID:  video.ID,
		Progress: progressProcessing,
		Status:   string(models.StatusProcessing),
	})

	// Unknown engine is fatal before any adapter is invoked.
	generator, ok := p.engines.Lookup(video.Engine)
	if !ok {
		return p.failJob(ctx, video, errors.Validationf("Unsupported engine: %s", video.Engine))
	}

	// Stage 2: acquire source material (external downloader).
	if video.OriginalURL != "" {
		if err := p.advance(ctx, video, progressDownload, "Downloading original video..."); err != nil {
			return p.failJob(ctx, video, err)
		}
	}

	// Stage 3: transcription (external service).
	if err := p.advance(ctx, video, progressTranscribe, "Transcribing audio..."); err != nil {
		return p.failJob(ctx, video, err)
	}

	// Stage 4: script rewrite. Never fatal: on failure the original prompt
	// feeds generation and the failure is logged.
	if err := p.advance(ctx, video, progressRewrite, "Rewriting script..."); err != nil {
		return p.failJob(ctx, video, err)
	}
	prompt := video.Prompt
	if rewritten, rerr := p.rewriter.Rewrite(ctx, prompt); rerr != nil {
		log.Warn("script rewrite errored, using original prompt", "error", rerr.Error())
	} else if !rewritten.Success {
		log.Warn("script rewrite failed, using original prompt", "provider_error", rewritten.Err)
	} else {
		prompt = rewritten.Script
	}

	// Stage 5: generation. This stage decides overall success.
	if err := p.advance(ctx, video, progressGenerate, "Generating visuals..."); err != nil {
		return p.failJob(ctx, video, err)
	}
	result, err := generator.Generate(ctx, prompt)
	if err != nil {
		return p.failJob(ctx, video, errors.WrapWithCode(err, errors.CodeProvider, "pipeline.generate", "video generation failed"))
	}
	if !result.Success {
		msg := result.Err
		if msg == "" {
			msg = "Video generation failed"
		}
		return p.failJob(ctx, video, errors.Provider(video.Engine, msg))
	}

	// Stage 6: voice-over (external TTS).
	if video.Voice != "" {
		if err := p.advance(ctx, video, progressVoice, "Generating voice-over..."); err != nil {
			return p.failJob(ctx, video, err)
		}
	}

	// Stage 7: stitch (external media assembly).
	if err := p.advance(ctx, video, progressStitch, "Stitching final video..."); err != nil {
		return p.failJob(ctx, video, err)
	}

	// Stage 8: persist the render manifest to durable storage.
	if err := p.advance(ctx, video, progressUpload, "Uploading to storage..."); err != nil {
		return p.failJob(ctx, video, err)
	}
	if err := p.persistManifest(ctx, video, result.OutputURL); err != nil {
		return p.failJob(ctx, video, errors.Wrap(err, "pipeline.persist", "failed to persist render artifact"))
	}

	// Stage 9: thumbnail. Cosmetic, never fails the job.
	thumbnailURL := ""
	if thumb, terr := p.thumbnailer.Thumbnail(ctx, video.Prompt); terr != nil {
		log.Warn("thumbnail generation errored", "error", terr.Error())
	} else if !thumb.Success {
		log.Warn("thumbnail generation failed", "provider_error", thumb.Err)
	} else {
		thumbnailURL = thumb.OutputURL
	}

	// Stage 10: terminal update, charge, completion notification.
	if err := p.videos.MarkCompleted(ctx, video.ID, result.OutputURL, thumbnailURL, mockDurationSeconds); err != nil {
		return p.failJob(ctx, video, errors.Wrap(err, "pipeline.complete", "failed to mark video as completed"))
	}

	if err := p.users.DecrementCredits(ctx, video.UserID, video.CreditsUsed); err != nil {
		// The video is already terminal; surface the billing failure loudly
		// instead of resurrecting the job.
		log.Error("credit deduction failed after completion",
			"credits", video.CreditsUsed,
			"error", err.Error(),
		)
		return errors.Wrap(err, "pipeline.charge", "credit deduction failed")
	}

	if nerr := p.notifier.Complete(ctx, video.UserID, notify.CompleteEvent{
		VideoID:      video.ID,
		VideoURL:     result.OutputURL,
		ThumbnailURL: thumbnailURL,
	}); nerr != nil {
		p.dropNotification(log, nerr)
	}

	return nil
}

// advance persists the stage's progress checkpoint and emits the progress
// event. A persistence failure propagates (state is the source of truth);
// a notification failure is dropped.
func (p *Pipeline) advance(ctx context.Context, video *models.Video, progress int, message string) error {
	if err := p.videos.UpdateProgress(ctx, video.ID, progress); err != nil {
		return errors.Wrap(err, "pipeline.progress", fmt.Sprintf("failed to persist progress %d", progress))
	}
	p.notifyProgress(ctx, video, notify.ProgressEvent{
		VideoID:  video.ID,
		Progress: progress,
		Message:  message,
	})
	return nil
}

func (p *Pipeline) notifyProgress(ctx context.Context, video *models.Video, ev notify.ProgressEvent) {
	if err := p.notifier.Progress(ctx, video.UserID, ev); err != nil {
		p.dropNotification(p.log.WithVideoID(video.ID), err)
	}
}

func (p *Pipeline) dropNotification(log *logger.Logger, err error) {
	metrics.NotifyFailuresTotal.Inc()
	log.Warn("notification publish failed, dropping", "error", err.Error())
}

// failJob transitions the video to FAILED, emits the failure notification
// and returns the cause for worker logging. Progress is left as-is for
// diagnostics and the user is never charged.
func (p *Pipeline) failJob(ctx context.Context, video *models.Video, cause error) error {
	log := p.log.WithVideoID(video.ID).WithUserID(video.UserID)

	msg := "Unknown error"
	if cause != nil {
		var cErr *errors.Error
		if errors.As(cause, &cErr) {
			msg = cErr.Message
			log.Error("video failed",
				"code", string(cErr.Code),
				"op", cErr.Op,
				"message", cErr.Message,
			)
		} else {
			msg = cause.Error()
			log.Error("video failed", "error", msg)
		}
	}

	if err := p.videos.MarkFailed(ctx, video.ID, msg); err != nil {
		log.Error("failed to mark video as failed", "error", err.Error())
	}

	if nerr := p.notifier.Error(ctx, video.UserID, notify.ErrorEvent{
		VideoID: video.ID,
		Error:   msg,
	}); nerr != nil {
		p.dropNotification(log, nerr)
	}

	return cause
}

// renderManifest is the artifact written to durable storage on success.
type renderManifest struct {
	VideoID    string    `json:"video_id"`
	UserID     string    `json:"user_id"`
	Engine     string    `json:"engine"`
	Title      string    `json:"title"`
	VideoURL   string    `json:"video_url"`
	RenderedAt time.Time `json:"rendered_at"`
}

func (p *Pipeline) persistManifest(ctx context.Context, video *models.Video, videoURL string) error {
	m := renderManifest{
		VideoID:    video.ID,
		UserID:     video.UserID,
		Engine:     video.Engine,
		Title:      video.Title,
		VideoURL:   videoURL,
		RenderedAt: time.Now().UTC(),
	}
	body, err := json.Marshal(m)
	if err != nil {
		return err
	}

	_, err = p.artifacts.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   fmt.Sprintf("renders/%s/manifest.json", video.ID),
		ContentType: "application/json",
		Reader:      bytes.NewReader(body),
		Size:        int64(len(body)),
	})
	return err
}
