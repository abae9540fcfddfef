// Package store persists videos, users and referrals in PostgreSQL.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clippulse/internal/models"
	"clippulse/internal/pkg/errors"
)

// Videos is the video record store. The pipeline owns a video's status and
// progress from dequeue until it reaches a terminal state; no other writer
// touches those columns during that window.
type Videos struct {
	pool *pgxpool.Pool
}

func NewVideos(pool *pgxpool.Pool) *Videos {
	return &Videos{pool: pool}
}

const videoColumns = `id, user_id, title, prompt, engine,
	COALESCE(voice,''), COALESCE(original_url,''),
	status, progress, COALESCE(video_url,''), COALESCE(thumbnail_url,''),
	COALESCE(duration_seconds,0), COALESCE(error_text,''),
	credits_used, watermarked, watermark_removed,
	COALESCE(youtube_title,''), COALESCE(youtube_description,''),
	COALESCE(youtube_tags,'{}'), COALESCE(youtube_privacy,''),
	created_at, updated_at`

func scanVideo(row pgx.Row) (*models.Video, error) {
	var v models.Video
	var status string
	err := row.Scan(
		&v.ID, &v.UserID, &v.Title, &v.Prompt, &v.Engine,
		&v.Voice, &v.OriginalURL,
		&status, &v.Progress, &v.VideoURL, &v.ThumbnailURL,
		&v.DurationSeconds, &v.ErrorText,
		&v.CreditsUsed, &v.Watermarked, &v.WatermarkRemoved,
		&v.YouTubeTitle, &v.YouTubeDescription,
		&v.YouTubeTags, &v.YouTubePrivacy,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	v.Status = models.VideoStatus(status)
	return &v, nil
}

// Get fetches a video by id.
func (s *Videos) Get(ctx context.Context, id string) (*models.Video, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE id=$1`, id)
	v, err := scanVideo(row)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("video", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	return v, nil
}

// GetOwned fetches a video scoped to its owner.
func (s *Videos) GetOwned(ctx context.Context, id, userID string) (*models.Video, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+videoColumns+` FROM videos WHERE id=$1 AND user_id=$2`, id, userID)
	v, err := scanVideo(row)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("video", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	return v, nil
}

// Create inserts a new PENDING video record.
func (s *Videos) Create(ctx context.Context, v *models.Video) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO videos
		   (id, user_id, title, prompt, engine, voice, original_url,
		    status, progress, credits_used, watermarked, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,0,$9,$10,$11,$11)`,
		v.ID, v.UserID, v.Title, v.Prompt, v.Engine,
		nullIfEmpty(v.Voice), nullIfEmpty(v.OriginalURL),
		string(v.Status), v.CreditsUsed, v.Watermarked, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

// ListByUser returns the user's videos, newest first.
func (s *Videos) ListByUser(ctx context.Context, userID string, limit int) ([]models.Video, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+videoColumns+` FROM videos
		 WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	out := make([]models.Video, 0, limit)
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// MarkProcessing transitions PENDING -> PROCESSING with the initial progress.
func (s *Videos) MarkProcessing(ctx context.Context, id string, progress int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE videos SET status=$2, progress=$3, error_text=NULL, updated_at=NOW()
		 WHERE id=$1`,
		id, string(models.StatusProcessing), progress)
	return err
}

// UpdateProgress advances progress within a PROCESSING run.
func (s *Videos) UpdateProgress(ctx context.Context, id string, progress int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE videos SET progress=$2, updated_at=NOW() WHERE id=$1`,
		id, progress)
	return err
}

// MarkCompleted writes the terminal success state in one statement.
func (s *Videos) MarkCompleted(ctx context.Context, id, videoURL, thumbnailURL string, durationSeconds int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE videos
		 SET status=$2, progress=100, video_url=$3, thumbnail_url=$4,
		     duration_seconds=$5, updated_at=NOW()
		 WHERE id=$1`,
		id, string(models.StatusCompleted), videoURL, nullIfEmpty(thumbnailURL), durationSeconds)
	return err
}

// MarkFailed writes the terminal failure state. Progress is left untouched
// for diagnostics.
func (s *Videos) MarkFailed(ctx context.Context, id, errText string) error {
	if len(errText) > 2000 {
		errText = errText[:2000]
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE videos SET status=$2, error_text=$3, updated_at=NOW() WHERE id=$1`,
		id, string(models.StatusFailed), errText)
	return err
}

// SetYouTubeMetadata records the export metadata after completion.
func (s *Videos) SetYouTubeMetadata(ctx context.Context, id, title, description string, tags []string, privacy string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE videos
		 SET youtube_title=$2, youtube_description=$3, youtube_tags=$4,
		     youtube_privacy=$5, updated_at=NOW()
		 WHERE id=$1`,
		id, title, description, tags, privacy)
	return err
}

// RemoveWatermark flags a watermarked video as cleaned.
func (s *Videos) RemoveWatermark(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE videos SET watermark_removed=TRUE, updated_at=NOW() WHERE id=$1`, id)
	return err
}

// MonthlyUsage sums credits used and counts videos created since the given
// start of month.
func (s *Videos) MonthlyUsage(ctx context.Context, userID string, since time.Time) (creditsUsed, videos int, err error) {
	err = s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(credits_used),0), COUNT(*)
		 FROM videos WHERE user_id=$1 AND created_at >= $2`,
		userID, since).Scan(&creditsUsed, &videos)
	if err != nil {
		return 0, 0, fmt.Errorf("monthly usage: %w", err)
	}
	return creditsUsed, videos, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
