package models

import "time"

// VideoStatus is the lifecycle state of a render job.
type VideoStatus string

const (
	StatusPending    VideoStatus = "PENDING"
	StatusProcessing VideoStatus = "PROCESSING"
	StatusCompleted  VideoStatus = "COMPLETED"
	StatusFailed     VideoStatus = "FAILED"
)

// Terminal reports whether the status is an end state. A terminal video is
// never re-entered by the pipeline; a new user action creates a new video.
func (s VideoStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Video is the unit of work tracked through the render pipeline.
type Video struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`

	Title       string `json:"title"`
	Prompt      string `json:"prompt"`
	Engine      string `json:"engine"`
	Voice       string `json:"voice,omitempty"`
	OriginalURL string `json:"original_url,omitempty"`

	Status          VideoStatus `json:"status"`
	Progress        int         `json:"progress"`
	VideoURL        string      `json:"video_url,omitempty"`
	ThumbnailURL    string      `json:"thumbnail_url,omitempty"`
	DurationSeconds int         `json:"duration_seconds,omitempty"`
	ErrorText       string      `json:"error_text,omitempty"`

	CreditsUsed      int  `json:"credits_used"`
	Watermarked      bool `json:"watermarked"`
	WatermarkRemoved bool `json:"watermark_removed"`

	YouTubeTitle       string   `json:"youtube_title,omitempty"`
	YouTubeDescription string   `json:"youtube_description,omitempty"`
	YouTubeTags        []string `json:"youtube_tags,omitempty"`
	YouTubePrivacy     string   `json:"youtube_privacy,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
