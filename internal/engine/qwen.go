package engine

import (
	"context"
	"time"
)

// Qwen generates video via Alibaba DashScope. Free tier, 0 credits.
type Qwen struct {
	apiKey  string
	latency time.Duration
}

func NewQwen(apiKey string) *Qwen {
	return &Qwen{apiKey: apiKey, latency: 1500 * time.Millisecond}
}

func (q *Qwen) Name() string { return "qwen" }

func (q *Qwen) Generate(ctx context.Context, prompt string) (Result, error) {
	if err := sleep(ctx, q.latency); err != nil {
		return Result{Success: false, Err: "Failed to generate video with Qwen"}, nil
	}
	return Result{
		Success:   true,
		OutputURL: "https://sample-videos.com/zip/10/mp4/SampleVideo_1280x720_2mb.mp4",
	}, nil
}
