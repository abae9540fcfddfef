package engine

import (
	"context"
	"time"
)

// Pika generates video via the Pika text-to-video API. 3 credits.
type Pika struct {
	apiKey  string
	latency time.Duration
}

func NewPika(apiKey string) *Pika {
	return &Pika{apiKey: apiKey, latency: 3 * time.Second}
}

func (p *Pika) Name() string { return "pika" }

func (p *Pika) Generate(ctx context.Context, prompt string) (Result, error) {
	if err := sleep(ctx, p.latency); err != nil {
		return Result{Success: false, Err: "Failed to generate video with Pika"}, nil
	}
	return Result{
		Success:   true,
		OutputURL: "https://sample-videos.com/zip/10/mp4/SampleVideo_1280x720_5mb.mp4",
	}, nil
}
