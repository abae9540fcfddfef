package engine

import (
	"context"
	"time"
)

// InVideo generates video via the InVideo API. 1 credit.
type InVideo struct {
	apiKey  string
	latency time.Duration
}

func NewInVideo(apiKey string) *InVideo {
	return &InVideo{apiKey: apiKey, latency: 4 * time.Second}
}

func (i *InVideo) Name() string { return "invideo" }

func (i *InVideo) Generate(ctx context.Context, prompt string) (Result, error) {
	if err := sleep(ctx, i.latency); err != nil {
		return Result{Success: false, Err: "Failed to generate video with InVideo"}, nil
	}
	return Result{
		Success:   true,
		OutputURL: "https://sample-videos.com/zip/10/mp4/SampleVideo_1280x720_10mb.mp4",
	}, nil
}
