package engine

import (
	"context"
	"time"
)

// StepFun generates video via the StepFun text-to-video API. 2 credits.
type StepFun struct {
	apiKey  string
	latency time.Duration
}

func NewStepFun(apiKey string) *StepFun {
	return &StepFun{apiKey: apiKey, latency: 2 * time.Second}
}

func (s *StepFun) Name() string { return "stepfun" }

func (s *StepFun) Generate(ctx context.Context, prompt string) (Result, error) {
	// Stubbed call; real integration posts prompt with s.apiKey.
	if err := sleep(ctx, s.latency); err != nil {
		return Result{Success: false, Err: "Failed to generate video with StepFun"}, nil
	}
	return Result{
		Success:   true,
		OutputURL: "https://sample-videos.com/zip/10/mp4/SampleVideo_1280x720_1mb.mp4",
	}, nil
}
