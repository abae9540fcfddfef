package engine

import (
	"context"
	"time"
)

// Vheer renders a thumbnail image for a prompt. Cosmetic: the pipeline
// tolerates its failures.
type Vheer struct {
	latency time.Duration
}

func NewVheer() *Vheer {
	return &Vheer{latency: 800 * time.Millisecond}
}

func (v *Vheer) Name() string { return "vheer" }

func (v *Vheer) Thumbnail(ctx context.Context, prompt string) (Result, error) {
	if err := sleep(ctx, v.latency); err != nil {
		return Result{Success: false, Err: "Failed to generate thumbnail with Vheer"}, nil
	}
	return Result{
		Success:   true,
		OutputURL: "https://picsum.photos/1280/720?random=1",
	}, nil
}
