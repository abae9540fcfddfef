package engine

import (
	"context"
	"time"
)

// ChatGLM rewrites a raw script into something with better pacing and hooks.
// It is not user-selectable; the pipeline always runs it before generation.
type ChatGLM struct {
	apiKey  string
	latency time.Duration
}

func NewChatGLM(apiKey string) *ChatGLM {
	return &ChatGLM{apiKey: apiKey, latency: time.Second}
}

func (c *ChatGLM) Name() string { return "chatglm" }

func (c *ChatGLM) Rewrite(ctx context.Context, script string) (RewriteResult, error) {
	if err := sleep(ctx, c.latency); err != nil {
		return RewriteResult{Success: false, Err: "Failed to rewrite script with ChatGLM"}, nil
	}
	return RewriteResult{
		Success: true,
		Script:  "Enhanced version: " + script + " - with improved storytelling and engagement hooks.",
	}, nil
}
