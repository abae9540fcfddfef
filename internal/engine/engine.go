// Package engine holds the provider adapters for video generation, script
// rewriting and thumbnail rendering. Every adapter is stateless and
// interchangeable; the pipeline selects one by name at dispatch time.
package engine

import (
	"context"
	"time"
)

// Result is the uniform outcome of a provider call. Expected provider
// failures come back as Success=false with Err set; adapters reserve the
// error return of Generate for genuinely unexpected conditions.
type Result struct {
	Success   bool   `json:"success"`
	OutputURL string `json:"output_url,omitempty"`
	Err       string `json:"error,omitempty"`
}

// Generator produces a video from a prompt.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (Result, error)
}

// RewriteResult is the outcome of a script rewrite.
type RewriteResult struct {
	Success bool   `json:"success"`
	Script  string `json:"script,omitempty"`
	Err     string `json:"error,omitempty"`
}

// Rewriter enhances a script before generation.
type Rewriter interface {
	Name() string
	Rewrite(ctx context.Context, script string) (RewriteResult, error)
}

// Thumbnailer renders a cover image for a prompt.
type Thumbnailer interface {
	Name() string
	Thumbnail(ctx context.Context, prompt string) (Result, error)
}

// creditCosts is the per-engine price charged on successful completion.
var creditCosts = map[string]int{
	"stepfun": 2,
	"qwen":    0,
	"pika":    3,
	"invideo": 1,
}

// CreditCost returns the credit price for a known engine.
func CreditCost(engine string) (int, bool) {
	c, ok := creditCosts[engine]
	return c, ok
}

// Registry is a flat dispatch table of video generators keyed by name.
type Registry struct {
	generators map[string]Generator
}

// NewRegistry builds a registry from the given generators.
func NewRegistry(gens ...Generator) *Registry {
	r := &Registry{generators: make(map[string]Generator, len(gens))}
	for _, g := range gens {
		r.generators[g.Name()] = g
	}
	return r
}

// Lookup returns the generator registered under name, if any.
func (r *Registry) Lookup(name string) (Generator, bool) {
	g, ok := r.generators[name]
	return g, ok
}

// Names lists the registered engine names.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.generators))
	for name := range r.generators {
		out = append(out, name)
	}
	return out
}

// Default builds the registry of all supported video engines.
func Default(cfg Config) *Registry {
	return NewRegistry(
		NewStepFun(cfg.StepFunAPIKey),
		NewQwen(cfg.DashScopeAPIKey),
		NewPika(cfg.PikaAPIKey),
		NewInVideo(cfg.InVideoAPIKey),
	)
}

// Config carries provider credentials from process configuration.
type Config struct {
	StepFunAPIKey   string
	DashScopeAPIKey string
	PikaAPIKey      string
	InVideoAPIKey   string
	ChatGLMAPIKey   string
}

// sleep waits for d or until ctx is done. Provider calls are stubbed with
// representative latencies until the real SDK integrations land.
func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
