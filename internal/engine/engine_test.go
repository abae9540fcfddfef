package engine

import (
	"context"
	"sort"
	"strings"
	"testing"
)

func TestDefaultRegistry(t *testing.T) {
	reg := Default(Config{})

	names := reg.Names()
	sort.Strings(names)

	want := []string{"invideo", "pika", "qwen", "stepfun"}
	if len(names) != len(want) {
		t.Fatalf("registry names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("registry names = %v, want %v", names, want)
		}
	}
}

func TestRegistryLookup(t *testing.T) {
	reg := Default(Config{})

	g, ok := reg.Lookup("pika")
	if !ok {
		t.Fatal("expected pika to be registered")
	}
	if g.Name() != "pika" {
		t.Errorf("generator name = %s, want pika", g.Name())
	}

	if _, ok := reg.Lookup("sora"); ok {
		t.Error("expected unknown engine lookup to fail")
	}
}

func TestCreditCost(t *testing.T) {
	tests := []struct {
		engine string
		cost   int
		known  bool
	}{
		{"stepfun", 2, true},
		{"qwen", 0, true},
		{"pika", 3, true},
		{"invideo", 1, true},
		{"sora", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.engine, func(t *testing.T) {
			cost, ok := CreditCost(tt.engine)
			if ok != tt.known {
				t.Fatalf("CreditCost(%q) known=%v, want %v", tt.engine, ok, tt.known)
			}
			if cost != tt.cost {
				t.Errorf("CreditCost(%q) = %d, want %d", tt.engine, cost, tt.cost)
			}
		})
	}
}

func TestGenerateCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, name := range []string{"stepfun", "qwen", "pika", "invideo"} {
		t.Run(name, func(t *testing.T) {
			g, ok := Default(Config{}).Lookup(name)
			if !ok {
				t.Fatalf("engine %s not registered", name)
			}
			res, err := g.Generate(ctx, "a prompt")
			if err != nil {
				t.Fatalf("Generate returned error: %v", err)
			}
			if res.Success {
				t.Error("expected failure result on cancelled context")
			}
			if res.Err == "" {
				t.Error("expected provider error message")
			}
		})
	}
}

func TestQwenGenerate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stubbed-latency call in short mode")
	}

	g := NewQwen("")
	res, err := g.Generate(context.Background(), "a prompt")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Err)
	}
	if !strings.HasSuffix(res.OutputURL, ".mp4") {
		t.Errorf("output URL = %q, want mp4", res.OutputURL)
	}
}

func TestChatGLMRewrite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stubbed-latency call in short mode")
	}

	rw := NewChatGLM("")
	res, err := rw.Rewrite(context.Background(), "my script")
	if err != nil {
		t.Fatalf("Rewrite returned error: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Err)
	}
	if !strings.HasPrefix(res.Script, "Enhanced version: my script") {
		t.Errorf("rewritten script = %q, want enhanced prefix", res.Script)
	}
}

func TestChatGLMRewriteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewChatGLM("").Rewrite(ctx, "my script")
	if err != nil {
		t.Fatalf("Rewrite returned error: %v", err)
	}
	if res.Success {
		t.Error("expected failure result on cancelled context")
	}
}

func TestVheerThumbnail(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stubbed-latency call in short mode")
	}

	res, err := NewVheer().Thumbnail(context.Background(), "a prompt")
	if err != nil {
		t.Fatalf("Thumbnail returned error: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Err)
	}
	if res.OutputURL == "" {
		t.Error("expected thumbnail URL")
	}
}
