package pipeline

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"clippulse/internal/engine"
	"clippulse/internal/models"
	"clippulse/internal/notify"
	"clippulse/internal/ports"
)

// --- fakes ---

type fakeVideoStore struct {
	mu       sync.Mutex
	video    *models.Video
	progress []int
	failOn   map[string]error
}

func (f *fakeVideoStore) fail(method string) error {
	if f.failOn == nil {
		return nil
	}
	return f.failOn[method]
}

func (f *fakeVideoStore) Get(ctx context.Context, id string) (*models.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("Get"); err != nil {
		return nil, err
	}
	if f.video == nil || f.video.ID != id {
		return nil, errors.New("video not found")
	}
	cp := *f.video
	return &cp, nil
}

func (f *fakeVideoStore) MarkProcessing(ctx context.Context, id string, progress int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("MarkProcessing"); err != nil {
		return err
	}
	f.video.Status = models.StatusProcessing
	f.video.Progress = progress
	f.progress = append(f.progress, progress)
	return nil
}

func (f *fakeVideoStore) UpdateProgress(ctx context.Context, id string, progress int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("UpdateProgress"); err != nil {
		return err
	}
	f.video.Progress = progress
	f.progress = append(f.progress, progress)
	return nil
}

func (f *fakeVideoStore) MarkCompleted(ctx context.Context, id, videoURL, thumbnailURL string, durationSeconds int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("MarkCompleted"); err != nil {
		return err
	}
	f.video.Status = models.StatusCompleted
	f.video.Progress = 100
	f.video.VideoURL = videoURL
	f.video.ThumbnailURL = thumbnailURL
	f.video.DurationSeconds = durationSeconds
	f.progress = append(f.progress, 100)
	return nil
}

func (f *fakeVideoStore) MarkFailed(ctx context.Context, id, errText string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("MarkFailed"); err != nil {
		return err
	}
	f.video.Status = models.StatusFailed
	f.video.ErrorText = errText
	return nil
}

type charge struct {
	userID string
	amount int
}

type fakeUserStore struct {
	mu      sync.Mutex
	charges []charge
	err     error
}

func (f *fakeUserStore) DecrementCredits(ctx context.Context, id string, amount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.charges = append(f.charges, charge{userID: id, amount: amount})
	return nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	progress  []notify.ProgressEvent
	completes []notify.CompleteEvent
	errs      []notify.ErrorEvent
	failAll   bool
}

func (f *fakeNotifier) Progress(ctx context.Context, userID string, ev notify.ProgressEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errors.New("publish failed")
	}
	f.progress = append(f.progress, ev)
	return nil
}

func (f *fakeNotifier) Complete(ctx context.Context, userID string, ev notify.CompleteEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errors.New("publish failed")
	}
	f.completes = append(f.completes, ev)
	return nil
}

func (f *fakeNotifier) Error(ctx context.Context, userID string, ev notify.ErrorEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errors.New("publish failed")
	}
	f.errs = append(f.errs, ev)
	return nil
}

type fakeGenerator struct {
	name      string
	result    engine.Result
	err       error
	panicWith string

	mu        sync.Mutex
	calls     int
	gotPrompt string
}

func (f *fakeGenerator) Name() string { return f.name }

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (engine.Result, error) {
	f.mu.Lock()
	f.calls++
	f.gotPrompt = prompt
	f.mu.Unlock()
	if f.panicWith != "" {
		panic(f.panicWith)
	}
	return f.result, f.err
}

type fakeRewriter struct {
	res   engine.RewriteResult
	err   error
	calls int
}

func (f *fakeRewriter) Name() string { return "rewriter" }

func (f *fakeRewriter) Rewrite(ctx context.Context, script string) (engine.RewriteResult, error) {
	f.calls++
	return f.res, f.err
}

type fakeThumbnailer struct {
	res engine.Result
	err error
}

func (f *fakeThumbnailer) Name() string { return "thumbnailer" }

func (f *fakeThumbnailer) Thumbnail(ctx context.Context, prompt string) (engine.Result, error) {
	return f.res, f.err
}

type fakeArtifacts struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (f *fakeArtifacts) Provider() string { return "fake" }

func (f *fakeArtifacts) PutObject(ctx context.Context, in ports.PutObjectInput) (ports.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return ports.PutObjectOutput{}, f.err
	}
	f.keys = append(f.keys, in.ObjectKey)
	return ports.PutObjectOutput{ObjectKey: in.ObjectKey, Size: in.Size}, nil
}

func (f *fakeArtifacts) GetObject(ctx context.Context, objectKey string) (io.ReadCloser, string, int64, error) {
	return nil, "", 0, errors.New("not implemented")
}

func (f *fakeArtifacts) DeleteObject(ctx context.Context, objectKey string) error { return nil }

func (f *fakeArtifacts) GetSignedURL(ctx context.Context, objectKey string, expiresIn time.Duration) (ports.SignedURLOutput, error) {
	return ports.SignedURLOutput{}, errors.New("not implemented")
}

// --- harness ---

type harness struct {
	videos      *fakeVideoStore
	users       *fakeUserStore
	notifier    *fakeNotifier
	generator   *fakeGenerator
	rewriter    *fakeRewriter
	thumbnailer *fakeThumbnailer
	artifacts   *fakeArtifacts
	pipeline    *Pipeline
}

func newHarness(video *models.Video) *harness {
	h := &harness{
		videos:   &fakeVideoStore{video: video},
		users:    &fakeUserStore{},
		notifier: &fakeNotifier{},
		generator: &fakeGenerator{
			name:   video.Engine,
			result: engine.Result{Success: true, OutputURL: "https://cdn.example.com/out.mp4"},
		},
		rewriter:    &fakeRewriter{res: engine.RewriteResult{Success: true, Script: "Enhanced version: " + video.Prompt}},
		thumbnailer: &fakeThumbnailer{res: engine.Result{Success: true, OutputURL: "https://cdn.example.com/thumb.jpg"}},
		artifacts:   &fakeArtifacts{},
	}
	h.pipeline = New(Deps{
		Videos:      h.videos,
		Users:       h.users,
		Notifier:    h.notifier,
		Engines:     engine.NewRegistry(h.generator),
		Rewriter:    h.rewriter,
		Thumbnailer: h.thumbnailer,
		Artifacts:   h.artifacts,
	})
	return h
}

func testVideo() *models.Video {
	return &models.Video{
		ID:          "vid-1",
		UserID:      "user-1",
		Title:       "Launch teaser",
		Prompt:      "A product launch in 30 seconds",
		Engine:      "stepfun",
		Status:      models.StatusPending,
		CreditsUsed: 2,
	}
}

func jobFor(v *models.Video) Job {
	return Job{VideoID: v.ID, UserID: v.UserID}
}

// --- tests ---

func TestProcessSuccess(t *testing.T) {
	video := testVideo()
	video.OriginalURL = "https://example.com/source.mp4"
	video.Voice = "en-US-neural"
	h := newHarness(video)

	if err := h.pipeline.Process(context.Background(), jobFor(video)); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	if h.videos.video.Status != models.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", h.videos.video.Status)
	}
	if h.videos.video.VideoURL != "https://cdn.example.com/out.mp4" {
		t.Errorf("video URL = %q", h.videos.video.VideoURL)
	}
	if h.videos.video.ThumbnailURL != "https://cdn.example.com/thumb.jpg" {
		t.Errorf("thumbnail URL = %q", h.videos.video.ThumbnailURL)
	}

	want := []int{10, 20, 30, 40, 60, 80, 90, 95, 100}
	if len(h.videos.progress) != len(want) {
		t.Fatalf("progress sequence = %v, want %v", h.videos.progress, want)
	}
	for i, p := range want {
		if h.videos.progress[i] != p {
			t.Fatalf("progress sequence = %v, want %v", h.videos.progress, want)
		}
	}

	if len(h.users.charges) != 1 || h.users.charges[0] != (charge{userID: "user-1", amount: 2}) {
		t.Errorf("charges = %+v, want single charge of 2 credits for user-1", h.users.charges)
	}
	if len(h.notifier.completes) != 1 {
		t.Fatalf("complete events = %d, want 1", len(h.notifier.completes))
	}
	if len(h.artifacts.keys) != 1 || h.artifacts.keys[0] != "renders/vid-1/manifest.json" {
		t.Errorf("artifact keys = %v", h.artifacts.keys)
	}
}

func TestProcessSkipsOptionalStages(t *testing.T) {
	video := testVideo() // no OriginalURL, no Voice
	h := newHarness(video)

	if err := h.pipeline.Process(context.Background(), jobFor(video)); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	want := []int{10, 30, 40, 60, 90, 95, 100}
	if len(h.videos.progress) != len(want) {
		t.Fatalf("progress sequence = %v, want %v", h.videos.progress, want)
	}
	for i := 1; i < len(h.videos.progress); i++ {
		if h.videos.progress[i] < h.videos.progress[i-1] {
			t.Fatalf("progress not monotonic: %v", h.videos.progress)
		}
	}
}

func TestProcessUsesRewrittenScript(t *testing.T) {
	video := testVideo()
	h := newHarness(video)
	h.rewriter.res = engine.RewriteResult{Success: true, Script: "a much better script"}

	if err := h.pipeline.Process(context.Background(), jobFor(video)); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if h.generator.gotPrompt != "a much better script" {
		t.Errorf("generator prompt = %q, want rewritten script", h.generator.gotPrompt)
	}
}

func TestProcessRewriteFailureKeepsOriginalPrompt(t *testing.T) {
	video := testVideo()
	h := newHarness(video)
	h.rewriter.err = errors.New("chatglm unreachable")

	if err := h.pipeline.Process(context.Background(), jobFor(video)); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if h.generator.gotPrompt != video.Prompt {
		t.Errorf("generator prompt = %q, want original prompt", h.generator.gotPrompt)
	}
	if h.videos.video.Status != models.StatusCompleted {
		t.Errorf("status = %s, want COMPLETED despite rewrite failure", h.videos.video.Status)
	}
}

func TestProcessGenerationFailure(t *testing.T) {
	video := testVideo()
	video.Engine = "pika"
	video.CreditsUsed = 3
	h := newHarness(video)
	h.generator.result = engine.Result{Success: false, Err: "Rate limited by provider"}

	if err := h.pipeline.Process(context.Background(), jobFor(video)); err == nil {
		t.Fatal("Process returned nil, want error")
	}

	if h.videos.video.Status != models.StatusFailed {
		t.Fatalf("status = %s, want FAILED", h.videos.video.Status)
	}
	if !strings.Contains(h.videos.video.ErrorText, "Rate limited") {
		t.Errorf("error text = %q, want provider message", h.videos.video.ErrorText)
	}
	if len(h.users.charges) != 0 {
		t.Errorf("charges = %+v, want none on failure", h.users.charges)
	}
	if len(h.notifier.errs) != 1 {
		t.Fatalf("error events = %d, want 1", len(h.notifier.errs))
	}
	if len(h.notifier.completes) != 0 {
		t.Errorf("complete events = %d, want 0", len(h.notifier.completes))
	}
}

func TestProcessUnknownEngine(t *testing.T) {
	video := testVideo()
	video.Engine = "sora"
	h := newHarness(video)
	// registry was built for "sora" by the harness; rebuild it without it
	h.pipeline = New(Deps{
		Videos:      h.videos,
		Users:       h.users,
		Notifier:    h.notifier,
		Engines:     engine.NewRegistry(),
		Rewriter:    h.rewriter,
		Thumbnailer: h.thumbnailer,
		Artifacts:   h.artifacts,
	})

	if err := h.pipeline.Process(context.Background(), jobFor(video)); err == nil {
		t.Fatal("Process returned nil, want error")
	}

	if h.videos.video.Status != models.StatusFailed {
		t.Fatalf("status = %s, want FAILED", h.videos.video.Status)
	}
	if !strings.Contains(h.videos.video.ErrorText, "Unsupported engine: sora") {
		t.Errorf("error text = %q", h.videos.video.ErrorText)
	}
	if h.generator.calls != 0 {
		t.Errorf("generator invoked %d times, want 0", h.generator.calls)
	}
	if h.rewriter.calls != 0 {
		t.Errorf("rewriter invoked %d times, want 0", h.rewriter.calls)
	}
	if len(h.users.charges) != 0 {
		t.Errorf("charges = %+v, want none", h.users.charges)
	}
}

func TestProcessSkipsTerminalVideo(t *testing.T) {
	video := testVideo()
	video.Status = models.StatusCompleted
	h := newHarness(video)

	if err := h.pipeline.Process(context.Background(), jobFor(video)); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}

	if len(h.videos.progress) != 0 {
		t.Errorf("progress updates = %v, want none for redelivered terminal job", h.videos.progress)
	}
	if len(h.users.charges) != 0 {
		t.Errorf("charges = %+v, want none for redelivered terminal job", h.users.charges)
	}
	if h.generator.calls != 0 {
		t.Errorf("generator invoked %d times, want 0", h.generator.calls)
	}
}

func TestProcessThumbnailFailureTolerated(t *testing.T) {
	video := testVideo()
	h := newHarness(video)
	h.thumbnailer.err = errors.New("vheer timeout")

	if err := h.pipeline.Process(context.Background(), jobFor(video)); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if h.videos.video.Status != models.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", h.videos.video.Status)
	}
	if h.videos.video.ThumbnailURL != "" {
		t.Errorf("thumbnail URL = %q, want empty", h.videos.video.ThumbnailURL)
	}
}

func TestProcessNotificationFailuresDropped(t *testing.T) {
	video := testVideo()
	h := newHarness(video)
	h.notifier.failAll = true

	if err := h.pipeline.Process(context.Background(), jobFor(video)); err != nil {
		t.Fatalf("Process returned error: %v", err)
	}
	if h.videos.video.Status != models.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED despite publish failures", h.videos.video.Status)
	}
}

func TestProcessGeneratorPanicFailsJob(t *testing.T) {
	video := testVideo()
	h := newHarness(video)
	h.generator.panicWith = "nil pointer in adapter"

	if err := h.pipeline.Process(context.Background(), jobFor(video)); err == nil {
		t.Fatal("Process returned nil, want error")
	}
	if h.videos.video.Status != models.StatusFailed {
		t.Fatalf("status = %s, want FAILED after adapter panic", h.videos.video.Status)
	}
	if len(h.users.charges) != 0 {
		t.Errorf("charges = %+v, want none", h.users.charges)
	}
}

func TestProcessManifestUploadFailure(t *testing.T) {
	video := testVideo()
	h := newHarness(video)
	h.artifacts.err = errors.New("bucket unavailable")

	if err := h.pipeline.Process(context.Background(), jobFor(video)); err == nil {
		t.Fatal("Process returned nil, want error")
	}
	if h.videos.video.Status != models.StatusFailed {
		t.Fatalf("status = %s, want FAILED", h.videos.video.Status)
	}
	if len(h.users.charges) != 0 {
		t.Errorf("charges = %+v, want none when upload fails", h.users.charges)
	}
}

func TestProcessProgressPersistFailure(t *testing.T) {
	video := testVideo()
	h := newHarness(video)
	h.videos.failOn = map[string]error{"UpdateProgress": errors.New("db down")}

	if err := h.pipeline.Process(context.Background(), jobFor(video)); err == nil {
		t.Fatal("Process returned nil, want error")
	}
	if h.videos.video.Status != models.StatusFailed {
		t.Fatalf("status = %s, want FAILED", h.videos.video.Status)
	}
}
