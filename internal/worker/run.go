package worker

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"clippulse/internal/engine"
	"clippulse/internal/metrics"
	"clippulse/internal/notify"
	"clippulse/internal/pkg/logger"
	"clippulse/internal/store"
	"clippulse/internal/worker/pipeline"
	"clippulse/internal/worker/queue"
)

// Run consumes render jobs until the context is cancelled. Concurrency
// worker slots share one queue; BRPOP hands each job to exactly one slot.
func Run(ctx context.Context, d Deps) error {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	log = log.WithComponent("worker")

	q := queue.NewRedisQueue(d.RDB, d.QueueName)
	reg := engine.Default(d.Engines)

	p := pipeline.New(pipeline.Deps{
		Videos:      store.NewVideos(d.Pool),
		Users:       store.NewUsers(d.Pool),
		Notifier:    notify.New(d.Publisher),
		Engines:     reg,
		Rewriter:    engine.NewChatGLM(d.Engines.ChatGLMAPIKey),
		Thumbnailer: engine.NewVheer(),
		Artifacts:   d.Artifacts,
		Log:         log,
	})

	concurrency := d.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	log.Info("worker starting", "concurrency", concurrency, "queue", d.QueueName)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < concurrency; i++ {
		slot := i
		slotLog := &logger.Logger{Logger: log.Logger.With("slot", slot)}
		g.Go(func() error {
			return consume(gctx, q, p, slotLog)
		})
	}
	return g.Wait()
}

func consume(ctx context.Context, q *queue.RedisQueue, p *pipeline.Pipeline, log *logger.Logger) error {
	for {
		select {
		case <-ctx.Done():
			log.Info("worker slot stopping")
			return ctx.Err()
		default:
		}

		// Bounded dequeue so cancellation is observed between jobs.
		popCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		job, err := q.Dequeue(popCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				log.Info("worker slot stopping")
				return ctx.Err()
			}
			log.Warn("queue dequeue error, retrying", "error", err.Error())
			time.Sleep(1 * time.Second)
			continue
		}

		if job.VideoID == "" {
			continue
		}

		jobCtx := logger.ContextWithVideoID(ctx, job.VideoID)
		jobLog := log.WithVideoID(job.VideoID).WithUserID(job.UserID)

		jobLog.Info("processing video")
		startTime := time.Now()
		metrics.ActiveWorkers.Inc()

		err = p.Process(jobCtx, job)
		metrics.ActiveWorkers.Dec()

		if err != nil {
			jobLog.Error("video processing failed",
				"error", err.Error(),
				"duration_ms", time.Since(startTime).Milliseconds(),
			)
		} else {
			jobLog.Info("video processing finished",
				"duration_ms", time.Since(startTime).Milliseconds(),
			)
		}
	}
}
