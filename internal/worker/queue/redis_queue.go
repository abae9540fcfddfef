// Package queue moves render jobs between the API and the worker over a
// Redis list. LPUSH on submit, BRPOP on consume: FIFO with blocking reads.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"clippulse/internal/worker/pipeline"
)

type RedisQueue struct {
	rdb       *redis.Client
	queueName string
}

func NewRedisQueue(rdb *redis.Client, queueName string) *RedisQueue {
	return &RedisQueue{rdb: rdb, queueName: queueName}
}

// Enqueue pushes a job onto the queue. Called by the API after the video
// record is persisted, so a consumed job always resolves to a record.
func (q *RedisQueue) Enqueue(ctx context.Context, job pipeline.Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.queueName, payload).Err(); err != nil {
		return fmt.Errorf("enqueue job: %w", err)
	}
	return nil
}

// Dequeue blocks until a job is available (BRPOP with no timeout) or the
// context is cancelled.
func (q *RedisQueue) Dequeue(ctx context.Context) (pipeline.Job, error) {
	res, err := q.rdb.BRPop(ctx, 0, q.queueName).Result()
	if err != nil {
		return pipeline.Job{}, err
	}
	if len(res) < 2 {
		return pipeline.Job{}, fmt.Errorf("malformed brpop reply")
	}

	var job pipeline.Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return pipeline.Job{}, fmt.Errorf("decode job payload: %w", err)
	}
	return job, nil
}
