package worker

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"clippulse/internal/engine"
	"clippulse/internal/notify"
	"clippulse/internal/pkg/logger"
	"clippulse/internal/storage"
)

type Deps struct {
	Pool        *pgxpool.Pool
	RDB         *redis.Client
	QueueName   string
	Concurrency int
	Publisher   notify.Publisher
	Engines     engine.Config
	Artifacts   storage.Provider
	Log         *logger.Logger
}
