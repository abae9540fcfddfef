// Package handlers implements the ClipPulse HTTP API endpoints.
package handlers

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"clippulse/internal/pkg/logger"
	"clippulse/internal/ports"
	"clippulse/internal/store"
	"clippulse/internal/worker/queue"
)

type Deps struct {
	Pool  *pgxpool.Pool
	RDB   *redis.Client
	Queue *queue.RedisQueue
	SP    ports.StorageProvider
	Log   *logger.Logger
}

type Handler struct {
	pool   *pgxpool.Pool
	rdb    *redis.Client
	videos *store.Videos
	users  *store.Users
	queue  *queue.RedisQueue
	sp     ports.StorageProvider
	log    *logger.Logger
}

func New(d Deps) *Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}
	return &Handler{
		pool:   d.Pool,
		rdb:    d.RDB,
		videos: store.NewVideos(d.Pool),
		users:  store.NewUsers(d.Pool),
		queue:  d.Queue,
		sp:     d.SP,
		log:    log.WithComponent("httpapi"),
	}
}
