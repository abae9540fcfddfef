// Package httpapi wires the ClipPulse HTTP routes.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"clippulse/internal/httpapi/handlers"
	"clippulse/internal/httpkit"
	"clippulse/internal/pkg/logger"
	"clippulse/internal/pkg/middleware"
	"clippulse/internal/ports"
	"clippulse/internal/worker/queue"
)

type Deps struct {
	Pool           *pgxpool.Pool
	RDB            *redis.Client
	Queue          *queue.RedisQueue
	SP             ports.StorageProvider
	AllowedOrigins []string
	Log            *logger.Logger
}

func NewRouter(d Deps) http.Handler {
	log := d.Log
	if log == nil {
		log = logger.NewDefault()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(log))
	r.Use(middleware.Recovery(log))

	allowedOrigins := d.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	r.Use(httpkit.CORS(httpkit.CORSOptions{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", middleware.UserIDHeader},
		AllowCredentials: false,
		MaxAgeSeconds:    600,
	}))

	h := handlers.New(handlers.Deps{
		Pool:  d.Pool,
		RDB:   d.RDB,
		Queue: d.Queue,
		SP:    d.SP,
		Log:   log,
	})

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	// Everything below requires the authenticated user id from the
	// fronting OAuth layer.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireUser)

		r.Post("/videos", h.PostVideo)
		r.Get("/videos", h.ListVideos)
		r.Get("/videos/{videoId}", h.GetVideo)
		r.Post("/videos/{videoId}/watermark/remove", h.RemoveWatermark)
		r.Post("/videos/{videoId}/youtube", h.SetYouTubeMetadata)

		r.Get("/billing/usage", h.BillingUsage)

		r.Get("/referrals", h.GetReferrals)
		r.Post("/referrals/redeem", h.RedeemReferral)
	})

	return r
}
