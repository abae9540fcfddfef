// Package config loads process configuration from the environment.
// A .env file is honored when present so local runs match compose files.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// API is the configuration for the client-facing HTTP service.
type API struct {
	HTTPPort    string   `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL string   `env:"DATABASE_URL,required"`
	RedisAddr   string   `env:"REDIS_ADDR,required"`
	QueueName   string   `env:"RENDER_QUEUE_NAME" envDefault:"clippulse:render"`
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Worker is the configuration for the render worker.
type Worker struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisAddr   string `env:"REDIS_ADDR,required"`
	QueueName   string `env:"RENDER_QUEUE_NAME" envDefault:"clippulse:render"`
	Concurrency int    `env:"WORKER_CONCURRENCY" envDefault:"4"`
	MetricsPort int    `env:"METRICS_PORT" envDefault:"9090"`

	NotifyTransport string `env:"NOTIFY_TRANSPORT" envDefault:"redis"`
	AMQPURL         string `env:"AMQP_URL"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	Engines Engines
}

// Engines carries the provider API keys. Keys are optional while provider
// calls are stubbed; real integrations will require them.
type Engines struct {
	StepFunAPIKey   string `env:"STEPFUN_API_KEY"`
	DashScopeAPIKey string `env:"DASHSCOPE_API_KEY"`
	PikaAPIKey      string `env:"PIKA_API_KEY"`
	InVideoAPIKey   string `env:"INVIDEO_API_KEY"`
	ChatGLMAPIKey   string `env:"CHATGLM_API_KEY"`
}

// LoadAPI parses API configuration from the environment.
func LoadAPI() (API, error) {
	_ = godotenv.Load()
	var cfg API
	if err := env.Parse(&cfg); err != nil {
		return API{}, fmt.Errorf("parse api config: %w", err)
	}
	return cfg, nil
}

// LoadWorker parses worker configuration from the environment.
func LoadWorker() (Worker, error) {
	_ = godotenv.Load()
	var cfg Worker
	if err := env.Parse(&cfg); err != nil {
		return Worker{}, fmt.Errorf("parse worker config: %w", err)
	}
	return cfg, nil
}
