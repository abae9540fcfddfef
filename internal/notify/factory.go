package notify

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

// TransportConfig selects the pub/sub transport behind the notifier.
type TransportConfig struct {
	// Transport is "redis" (default) or "amqp".
	Transport string
	// AMQPURL is required when Transport is "amqp".
	AMQPURL string
}

// NewPublisher builds the configured transport. The returned cleanup closes
// any connection the factory opened; it is a no-op for the redis transport,
// whose client is owned by the caller.
func NewPublisher(cfg TransportConfig, rdb *redis.Client) (Publisher, func() error, error) {
	switch cfg.Transport {
	case "", "redis":
		return NewRedisPublisher(rdb), func() error { return nil }, nil

	case "amqp":
		if cfg.AMQPURL == "" {
			return nil, nil, fmt.Errorf("amqp transport requires AMQP_URL")
		}
		conn, err := amqp.Dial(cfg.AMQPURL)
		if err != nil {
			return nil, nil, fmt.Errorf("amqp dial: %w", err)
		}
		pub, err := NewAMQPPublisher(conn)
		if err != nil {
			conn.Close()
			return nil, nil, err
		}
		cleanup := func() error {
			_ = pub.Close()
			return conn.Close()
		}
		return pub, cleanup, nil

	default:
		return nil, nil, fmt.Errorf("unknown notify transport: %s", cfg.Transport)
	}
}
