package notify

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange is the topic exchange notifications are published to when the
// amqp transport is selected. Routing key is the user channel.
const Exchange = "clippulse.notify"

// AMQPPublisher pushes events through a RabbitMQ topic exchange.
type AMQPPublisher struct {
	ch *amqp.Channel
}

// NewAMQPPublisher declares the exchange and returns a publisher bound to it.
func NewAMQPPublisher(conn *amqp.Connection) (*AMQPPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, err
	}
	return &AMQPPublisher{ch: ch}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, channel, event string, payload any) error {
	body, err := json.Marshal(envelope{Event: event, Data: payload})
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, Exchange, channel, false, false, amqp.Publishing{
		ContentType: "application/json",
		Type:        event,
		Body:        body,
	})
}

func (p *AMQPPublisher) Close() error {
	return p.ch.Close()
}
