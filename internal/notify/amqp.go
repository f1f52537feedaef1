package notify

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"georem/internal/domain"
)

var _ Fanout = (*AMQPFanout)(nil)

const (
	exchangeName = "georem.events"
	queueName    = "transition_alerts"
)

// AMQPFanout mirrors confirmed transitions onto a fanout exchange for
// downstream consumers (analytics, companion devices).
type AMQPFanout struct {
	ch *amqp.Channel
}

func NewAMQPFanout(conn *amqp.Connection) (*AMQPFanout, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("amqp channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchangeName, "fanout", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(queueName, "", exchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	return &AMQPFanout{ch: ch}, nil
}

func (f *AMQPFanout) Publish(ctx context.Context, payload domain.NotificationPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	return f.ch.PublishWithContext(ctx, exchangeName, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
		Timestamp:   payload.OccurredAt,
		MessageId:   payload.Tag,
	})
}

func (f *AMQPFanout) Close() error {
	return f.ch.Close()
}
