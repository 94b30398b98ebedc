package notify

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/rl1809/storefront/internal/core/domain"
)

// RabbitNotifier publishes order events as persistent JSON messages to a
// durable queue through the default exchange.
type RabbitNotifier struct {
	pool      *ChannelPool
	queueName string
}

func NewRabbitNotifier(pool *ChannelPool, queueName string) *RabbitNotifier {
	return &RabbitNotifier{pool: pool, queueName: queueName}
}

func (r *RabbitNotifier) PublishOrder(ctx context.Context, event domain.OrderEvent) error {
	body, err := encodeEvent(event)
	if err != nil {
		return err
	}

	ch, err := r.pool.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get channel from pool: %w", err)
	}
	defer r.pool.Put(ch)

	err = ch.PublishWithContext(ctx,
		"",          // exchange
		r.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    event.OrderID,
			Type:         event.Type,
			Timestamp:    event.OccurredAt,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish order event: %w", err)
	}
	return nil
}

func (r *RabbitNotifier) Close() error {
	return r.pool.Close()
}
