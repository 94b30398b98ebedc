package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/pkg/logging"
)

func sampleEvent() domain.OrderEvent {
	return domain.OrderEvent{
		Type:       domain.EventOrderPlaced,
		OrderID:    "o-1",
		CustomerID: "c-1",
		Username:   "ada",
		ProductID:  "p-1",
		Quantity:   2,
		TotalPrice: decimal.RequireFromString("25.00"),
		OccurredAt: time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC),
	}
}

func TestEncodeEvent(t *testing.T) {
	body, err := encodeEvent(sampleEvent())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "OrderPlaced", decoded["type"])
	assert.Equal(t, "o-1", decoded["orderId"])
	assert.Equal(t, "25", decoded["totalAmount"])
	assert.Equal(t, "2026-02-03T04:05:06Z", decoded["occurredAt"])
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(logging.NewWithWriter(&buf, "api", "info"))

	require.NoError(t, n.PublishOrder(context.Background(), sampleEvent()))
	assert.Contains(t, buf.String(), `"order_id":"o-1"`)
	assert.NoError(t, n.Close())
}

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"a:9092", "b:9092"}, ParseBrokers(" a:9092, ,b:9092 "))
	assert.Empty(t, ParseBrokers(""))

	_, err := NewKafkaNotifier(nil, "order-notifications")
	assert.Error(t, err)
}

func TestRabbitNotifier_Publish(t *testing.T) {
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		t.Skip("RABBITMQ_URL not set")
	}
	queue := "order-notifications-test"

	pool, err := NewChannelPool(url, queue, 2, logging.Discard())
	require.NoError(t, err)
	n := NewRabbitNotifier(pool, queue)
	defer n.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, n.PublishOrder(ctx, sampleEvent()))

	conn, err := amqp.Dial(url)
	require.NoError(t, err)
	defer conn.Close()
	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	var msg amqp.Delivery
	var ok bool
	for i := 0; i < 20 && !ok; i++ {
		msg, ok, err = ch.Get(queue, true)
		require.NoError(t, err)
		if !ok {
			time.Sleep(50 * time.Millisecond)
		}
	}
	require.True(t, ok, "expected a message on the queue")
	assert.Equal(t, "o-1", msg.MessageId)
	assert.Equal(t, "application/json", msg.ContentType)
}

func TestKafkaNotifier_Publish(t *testing.T) {
	brokers := ParseBrokers(os.Getenv("KAFKA_BROKERS"))
	if len(brokers) == 0 {
		t.Skip("KAFKA_BROKERS not set")
	}
	n, err := NewKafkaNotifier(brokers, "order-notifications-test")
	require.NoError(t, err)
	defer n.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	assert.NoError(t, n.PublishOrder(ctx, sampleEvent()))
}
