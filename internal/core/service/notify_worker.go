package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const publishTimeout = 5 * time.Second

// PublishLoop drains queue until it is closed, publishing every event.
// Failures are logged; an order stays placed whatever happens here.
func PublishLoop(id int, queue <-chan domain.OrderEvent, notifier port.OrderNotifier, logger *slog.Logger) {
	for event := range queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)

		if err := notifier.PublishOrder(ctx, event); err != nil {
			logger.Error("failed to publish order event",
				slog.Int("worker", id), slog.String("order_id", event.OrderID), slog.Any("error", err))
		} else {
			logger.Debug("published order event",
				slog.Int("worker", id), slog.String("order_id", event.OrderID))
		}

		cancel()
	}
}
