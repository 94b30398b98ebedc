package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/rl1809/storefront/internal/core/domain"
)

func encodeEvent(event domain.OrderEvent) ([]byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order event: %w", err)
	}
	return body, nil
}

// LogNotifier only logs events. Used when no broker is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) PublishOrder(ctx context.Context, event domain.OrderEvent) error {
	l.logger.InfoContext(ctx, "order event",
		slog.String("type", event.Type),
		slog.String("order_id", event.OrderID),
		slog.String("product_id", event.ProductID),
		slog.Int("quantity", event.Quantity))
	return nil
}

func (l *LogNotifier) Close() error { return nil }
