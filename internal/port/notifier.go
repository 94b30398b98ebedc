package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

type OrderNotifier interface {
	PublishOrder(ctx context.Context, event domain.OrderEvent) error
	Close() error
}
