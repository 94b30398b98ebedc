package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const PartitionOrder = "Order"

type OrderStatus string

const (
	OrderStatusSubmitted  OrderStatus = "Submitted"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusCompleted  OrderStatus = "Completed"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// OrderStatuses lists the statuses offered to administrators. Updates are
// not restricted to this set.
var OrderStatuses = []OrderStatus{
	OrderStatusSubmitted,
	OrderStatusProcessing,
	OrderStatusCompleted,
	OrderStatusCancelled,
}

// Order snapshots the customer username and the product name, image and
// price at creation time. Later product or customer edits do not flow back.
type Order struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customerId"`
	Username        string          `json:"username"`
	ProductID       string          `json:"productId"`
	ProductName     string          `json:"productName"`
	ProductImageURL string          `json:"productImageUrl,omitempty"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	TotalPrice      decimal.Decimal `json:"totalAmount"`
	OrderDate       time.Time       `json:"orderDateUtc"`
	Status          OrderStatus     `json:"status"`
	Version         int             `json:"version"` // optimistic locking
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Total returns unit price times quantity.
func Total(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

// OrderEvent is published to the notification queue after an order is placed.
type OrderEvent struct {
	Type       string          `json:"type"`
	OrderID    string          `json:"orderId"`
	CustomerID string          `json:"customerId"`
	Username   string          `json:"username"`
	ProductID  string          `json:"productId"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"totalAmount"`
	OccurredAt time.Time       `json:"occurredAt"`
}

const EventOrderPlaced = "OrderPlaced"

func NewOrderPlaced(o Order) OrderEvent {
	return OrderEvent{
		Type:       EventOrderPlaced,
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		Username:   o.Username,
		ProductID:  o.ProductID,
		Quantity:   o.Quantity,
		TotalPrice: o.TotalPrice,
		OccurredAt: o.OrderDate,
	}
}
