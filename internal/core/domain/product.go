package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const PartitionProduct = "Product"

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"productName"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stockAvailable"`
	ImageURL    string          `json:"imageUrl"`
	Version     int             `json:"version"` // optimistic locking
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
