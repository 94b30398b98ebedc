package domain

import "time"

// CartLine is keyed by (UserID, ProductID); at most one row per pair.
type CartLine struct {
	UserID    int64     `json:"userId"`
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"addedAt"`
}
