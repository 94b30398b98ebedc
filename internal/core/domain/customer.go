package domain

import "time"

const PartitionCustomer = "Customer"

type Customer struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Surname         string    `json:"surname"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	ShippingAddress string    `json:"shippingAddress"`
	Version         int       `json:"version"` // optimistic locking
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
