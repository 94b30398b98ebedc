package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rl1809/storefront/internal/web/apiclient"
)

type AdminCreateOrderRequest struct {
	CustomerID string `json:"customerId" binding:"required"`
	ProductID  string `json:"productId" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,min=1"`
}

// AdminUpdateOrderRequest edits quantity, status and order date. Omitted
// fields keep their current value.
type AdminUpdateOrderRequest struct {
	Quantity  *int       `json:"quantity" binding:"omitempty,min=1"`
	Status    *string    `json:"status"`
	OrderDate *time.Time `json:"orderDateUtc"`
}

type AdminCustomerRequest struct {
	Name            string `json:"name"`
	Surname         string `json:"surname"`
	Username        string `json:"username" binding:"required"`
	Email           string `json:"email" binding:"required,email"`
	ShippingAddress string `json:"shippingAddress"`
}

func (r AdminCustomerRequest) apiRequest() apiclient.CustomerRequest {
	return apiclient.CustomerRequest{
		Name:            r.Name,
		Surname:         r.Surname,
		Username:        r.Username,
		Email:           r.Email,
		ShippingAddress: r.ShippingAddress,
	}
}

// AdminCreateOrder places an order on behalf of any customer. The
// Idempotency-Key header is forwarded when present.
func (h *Handler) AdminCreateOrder(c *gin.Context) {
	var req AdminCreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	order, err := h.api.CreateOrder(c.Request.Context(), req.CustomerID, req.ProductID, req.Quantity,
		c.GetHeader("Idempotency-Key"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) AdminGetOrder(c *gin.Context) {
	order, err := h.api.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if order == nil {
		notFound(c, "Order not found.")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) AdminUpdateOrder(c *gin.Context) {
	var req AdminUpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	order, err := h.api.UpdateOrder(c.Request.Context(), c.Param("id"), apiclient.OrderUpdate{
		Quantity:  req.Quantity,
		Status:    req.Status,
		OrderDate: req.OrderDate,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	if order == nil {
		notFound(c, "Order not found.")
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) AdminCreateCustomer(c *gin.Context) {
	var req AdminCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	customer, err := h.api.CreateCustomer(c.Request.Context(), req.apiRequest())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

func (h *Handler) AdminUpdateCustomer(c *gin.Context) {
	var req AdminCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	customer, err := h.api.UpdateCustomer(c.Request.Context(), c.Param("id"), req.apiRequest())
	if err != nil {
		h.fail(c, err)
		return
	}
	if customer == nil {
		notFound(c, "Customer not found.")
		return
	}
	c.JSON(http.StatusOK, customer)
}
