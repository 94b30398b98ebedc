package handler

import (
	"net/http"
	"time"

	"github.com/rl1809/storefront/internal/core/service"
)

const IdempotencyHeader = "Idempotency-Key"

type CreateOrderHTTPRequest struct {
	CustomerID string `json:"customerId"`
	ProductID  string `json:"productId"`
	Quantity   int    `json:"quantity"`
}

// UpdateOrderHTTPRequest only exposes the editable fields; anything else in
// the body is ignored.
type UpdateOrderHTTPRequest struct {
	Quantity  *int       `json:"quantity"`
	Status    *string    `json:"status"`
	OrderDate *time.Time `json:"orderDateUtc"`
}

type UpdateStatusHTTPRequest struct {
	Status string `json:"status"`
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.GetOrder(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderHTTPRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), service.CreateOrderRequest{
		CustomerID:     req.CustomerID,
		ProductID:      req.ProductID,
		Quantity:       req.Quantity,
		IdempotencyKey: r.Header.Get(IdempotencyHeader),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *HTTPHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrderHTTPRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	order, err := h.orders.UpdateOrder(r.Context(), r.PathValue("id"), service.OrderPatch{
		Quantity:  req.Quantity,
		Status:    req.Status,
		OrderDate: req.OrderDate,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *HTTPHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusHTTPRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	order, err := h.orders.UpdateOrderStatus(r.Context(), r.PathValue("id"), req.Status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *HTTPHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.orders.DeleteOrder(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
