package handler

import (
	"net/http"

	"github.com/rl1809/storefront/internal/core/service"
)

type CustomerRequest struct {
	Name            string `json:"name"`
	Surname         string `json:"surname"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	ShippingAddress string `json:"shippingAddress"`
}

func (c CustomerRequest) input() service.CustomerInput {
	return service.CustomerInput{
		Name:            c.Name,
		Surname:         c.Surname,
		Username:        c.Username,
		Email:           c.Email,
		ShippingAddress: c.ShippingAddress,
	}
}

func (h *HTTPHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.ListCustomers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

func (h *HTTPHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := h.customers.GetCustomer(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (h *HTTPHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	customer, err := h.customers.CreateCustomer(r.Context(), req.input())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, customer)
}

func (h *HTTPHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	customer, err := h.customers.UpdateCustomer(r.Context(), r.PathValue("id"), req.input())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (h *HTTPHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := h.customers.DeleteCustomer(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
