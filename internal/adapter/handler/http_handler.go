package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/pkg/apperr"
	"github.com/rl1809/storefront/pkg/metrics"
)

const maxUploadMemory = 32 << 20

type HTTPHandler struct {
	customers *service.CustomerService
	products  *service.ProductService
	orders    *service.OrderService
	uploads   *service.UploadService
	logger    *slog.Logger
}

type ErrorResponse struct {
	Error   apperr.Code `json:"error"`
	Message string      `json:"message"`
}

func NewHTTPHandler(
	customers *service.CustomerService,
	products *service.ProductService,
	orders *service.OrderService,
	uploads *service.UploadService,
	logger *slog.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		customers: customers,
		products:  products,
		orders:    orders,
		uploads:   uploads,
		logger:    logger,
	}
}

// Routes registers every API route on a new mux. m may be nil.
func (h *HTTPHandler) Routes(m *metrics.ServerMetrics) http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern, name string, fn http.HandlerFunc) {
		var next http.Handler = fn
		if m != nil {
			next = m.Wrap(name, next)
		}
		mux.Handle(pattern, next)
	}

	handle("GET /health", "health", h.HealthCheck)

	handle("GET /api/customers", "customers.list", h.ListCustomers)
	handle("POST /api/customers", "customers.create", h.CreateCustomer)
	handle("GET /api/customers/{id}", "customers.get", h.GetCustomer)
	handle("PUT /api/customers/{id}", "customers.update", h.UpdateCustomer)
	handle("DELETE /api/customers/{id}", "customers.delete", h.DeleteCustomer)

	handle("GET /api/products", "products.list", h.ListProducts)
	handle("POST /api/products", "products.create", h.CreateProduct)
	handle("GET /api/products/{id}", "products.get", h.GetProduct)
	handle("PUT /api/products/{id}", "products.update", h.UpdateProduct)
	handle("DELETE /api/products/{id}", "products.delete", h.DeleteProduct)

	handle("GET /api/orders", "orders.list", h.ListOrders)
	handle("POST /api/orders", "orders.create", h.CreateOrder)
	handle("GET /api/orders/{id}", "orders.get", h.GetOrder)
	handle("PUT /api/orders/{id}", "orders.update", h.UpdateOrder)
	handle("PATCH /api/orders/{id}/status", "orders.status", h.UpdateOrderStatus)
	handle("DELETE /api/orders/{id}", "orders.delete", h.DeleteOrder)

	handle("POST /api/uploads/proof-of-payment", "uploads.proof", h.UploadProofOfPayment)

	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}
	return mux
}

// WithTimeout bounds each request's context by d. Storage calls see the
// deadline and the handler still writes its own response.
func WithTimeout(next http.Handler, d time.Duration) http.Handler {
	if d <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), d)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func statusFor(code apperr.Code) int {
	switch code {
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeInvalidInput:
		return http.StatusBadRequest
	case apperr.CodeConflict, apperr.CodeAlreadyExists:
		return http.StatusConflict
	case apperr.CodeUnauthorized:
		return http.StatusUnauthorized
	case apperr.CodeForbidden:
		return http.StatusForbidden
	case apperr.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError maps err onto a status code. Not found has an empty body;
// everything else carries the error envelope.
func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperr.CodeOf(err)
	status := statusFor(code)
	if status == http.StatusNotFound {
		w.WriteHeader(status)
		return
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.Any("error", err))
		writeJSON(w, status, ErrorResponse{Error: code, Message: err.Error()})
		return
	}
	writeJSON(w, status, ErrorResponse{Error: code, Message: apperr.Message(err)})
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: apperr.CodeInvalidInput, Message: message})
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Wrap(apperr.CodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && strings.EqualFold(mediaType, "multipart/form-data")
}
