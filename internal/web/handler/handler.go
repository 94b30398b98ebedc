// Package handler exposes the web front end over gin.
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/web/apiclient"
	"github.com/rl1809/storefront/internal/web/service"
	"github.com/rl1809/storefront/pkg/apperr"
	"github.com/rl1809/storefront/pkg/metrics"
)

const (
	SessionCookie = "storefront_session"
	principalKey  = "principal"
)

// Storefront is the part of the API the pages read from directly.
type Storefront interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	ListOrders(ctx context.Context, username string) ([]domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	CreateOrder(ctx context.Context, customerID, productID string, quantity int, idempotencyKey string) (*domain.Order, error)
	UpdateOrder(ctx context.Context, id string, in apiclient.OrderUpdate) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id, status string) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id string) error
	ListCustomers(ctx context.Context) ([]domain.Customer, error)
	CreateCustomer(ctx context.Context, in apiclient.CustomerRequest) (*domain.Customer, error)
	UpdateCustomer(ctx context.Context, id string, in apiclient.CustomerRequest) (*domain.Customer, error)
	DeleteCustomer(ctx context.Context, id string) error
	UploadProofOfPayment(ctx context.Context, fileName string, file io.Reader, orderID, customerName string) (*domain.UploadResult, error)
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type Handler struct {
	auth       *service.AuthService
	cart       *service.CartService
	api        Storefront
	sessionTTL time.Duration
	logger     *slog.Logger
}

func New(auth *service.AuthService, cart *service.CartService, api Storefront, sessionTTL time.Duration, logger *slog.Logger) *Handler {
	return &Handler{
		auth:       auth,
		cart:       cart,
		api:        api,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// Router builds the gin engine. m may be nil.
func (h *Handler) Router(m *metrics.ServerMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if m != nil {
		r.Use(m.Gin())
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/register", h.Register)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)

	r.GET("/products", h.ListProducts)
	r.GET("/products/:id", h.GetProduct)

	authed := r.Group("/", h.RequireAuth())
	{
		authed.GET("/cart", h.GetCart)
		authed.POST("/cart/items", h.AddCartItem)
		authed.PUT("/cart/items/:productId", h.UpdateCartItem)
		authed.DELETE("/cart/items/:productId", h.RemoveCartItem)
		authed.POST("/cart/checkout", h.Checkout)
		authed.GET("/orders/mine", h.MyOrders)
		authed.POST("/uploads/proof-of-payment", h.UploadProofOfPayment)
	}

	admin := r.Group("/admin", h.RequireAuth(), h.RequireAdmin())
	{
		admin.GET("/orders", h.AdminListOrders)
		admin.POST("/orders", h.AdminCreateOrder)
		admin.GET("/orders/:id", h.AdminGetOrder)
		admin.PUT("/orders/:id", h.AdminUpdateOrder)
		admin.PATCH("/orders/:id/status", h.AdminUpdateOrderStatus)
		admin.DELETE("/orders/:id", h.AdminDeleteOrder)
		admin.GET("/customers", h.AdminListCustomers)
		admin.POST("/customers", h.AdminCreateCustomer)
		admin.PUT("/customers/:id", h.AdminUpdateCustomer)
		admin.DELETE("/customers/:id", h.AdminDeleteCustomer)
	}
	return r
}

func sessionToken(c *gin.Context) string {
	if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
		return token
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// RequireAuth resolves the session into a domain.Principal stored on the
// context; requests without a live session get 401.
func (h *Handler) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := h.auth.Resolve(c.Request.Context(), sessionToken(c))
		if err != nil {
			h.fail(c, err)
			c.Abort()
			return
		}
		if p == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Error:   string(apperr.CodeUnauthorized),
				Message: "Please log in.",
			})
			return
		}
		c.Set(principalKey, *p)
		c.Next()
	}
}

func (h *Handler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !principal(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Error:   string(apperr.CodeForbidden),
				Message: "Administrator role required",
			})
			return
		}
		c.Next()
	}
}

func principal(c *gin.Context) domain.Principal {
	v, _ := c.Get(principalKey)
	p, _ := v.(domain.Principal)
	return p
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

// fail writes err as an ErrorResponse. API errors keep their status.
func (h *Handler) fail(c *gin.Context, err error) {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.Code
		if code == "" {
			code = string(apperr.CodeInternal)
		}
		c.JSON(apiErr.Status, ErrorResponse{Error: code, Message: apiErr.Message})
		return
	}

	code := apperr.CodeOf(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			slog.String("route", c.FullPath()), slog.Any("error", err))
		c.JSON(status, ErrorResponse{Error: string(code), Message: err.Error()})
		return
	}
	c.JSON(status, ErrorResponse{Error: string(code), Message: apperr.Message(err)})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   string(apperr.CodeInvalidInput),
		Message: "Invalid request body",
		Details: err.Error(),
	})
}

func notFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: string(apperr.CodeNotFound), Message: message})
}
