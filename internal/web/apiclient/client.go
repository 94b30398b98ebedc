// Package apiclient talks to the storefront API over HTTP.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rl1809/storefront/internal/core/domain"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api returned status %d", e.Status)
	}
	return fmt.Sprintf("api returned status %d: %s", e.Status, e.Message)
}

// InsufficientStock reports whether the API refused an order for lack of stock.
func (e *APIError) InsufficientStock() bool {
	return e.Status == http.StatusBadRequest && strings.HasPrefix(e.Message, "Insufficient stock")
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type CustomerRequest struct {
	Name            string `json:"name"`
	Surname         string `json:"surname"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	ShippingAddress string `json:"shippingAddress"`
}

type createOrderRequest struct {
	CustomerID string `json:"customerId"`
	ProductID  string `json:"productId"`
	Quantity   int    `json:"quantity"`
}

// do sends a request and decodes a JSON response into out when out is not
// nil. Every non-2xx status, 404 included, comes back as *APIError.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out != nil && len(body) > 0 {
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("failed to unmarshal response: %w", err)
			}
		}
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode}
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		apiErr.Code = eb.Error
		apiErr.Message = eb.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	if apiErr.Status == http.StatusNotFound && apiErr.Code == "" {
		apiErr.Code = "NOT_FOUND"
	}
	return apiErr
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// lookup runs do and turns a 404 into found=false.
func (c *Client) lookup(req *http.Request, out any) (found bool, err error) {
	if err := c.do(req, out); err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) get(ctx context.Context, path string, out any) (bool, error) {
	req, err := c.newJSONRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return false, err
	}
	return c.lookup(req, out)
}

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if _, err := c.get(ctx, "/api/products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProduct returns nil without error when the product does not exist.
func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	found, err := c.get(ctx, "/api/products/"+url.PathEscape(id), &p)
	if err != nil || !found {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListCustomers(ctx context.Context) ([]domain.Customer, error) {
	var customers []domain.Customer
	if _, err := c.get(ctx, "/api/customers", &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

func (c *Client) CreateCustomer(ctx context.Context, in CustomerRequest) (*domain.Customer, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/api/customers", in)
	if err != nil {
		return nil, err
	}
	var customer domain.Customer
	if err := c.do(req, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetCustomer returns nil without error when the customer does not exist.
func (c *Client) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	var customer domain.Customer
	found, err := c.get(ctx, "/api/customers/"+url.PathEscape(id), &customer)
	if err != nil || !found {
		return nil, err
	}
	return &customer, nil
}

// UpdateCustomer returns nil without error when the customer does not exist.
func (c *Client) UpdateCustomer(ctx context.Context, id string, in CustomerRequest) (*domain.Customer, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPut, "/api/customers/"+url.PathEscape(id), in)
	if err != nil {
		return nil, err
	}
	var customer domain.Customer
	found, err := c.lookup(req, &customer)
	if err != nil || !found {
		return nil, err
	}
	return &customer, nil
}

func (c *Client) DeleteCustomer(ctx context.Context, id string) error {
	req, err := c.newJSONRequest(ctx, http.MethodDelete, "/api/customers/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// CreateOrder places an order. A non-empty idempotencyKey is sent as the
// Idempotency-Key header.
func (c *Client) CreateOrder(ctx context.Context, customerID, productID string, quantity int, idempotencyKey string) (*domain.Order, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPost, "/api/orders", createOrderRequest{
		CustomerID: customerID,
		ProductID:  productID,
		Quantity:   quantity,
	})
	if err != nil {
		return nil, err
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	var order domain.Order
	if err := c.do(req, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders lists all orders, or only username's when it is not empty.
func (c *Client) ListOrders(ctx context.Context, username string) ([]domain.Order, error) {
	path := "/api/orders"
	if username != "" {
		path += "?username=" + url.QueryEscape(username)
	}
	var orders []domain.Order
	if _, err := c.get(ctx, path, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder returns nil without error when the order does not exist.
func (c *Client) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	found, err := c.get(ctx, "/api/orders/"+url.PathEscape(id), &order)
	if err != nil || !found {
		return nil, err
	}
	return &order, nil
}

// OrderUpdate is the editable part of an order. Nil fields are left alone.
type OrderUpdate struct {
	Quantity  *int       `json:"quantity,omitempty"`
	Status    *string    `json:"status,omitempty"`
	OrderDate *time.Time `json:"orderDateUtc,omitempty"`
}

// UpdateOrder returns nil without error when the order does not exist.
func (c *Client) UpdateOrder(ctx context.Context, id string, in OrderUpdate) (*domain.Order, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPut, "/api/orders/"+url.PathEscape(id), in)
	if err != nil {
		return nil, err
	}
	var order domain.Order
	found, err := c.lookup(req, &order)
	if err != nil || !found {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus returns nil without error when the order does not exist.
func (c *Client) UpdateOrderStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	req, err := c.newJSONRequest(ctx, http.MethodPatch, "/api/orders/"+url.PathEscape(id)+"/status",
		map[string]string{"status": status})
	if err != nil {
		return nil, err
	}
	var order domain.Order
	found, err := c.lookup(req, &order)
	if err != nil || !found {
		return nil, err
	}
	return &order, nil
}

func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	req, err := c.newJSONRequest(ctx, http.MethodDelete, "/api/orders/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// UploadProofOfPayment forwards a file to the API as multipart form data.
func (c *Client) UploadProofOfPayment(ctx context.Context, fileName string, file io.Reader, orderID, customerName string) (*domain.UploadResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("OrderId", orderID); err != nil {
		return nil, err
	}
	if err := mw.WriteField("CustomerName", customerName); err != nil {
		return nil, err
	}
	part, err := mw.CreateFormFile("ProofOfPayment", fileName)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("failed to copy upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/uploads/proof-of-payment", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var result domain.UploadResult
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
