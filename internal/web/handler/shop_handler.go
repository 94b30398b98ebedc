package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type AddCartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.api.ListProducts(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.api.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if product == nil {
		notFound(c, "Product not found.")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) GetCart(c *gin.Context) {
	items, err := h.cart.List(c.Request.Context(), principal(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handler) AddCartItem(c *gin.Context) {
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	line, err := h.cart.Add(c.Request.Context(), principal(c), req.ProductID, req.Quantity)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, line)
}

func (h *Handler) UpdateCartItem(c *gin.Context) {
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.cart.Update(c.Request.Context(), principal(c), c.Param("productId"), req.Quantity); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Cart updated successfully!"})
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	if err := h.cart.Remove(c.Request.Context(), principal(c), c.Param("productId")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Item removed from cart."})
}

func (h *Handler) Checkout(c *gin.Context) {
	result, err := h.cart.Checkout(c.Request.Context(), principal(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) MyOrders(c *gin.Context) {
	orders, err := h.api.ListOrders(c.Request.Context(), principal(c).Username)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) UploadProofOfPayment(c *gin.Context) {
	header, err := c.FormFile("ProofOfPayment")
	if err != nil {
		badRequest(c, err)
		return
	}
	file, err := header.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer file.Close()

	customerName := c.PostForm("CustomerName")
	if customerName == "" {
		customerName = principal(c).Username
	}
	result, err := h.api.UploadProofOfPayment(c.Request.Context(), header.Filename, file, c.PostForm("OrderId"), customerName)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) AdminListOrders(c *gin.Context) {
	orders, err := h.api.ListOrders(c.Request.Context(), "")
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *Handler) AdminUpdateOrderStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	order, err := h.api.UpdateOrderStatus(c.Request.Context(), c.Param("id"), req.Status)
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

func (h *Handler) AdminDeleteOrder(c *gin.Context) {
	if err := h.api.DeleteOrder(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) AdminListCustomers(c *gin.Context) {
	customers, err := h.api.ListCustomers(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

func (h *Handler) AdminDeleteCustomer(c *gin.Context) {
	if err := h.api.DeleteCustomer(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
