package handler

import (
	"context"
	"log/slog"

	"github.com/rl1809/storefront/internal/adapter/handler/orderrpc"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/pkg/apperr"
)

type GRPCHandler struct {
	orderrpc.UnimplementedOrderServiceServer
	orderService *service.OrderService
	logger       *slog.Logger
}

func NewGRPCHandler(orderService *service.OrderService, logger *slog.Logger) *GRPCHandler {
	return &GRPCHandler{orderService: orderService, logger: logger}
}

// reply turns a service result into an OrderReply. Domain failures are
// reported in the reply, not as RPC errors.
func (h *GRPCHandler) reply(method string, order *domain.Order, err error, okMessage string) (*orderrpc.OrderReply, error) {
	if err == nil {
		return &orderrpc.OrderReply{Success: true, Message: okMessage, Order: order}, nil
	}
	if apperr.CodeOf(err) == apperr.CodeInternal {
		h.logger.Error("grpc call failed", slog.String("method", method), slog.Any("error", err))
		return &orderrpc.OrderReply{Success: false, Message: "internal error"}, nil
	}
	message := apperr.Message(err)
	if apperr.IsNotFound(err) {
		message = "order not found"
	}
	return &orderrpc.OrderReply{Success: false, Message: message}, nil
}

func (h *GRPCHandler) CreateOrder(ctx context.Context, req *orderrpc.CreateOrderRequest) (*orderrpc.OrderReply, error) {
	order, err := h.orderService.CreateOrder(ctx, service.CreateOrderRequest{
		CustomerID:     req.CustomerID,
		ProductID:      req.ProductID,
		Quantity:       int(req.Quantity),
		IdempotencyKey: req.IdempotencyKey,
	})
	return h.reply("CreateOrder", order, err, "order placed successfully")
}

func (h *GRPCHandler) GetOrder(ctx context.Context, req *orderrpc.GetOrderRequest) (*orderrpc.OrderReply, error) {
	order, err := h.orderService.GetOrder(ctx, req.ID)
	return h.reply("GetOrder", order, err, "ok")
}

func (h *GRPCHandler) UpdateOrderStatus(ctx context.Context, req *orderrpc.UpdateOrderStatusRequest) (*orderrpc.OrderReply, error) {
	order, err := h.orderService.UpdateOrderStatus(ctx, req.ID, req.Status)
	return h.reply("UpdateOrderStatus", order, err, "order status updated")
}
