// Package orderrpc describes the storefront.OrderService gRPC service. Its
// messages are plain structs sent with the JSON codec.
package orderrpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/storefront/internal/core/domain"
)

const (
	ServiceName = "storefront.OrderService"

	CreateOrderMethod       = "/storefront.OrderService/CreateOrder"
	GetOrderMethod          = "/storefront.OrderService/GetOrder"
	UpdateOrderStatusMethod = "/storefront.OrderService/UpdateOrderStatus"
)

type CreateOrderRequest struct {
	IdempotencyKey string `json:"idempotencyKey,omitempty"`
	CustomerID     string `json:"customerId"`
	ProductID      string `json:"productId"`
	Quantity       int32  `json:"quantity"`
}

type GetOrderRequest struct {
	ID string `json:"id"`
}

type UpdateOrderStatusRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type OrderReply struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Order   *domain.Order `json:"order,omitempty"`
}

type OrderServiceServer interface {
	CreateOrder(context.Context, *CreateOrderRequest) (*OrderReply, error)
	GetOrder(context.Context, *GetOrderRequest) (*OrderReply, error)
	UpdateOrderStatus(context.Context, *UpdateOrderStatusRequest) (*OrderReply, error)
}

// UnimplementedOrderServiceServer can be embedded for forward compatibility.
type UnimplementedOrderServiceServer struct{}

func (UnimplementedOrderServiceServer) CreateOrder(context.Context, *CreateOrderRequest) (*OrderReply, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateOrder not implemented")
}

func (UnimplementedOrderServiceServer) GetOrder(context.Context, *GetOrderRequest) (*OrderReply, error) {
	return nil, status.Error(codes.Unimplemented, "method GetOrder not implemented")
}

func (UnimplementedOrderServiceServer) UpdateOrderStatus(context.Context, *UpdateOrderStatusRequest) (*OrderReply, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateOrderStatus not implemented")
}

func RegisterOrderServiceServer(s grpc.ServiceRegistrar, srv OrderServiceServer) {
	s.RegisterService(&OrderServiceDesc, srv)
}

var OrderServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OrderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateOrder", Handler: createOrderHandler},
		{MethodName: "GetOrder", Handler: getOrderHandler},
		{MethodName: "UpdateOrderStatus", Handler: updateOrderStatusHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storefront/order_service",
}

func createOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CreateOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderServiceServer).CreateOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CreateOrderMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderServiceServer).CreateOrder(ctx, req.(*CreateOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func getOrderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetOrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderServiceServer).GetOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetOrderMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderServiceServer).GetOrder(ctx, req.(*GetOrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func updateOrderStatusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(UpdateOrderStatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderServiceServer).UpdateOrderStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: UpdateOrderStatusMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(OrderServiceServer).UpdateOrderStatus(ctx, req.(*UpdateOrderStatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

type OrderServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewOrderServiceClient(cc grpc.ClientConnInterface) *OrderServiceClient {
	return &OrderServiceClient{cc: cc}
}

func (c *OrderServiceClient) invoke(ctx context.Context, method string, in any, opts []grpc.CallOption) (*OrderReply, error) {
	out := new(OrderReply)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderServiceClient) CreateOrder(ctx context.Context, in *CreateOrderRequest, opts ...grpc.CallOption) (*OrderReply, error) {
	return c.invoke(ctx, CreateOrderMethod, in, opts)
}

func (c *OrderServiceClient) GetOrder(ctx context.Context, in *GetOrderRequest, opts ...grpc.CallOption) (*OrderReply, error) {
	return c.invoke(ctx, GetOrderMethod, in, opts)
}

func (c *OrderServiceClient) UpdateOrderStatus(ctx context.Context, in *UpdateOrderStatusRequest, opts ...grpc.CallOption) (*OrderReply, error) {
	return c.invoke(ctx, UpdateOrderStatusMethod, in, opts)
}
