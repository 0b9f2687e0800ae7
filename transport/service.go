package transport

import (
	"context"

	"orderclient/types"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

const (
	// ServiceName is the fully qualified name of the plotting service
	ServiceName = "fiab.OrderService"

	// OrderMethod is the server-streaming order call
	OrderMethod = "/" + ServiceName + "/Order"

	// OrderIDHeader carries the client-assigned order id as call metadata
	OrderIDHeader = "x-order-id"
)

// OrderServiceServer runs orders and reports their progress
type OrderServiceServer interface {
	Order(req *types.OrderRequest, stream OrderStatusSender) error
}

// OrderStatusSender is the server half of an order call
type OrderStatusSender interface {
	Send(ev *types.StatusEvent) error
	Context() context.Context
}

// OrderServiceDesc describes the service for grpc.Server registration
var OrderServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OrderServiceServer)(nil),
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Order",
			Handler:       orderHandler,
			ServerStreams: true,
		},
	},
	Metadata: "order.proto",
}

// RegisterOrderService attaches srv to s
func RegisterOrderService(s grpc.ServiceRegistrar, srv OrderServiceServer) {
	s.RegisterService(&OrderServiceDesc, srv)
}

func orderHandler(srv any, stream grpc.ServerStream) error {
	req := new(types.OrderRequest)
	if err := stream.RecvMsg(req); err != nil {
		return err
	}
	if req.ID == "" {
		if md, ok := metadata.FromIncomingContext(stream.Context()); ok {
			if ids := md.Get(OrderIDHeader); len(ids) > 0 {
				req.ID = ids[0]
			}
		}
	}
	return srv.(OrderServiceServer).Order(req, &orderStatusSender{stream})
}

type orderStatusSender struct {
	grpc.ServerStream
}

func (s *orderStatusSender) Send(ev *types.StatusEvent) error {
	return s.ServerStream.SendMsg(ev)
}
