package infrastructure

import (
	"context"

	"google.golang.org/grpc"

	"ecomart/internal/orders/application"
)

// GreenRescueServiceName is the fully qualified gRPC service name
const GreenRescueServiceName = "ecomart.greenrescue.v1.GreenRescue"

// GetOrderRequest identifies an order
type GetOrderRequest struct {
	OrderID uint `json:"orderId"`
}

// NearbyRequest is a proximity search for a buyer location
type NearbyRequest struct {
	UserLocation string `json:"userLocation"`
}

// GreenRescueServer is the server API for the GreenRescue service.
// Messages are the HTTP DTOs, carried by the JSON codec.
type GreenRescueServer interface {
	GetOrder(context.Context, *GetOrderRequest) (*OrderResponse, error)
	CancelOrder(context.Context, *CancelOrderRequest) (*CancelOrderResponse, error)
	CreateGreenOrder(context.Context, *CreateGreenOrderRequest) (*GreenOrderResponse, error)
	NearbyGreenProducts(context.Context, *NearbyRequest) (*NearbyResponse, error)
	ComputeImpact(context.Context, *ImpactRequest) (*ImpactResponse, error)
}

// GreenRescueServiceDesc describes the GreenRescue service for grpc.Server.RegisterService
var GreenRescueServiceDesc = grpc.ServiceDesc{
	ServiceName: GreenRescueServiceName,
	HandlerType: (*GreenRescueServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("GetOrder", GreenRescueServer.GetOrder),
		unary("CancelOrder", GreenRescueServer.CancelOrder),
		unary("CreateGreenOrder", GreenRescueServer.CreateGreenOrder),
		unary("NearbyGreenProducts", GreenRescueServer.NearbyGreenProducts),
		unary("ComputeImpact", GreenRescueServer.ComputeImpact),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "greenrescue",
}

func unary[Req, Resp any](method string, call func(GreenRescueServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(GreenRescueServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + GreenRescueServiceName + "/" + method,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(GreenRescueServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// GRPCServer implements GreenRescueServer on top of the use cases
type GRPCServer struct {
	orders OrderService
	green  GreenService
	impact ImpactService
}

// NewGRPCServer creates a new gRPC server
func NewGRPCServer(orders OrderService, green GreenService, impact ImpactService) *GRPCServer {
	return &GRPCServer{orders: orders, green: green, impact: impact}
}

// Register registers the service on s
func (s *GRPCServer) Register(srv *grpc.Server) {
	srv.RegisterService(&GreenRescueServiceDesc, s)
}

// GetOrder implements GreenRescueServer.GetOrder
func (s *GRPCServer) GetOrder(ctx context.Context, req *GetOrderRequest) (*OrderResponse, error) {
	output, err := s.orders.GetOrder(ctx, application.GetOrderInput{ID: req.OrderID})
	if err != nil {
		return nil, err
	}
	resp := toOrderResponse(output.Order.Order, output.Order.Product)
	return &resp, nil
}

// CancelOrder implements GreenRescueServer.CancelOrder
func (s *GRPCServer) CancelOrder(ctx context.Context, req *CancelOrderRequest) (*CancelOrderResponse, error) {
	output, err := s.orders.CancelOrder(ctx, application.CancelOrderInput{OrderID: req.OrderID})
	if err != nil {
		return nil, err
	}
	return &CancelOrderResponse{
		Order:        toOrderResponse(output.Order, nil),
		GreenProduct: toGreenProductResponse(output.GreenProduct, nil, nil),
	}, nil
}

// CreateGreenOrder implements GreenRescueServer.CreateGreenOrder. Callers
// are trusted services, so the customer is taken from the request.
func (s *GRPCServer) CreateGreenOrder(ctx context.Context, req *CreateGreenOrderRequest) (*GreenOrderResponse, error) {
	output, err := s.green.CreateGreenOrder(ctx, application.CreateGreenOrderInput{
		CustomerID:      req.CustomerID,
		ProductID:       req.ProductID,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		return nil, err
	}
	return &GreenOrderResponse{
		Order:        toOrderResponse(output.Order, nil),
		GreenProduct: toGreenProductResponse(output.GreenProduct, nil, nil),
	}, nil
}

// NearbyGreenProducts implements GreenRescueServer.NearbyGreenProducts
func (s *GRPCServer) NearbyGreenProducts(ctx context.Context, req *NearbyRequest) (*NearbyResponse, error) {
	output, err := s.green.NearbyGreenProducts(ctx, req.UserLocation)
	if err != nil {
		return nil, err
	}
	return &NearbyResponse{
		Location: output.Location,
		RadiusKm: output.RadiusKm,
		Products: toGreenProductResponses(output.Products),
	}, nil
}

// ComputeImpact implements GreenRescueServer.ComputeImpact
func (s *GRPCServer) ComputeImpact(ctx context.Context, req *ImpactRequest) (*ImpactResponse, error) {
	output, err := s.impact.ComputeImpact(ctx, application.ComputeImpactInput{
		GreenProductID: req.GreenProductID,
		UserLocation:   req.UserLocation,
	})
	if err != nil {
		return nil, err
	}
	resp := toImpactResponse(output)
	return &resp, nil
}
