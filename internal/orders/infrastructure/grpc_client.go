package infrastructure

import (
	"context"
	stdtls "crypto/tls"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	grpcpkg "ecomart/pkg/grpc"
)

// GreenRescueClient calls a remote GreenRescue service
type GreenRescueClient struct {
	conn *grpc.ClientConn
}

// DialGreenRescue connects to a GreenRescue service. A nil tlsConfig dials
// without transport security.
func DialGreenRescue(addr string, timeout time.Duration, tlsConfig *stdtls.Config, extra ...grpc.DialOption) (*GreenRescueClient, error) {
	opts := []grpc.DialOption{
		grpc.WithUnaryInterceptor(grpcpkg.UnaryClientInterceptor(timeout)),
		grpcpkg.WithJSON(),
	}

	if tlsConfig != nil {
		opts = append(opts, grpc.WithTransportCredentials(credentials.NewTLS(tlsConfig)))
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	conn, err := grpc.NewClient(addr, append(opts, extra...)...)
	if err != nil {
		return nil, err
	}
	return &GreenRescueClient{conn: conn}, nil
}

// Close closes the connection
func (c *GreenRescueClient) Close() error {
	return c.conn.Close()
}

func (c *GreenRescueClient) invoke(ctx context.Context, method string, in, out interface{}) error {
	return c.conn.Invoke(ctx, "/"+GreenRescueServiceName+"/"+method, in, out)
}

// GetOrder fetches an order
func (c *GreenRescueClient) GetOrder(ctx context.Context, orderID uint) (*OrderResponse, error) {
	out := new(OrderResponse)
	if err := c.invoke(ctx, "GetOrder", &GetOrderRequest{OrderID: orderID}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// CancelOrder cancels an order
func (c *GreenRescueClient) CancelOrder(ctx context.Context, orderID uint) (*CancelOrderResponse, error) {
	out := new(CancelOrderResponse)
	if err := c.invoke(ctx, "CancelOrder", &CancelOrderRequest{OrderID: orderID}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateGreenOrder buys a rescued product for a customer
func (c *GreenRescueClient) CreateGreenOrder(ctx context.Context, req CreateGreenOrderRequest) (*GreenOrderResponse, error) {
	out := new(GreenOrderResponse)
	if err := c.invoke(ctx, "CreateGreenOrder", &req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// NearbyGreenProducts searches listings near a location
func (c *GreenRescueClient) NearbyGreenProducts(ctx context.Context, userLocation string) (*NearbyResponse, error) {
	out := new(NearbyResponse)
	if err := c.invoke(ctx, "NearbyGreenProducts", &NearbyRequest{UserLocation: userLocation}, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ComputeImpact requests an impact report
func (c *GreenRescueClient) ComputeImpact(ctx context.Context, greenProductID uint, userLocation string) (*ImpactResponse, error) {
	out := new(ImpactResponse)
	req := &ImpactRequest{GreenProductID: greenProductID, UserLocation: userLocation}
	if err := c.invoke(ctx, "ComputeImpact", req, out); err != nil {
		return nil, err
	}
	return out, nil
}
