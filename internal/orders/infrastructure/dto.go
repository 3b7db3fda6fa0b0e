package infrastructure

import (
	"strconv"
	"time"

	"ecomart/internal/impact"
	"ecomart/internal/location"
	"ecomart/internal/orders/application"
	"ecomart/internal/orders/domain"
)

// =============================================================================
// Request DTOs
// =============================================================================

// CreateOrderRequest is the request body for placing a normal order.
// UserID defaults to the authenticated caller.
type CreateOrderRequest struct {
	ProductID       uint   `json:"productId" binding:"required" example:"12"`
	UserID          uint   `json:"userId" example:"3"`
	ShippingAddress string `json:"shippingAddress" binding:"required" example:"221B Marine Drive, Mumbai"`
}

// CancelOrderRequest is the request body for cancelling an order
type CancelOrderRequest struct {
	OrderID uint `json:"orderId" binding:"required" example:"41"`
}

// CreateGreenOrderRequest is the request body for buying a rescued product.
// CustomerID defaults to the authenticated caller.
type CreateGreenOrderRequest struct {
	CustomerID      uint   `json:"customerId" example:"3"`
	ProductID       uint   `json:"productId" binding:"required" example:"12"`
	ShippingAddress string `json:"shippingAddress" binding:"required" example:"4 Residency Road, Bangalore"`
}

// ImpactRequest is the request body for an environmental impact report
type ImpactRequest struct {
	GreenProductID uint   `json:"greenProductId" binding:"required" example:"7"`
	UserLocation   string `json:"userLocation" binding:"required" example:"Pune"`
}

// =============================================================================
// Response DTOs
// =============================================================================

// SuccessResponse is the standard success envelope
type SuccessResponse struct {
	Message string      `json:"message" example:"order created"`
	Data    interface{} `json:"data"`
	TraceID string      `json:"trace_id" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// ErrorResponse is the standard error envelope
type ErrorResponse struct {
	Message string      `json:"message" example:"product not found"`
	Error   interface{} `json:"error,omitempty"`
	Code    string      `json:"code" example:"NOT_FOUND"`
	TraceID string      `json:"trace_id" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// ProductResponse is a catalog product
type ProductResponse struct {
	ID        uint   `json:"id" example:"12"`
	Name      string `json:"name" example:"Bamboo Toothbrush"`
	Price     string `json:"price" example:"149.00"`
	Category  string `json:"category" example:"Personal Care"`
	ImageURL  string `json:"imageUrl,omitempty"`
	Origin    string `json:"origin" example:"Germany"`
	IsSold    bool   `json:"isSold"`
	CreatedAt string `json:"createdAt" example:"2024-01-15T10:30:00Z"`
}

// OrderResponse is an order with its product
type OrderResponse struct {
	ID              uint             `json:"id" example:"41"`
	CustomerID      uint             `json:"customerId" example:"3"`
	ProductID       uint             `json:"productId" example:"12"`
	Product         *ProductResponse `json:"product,omitempty"`
	ShippingAddress string           `json:"shippingAddress"`
	IsGreenProduct  bool             `json:"isGreenProduct"`
	IsCancelled     bool             `json:"isCancelled"`
	Status          string           `json:"status" example:"placed"`
	CreatedAt       string           `json:"createdAt" example:"2024-01-15T10:30:00Z"`
}

// WarehouseResponse is the warehouse holding a rescued product
type WarehouseResponse struct {
	Name      string  `json:"name" example:"Delhi"`
	Latitude  float64 `json:"latitude" example:"28.6139"`
	Longitude float64 `json:"longitude" example:"77.209"`
}

// GreenProductResponse is a rescued listing with its product
type GreenProductResponse struct {
	ID                uint              `json:"id" example:"7"`
	ProductID         uint              `json:"productId" example:"12"`
	Product           *ProductResponse  `json:"product,omitempty"`
	WarehouseLocation WarehouseResponse `json:"warehouseLocation"`
	CarbonFootprint   float64           `json:"carbonFootprint" example:"4.2"`
	GreenCoins        int               `json:"greenCoins" example:"35"`
	IsSold            bool              `json:"isSold"`
	DistanceKm        *float64          `json:"distanceKm,omitempty" example:"148.3"`
	CreatedAt         string            `json:"createdAt" example:"2024-01-15T10:30:00Z"`
}

// CancelOrderResponse is the cancelled order and the listing it produced
type CancelOrderResponse struct {
	Order        OrderResponse        `json:"order"`
	GreenProduct GreenProductResponse `json:"greenProduct"`
}

// GreenOrderResponse is a green order and the listing it consumed
type GreenOrderResponse struct {
	Order        OrderResponse        `json:"order"`
	GreenProduct GreenProductResponse `json:"greenProduct"`
}

// NearbyResponse is the result of a proximity search
type NearbyResponse struct {
	Location location.Place        `json:"location"`
	RadiusKm float64               `json:"radiusKm" example:"350"`
	Products []GreenProductResponse `json:"products"`
}

// DistancesResponse carries route lengths formatted to one decimal
type DistancesResponse struct {
	InitialDistance string `json:"initialDistance" example:"1148.2"`
	NewDistance     string `json:"newDistance" example:"1173.1"`
	DistanceSaved   string `json:"distanceSaved" example:"-24.9"`
	Improvement     string `json:"improvement" example:"-2.2"`
}

// MetricsResponse carries display-rounded impact metrics
type MetricsResponse struct {
	FuelSaved       float64 `json:"fuelSaved" example:"90"`
	TotalCO2Saved   float64 `json:"totalCO2Saved" example:"211"`
	TreesEquivalent float64 `json:"treesEquivalent" example:"9.6"`
	MonetaryValue   float64 `json:"monetaryValue" example:"844"`
}

// ImpactData is the detail block of an impact report
type ImpactData struct {
	ProductName       string            `json:"productName" example:"Bamboo Toothbrush"`
	Origin            string            `json:"origin" example:"Germany"`
	UserLocation      string            `json:"userLocation" example:"Pune"`
	WarehouseLocation WarehouseResponse `json:"warehouseLocation"`
	CarbonFootprint   float64           `json:"carbonFootprint" example:"4.2"`
	GreenCoins        int               `json:"greenCoins" example:"35"`
	Distances         DistancesResponse `json:"distances"`
	Metrics           MetricsResponse   `json:"metrics"`
}

// ImpactResponse is an environmental impact report
type ImpactResponse struct {
	Success             bool       `json:"success" example:"true"`
	EnvironmentalImpact string     `json:"environmentalImpact"`
	Source              string     `json:"source" example:"template"`
	Data                ImpactData `json:"data"`
}

// =============================================================================
// Mapping
// =============================================================================

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func toProductResponse(p *domain.Product) *ProductResponse {
	if p == nil {
		return nil
	}
	return &ProductResponse{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price.StringFixed(2),
		Category:  p.Category,
		ImageURL:  p.ImageURL,
		Origin:    p.Origin,
		IsSold:    p.Sold,
		CreatedAt: formatTime(p.CreatedAt),
	}
}

func toProductResponses(products []*domain.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, *toProductResponse(p))
	}
	return out
}

func toOrderResponse(o *domain.Order, p *domain.Product) OrderResponse {
	return OrderResponse{
		ID:              o.ID,
		CustomerID:      o.CustomerID,
		ProductID:       o.ProductID,
		Product:         toProductResponse(p),
		ShippingAddress: o.ShippingAddress,
		IsGreenProduct:  o.IsGreenProduct,
		IsCancelled:     o.IsCancelled,
		Status:          string(o.Status()),
		CreatedAt:       formatTime(o.CreatedAt),
	}
}

func toOrderResponses(views []application.OrderView) []OrderResponse {
	out := make([]OrderResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toOrderResponse(v.Order, v.Product))
	}
	return out
}

func toWarehouseResponse(w domain.Warehouse) WarehouseResponse {
	return WarehouseResponse{Name: w.Name, Latitude: w.Latitude, Longitude: w.Longitude}
}

func toGreenProductResponse(g *domain.GreenProduct, p *domain.Product, distance *float64) GreenProductResponse {
	resp := GreenProductResponse{
		ID:                g.ID,
		ProductID:         g.ProductID,
		Product:           toProductResponse(p),
		WarehouseLocation: toWarehouseResponse(g.Warehouse),
		CarbonFootprint:   g.CarbonFootprint,
		GreenCoins:        g.GreenCoins,
		IsSold:            g.IsSold,
		CreatedAt:         formatTime(g.CreatedAt),
	}
	if distance != nil {
		d := impact.Round(*distance, 1)
		resp.DistanceKm = &d
	}
	return resp
}

func toGreenProductResponses(views []application.GreenProductView) []GreenProductResponse {
	out := make([]GreenProductResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toGreenProductResponse(v.GreenProduct, v.Product, v.DistanceKm))
	}
	return out
}

func oneDecimal(v float64) string {
	return strconv.FormatFloat(impact.Round(v, 1), 'f', 1, 64)
}

func toImpactResponse(out *application.ImpactOutput) ImpactResponse {
	m := out.Metrics.Rounded()
	return ImpactResponse{
		Success:             true,
		EnvironmentalImpact: out.Message,
		Source:              string(out.Source),
		Data: ImpactData{
			ProductName:       out.Product.Name,
			Origin:            out.Origin.DisplayName,
			UserLocation:      out.UserLocation.DisplayName,
			WarehouseLocation: toWarehouseResponse(out.GreenProduct.Warehouse),
			CarbonFootprint:   out.GreenProduct.CarbonFootprint,
			GreenCoins:        out.GreenProduct.GreenCoins,
			Distances: DistancesResponse{
				InitialDistance: oneDecimal(out.Distances.Initial),
				NewDistance:     oneDecimal(out.Distances.New),
				DistanceSaved:   oneDecimal(out.Distances.Saved),
				Improvement:     oneDecimal(out.Distances.Improvement),
			},
			Metrics: MetricsResponse{
				FuelSaved:       m.FuelSavedLiters,
				TotalCO2Saved:   m.TotalCO2Kg,
				TreesEquivalent: m.TreesEquivalent,
				MonetaryValue:   m.MonetaryValue,
			},
		},
	}
}
