package infrastructure

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"ecomart/internal/orders/application"
	"ecomart/internal/orders/domain"
	"ecomart/pkg/errors"
	"ecomart/pkg/middleware"
)

const roleAdmin = "admin"

// OrderService is the normal order lifecycle
type OrderService interface {
	CreateOrder(ctx context.Context, input application.CreateOrderInput) (*application.CreateOrderOutput, error)
	CancelOrder(ctx context.Context, input application.CancelOrderInput) (*application.CancelOrderOutput, error)
	GetOrder(ctx context.Context, input application.GetOrderInput) (*application.GetOrderOutput, error)
	ListUserOrders(ctx context.Context, userID uint) ([]application.OrderView, error)
	ListCancelledOrders(ctx context.Context) ([]application.OrderView, error)
	ListNormalOrders(ctx context.Context) ([]application.OrderView, error)
}

// GreenService is the rescued product marketplace
type GreenService interface {
	CreateGreenOrder(ctx context.Context, input application.CreateGreenOrderInput) (*application.CreateGreenOrderOutput, error)
	ListGreenOrders(ctx context.Context) ([]application.OrderView, error)
	GetGreenOrder(ctx context.Context, id uint) (*application.OrderView, error)
	ListGreenProducts(ctx context.Context) ([]application.GreenProductView, error)
	ListSoldGreenProducts(ctx context.Context) ([]application.GreenProductView, error)
	GetGreenProduct(ctx context.Context, id uint) (*application.GreenProductView, error)
	NearbyGreenProducts(ctx context.Context, userLocation string) (*application.NearbyOutput, error)
}

// ImpactService computes environmental impact reports
type ImpactService interface {
	ComputeImpact(ctx context.Context, input application.ComputeImpactInput) (*application.ImpactOutput, error)
}

// CatalogService lists catalog products
type CatalogService interface {
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	ListUnsoldProducts(ctx context.Context) ([]*domain.Product, error)
	ListSoldProducts(ctx context.Context) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id uint) (*domain.Product, error)
}

// HTTPHandler handles HTTP requests for orders, green rescue, impact
// reports and the catalog
type HTTPHandler struct {
	orders  OrderService
	green   GreenService
	impact  ImpactService
	catalog CatalogService
	auth    gin.HandlerFunc
}

// NewHTTPHandler creates a new HTTP handler. auth guards the order routes
// and green checkout.
func NewHTTPHandler(
	orders OrderService,
	green GreenService,
	impact ImpactService,
	catalog CatalogService,
	auth gin.HandlerFunc,
) *HTTPHandler {
	return &HTTPHandler{
		orders:  orders,
		green:   green,
		impact:  impact,
		catalog: catalog,
		auth:    auth,
	}
}

// RegisterRoutes registers all routes under r
func (h *HTTPHandler) RegisterRoutes(r *gin.RouterGroup) {
	orders := r.Group("/orders", h.auth)
	{
		orders.POST("", h.CreateOrder)
		orders.POST("/create", h.CreateOrder)
		orders.POST("/cancel", h.CancelOrder)
		orders.GET("/cancelled", h.ListCancelledOrders)
		orders.GET("/normal", h.ListNormalOrders)
		orders.GET("/user", h.ListMyOrders)
		orders.GET("/user/:userId", h.ListUserOrders)
		orders.GET("/:orderId", h.GetOrder)
	}

	green := r.Group("/green")
	{
		green.POST("/order", h.auth, h.CreateGreenOrder)
		green.GET("/orders", h.ListGreenOrders)
		green.GET("/orders/:orderId", h.GetGreenOrder)
		green.GET("/products", h.ListGreenProducts)
		green.GET("/products/sold", h.ListSoldGreenProducts)
		green.GET("/soldproducts", h.ListSoldGreenProducts)
		green.GET("/products/nearby", h.NearbyGreenProducts)
		green.GET("/products/:id", h.GetGreenProduct)
	}

	r.POST("/environmental/impact", h.ComputeImpact)

	products := r.Group("/products")
	{
		products.GET("", h.ListProducts)
		products.GET("/unsold", h.ListUnsoldProducts)
		products.GET("/sold", h.ListSoldProducts)
		products.GET("/:id", h.GetProduct)
	}
}

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, SuccessResponse{
		Message: message,
		Data:    data,
		TraceID: c.GetString(middleware.TraceIDKey),
	})
}

func parseID(c *gin.Context, param, what string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		c.Error(errors.NewValidation("invalid "+what+" id", nil))
		return 0, false
	}
	return uint(id), true
}

// actingFor resolves whose account a request acts on. Callers act for
// themselves unless they are admins.
func actingFor(c *gin.Context, requested uint) (uint, error) {
	caller, ok := middleware.UserID(c)
	if !ok {
		return 0, errors.NewUnauthorized("authentication required")
	}
	switch {
	case requested == 0:
		return caller, nil
	case requested == caller, middleware.Role(c) == roleAdmin:
		return requested, nil
	default:
		return 0, errors.NewForbidden("cannot act on behalf of another user")
	}
}

// =============================================================================
// Orders Handlers
// =============================================================================

// CreateOrder places a normal order
// @Summary Place an order
// @Description Marks the product sold and places an order for the caller
// @Tags orders
// @Accept json
// @Produce json
// @Param request body CreateOrderRequest true "Order"
// @Success 201 {object} SuccessResponse{data=OrderResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Product already sold"
// @Router /api/orders [post]
func (h *HTTPHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidation("invalid request body", err.Error()))
		return
	}

	userID, err := actingFor(c, req.UserID)
	if err != nil {
		c.Error(err)
		return
	}

	output, err := h.orders.CreateOrder(c.Request.Context(), application.CreateOrderInput{
		ProductID:       req.ProductID,
		UserID:          userID,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusCreated, "order created", toOrderResponse(output.Order, output.Product))
}

// CancelOrder cancels an order and lists its product for green rescue
// @Summary Cancel an order
// @Tags orders
// @Accept json
// @Produce json
// @Param request body CancelOrderRequest true "Order to cancel"
// @Success 200 {object} SuccessResponse{data=CancelOrderResponse}
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Order already cancelled"
// @Router /api/orders/cancel [post]
func (h *HTTPHandler) CancelOrder(c *gin.Context) {
	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidation("invalid request body", err.Error()))
		return
	}

	output, err := h.orders.CancelOrder(c.Request.Context(), application.CancelOrderInput{OrderID: req.OrderID})
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusOK, "order cancelled and listed for green rescue", CancelOrderResponse{
		Order:        toOrderResponse(output.Order, nil),
		GreenProduct: toGreenProductResponse(output.GreenProduct, nil, nil),
	})
}

// GetOrder returns one order
// @Summary Get an order by ID
// @Tags orders
// @Produce json
// @Param orderId path int true "Order ID"
// @Success 200 {object} SuccessResponse{data=OrderResponse}
// @Failure 404 {object} ErrorResponse
// @Router /api/orders/{orderId} [get]
func (h *HTTPHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "orderId", "order")
	if !ok {
		return
	}

	output, err := h.orders.GetOrder(c.Request.Context(), application.GetOrderInput{ID: id})
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusOK, "order retrieved", toOrderResponse(output.Order.Order, output.Order.Product))
}

// ListCancelledOrders lists cancelled orders
// @Summary List cancelled orders
// @Tags orders
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]OrderResponse}
// @Router /api/orders/cancelled [get]
func (h *HTTPHandler) ListCancelledOrders(c *gin.Context) {
	views, err := h.orders.ListCancelledOrders(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	respond(c, http.StatusOK, "cancelled orders", toOrderResponses(views))
}

// ListNormalOrders lists live non-green orders
// @Summary List normal orders
// @Tags orders
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]OrderResponse}
// @Router /api/orders/normal [get]
func (h *HTTPHandler) ListNormalOrders(c *gin.Context) {
	views, err := h.orders.ListNormalOrders(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	respond(c, http.StatusOK, "normal orders", toOrderResponses(views))
}

// ListMyOrders lists the caller's orders
// @Summary List the caller's orders
// @Tags orders
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]OrderResponse}
// @Failure 401 {object} ErrorResponse
// @Router /api/orders/user [get]
func (h *HTTPHandler) ListMyOrders(c *gin.Context) {
	h.listUserOrders(c, 0)
}

// ListUserOrders lists a user's orders
// @Summary List a user's orders
// @Tags orders
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {object} SuccessResponse{data=[]OrderResponse}
// @Failure 403 {object} ErrorResponse
// @Router /api/orders/user/{userId} [get]
func (h *HTTPHandler) ListUserOrders(c *gin.Context) {
	id, ok := parseID(c, "userId", "user")
	if !ok {
		return
	}
	h.listUserOrders(c, id)
}

func (h *HTTPHandler) listUserOrders(c *gin.Context, requested uint) {
	userID, err := actingFor(c, requested)
	if err != nil {
		c.Error(err)
		return
	}

	views, err := h.orders.ListUserOrders(c.Request.Context(), userID)
	if err != nil {
		c.Error(err)
		return
	}
	respond(c, http.StatusOK, "user orders", toOrderResponses(views))
}

// =============================================================================
// Green Handlers
// =============================================================================

// CreateGreenOrder buys a rescued product
// @Summary Buy a rescued product
// @Description Claims the product's unsold listing and credits the buyer's green coins
// @Tags green
// @Accept json
// @Produce json
// @Param request body CreateGreenOrderRequest true "Green order"
// @Success 201 {object} SuccessResponse{data=GreenOrderResponse}
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "No unsold listing"
// @Router /api/green/order [post]
func (h *HTTPHandler) CreateGreenOrder(c *gin.Context) {
	var req CreateGreenOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidation("invalid request body", err.Error()))
		return
	}

	customerID, err := actingFor(c, req.CustomerID)
	if err != nil {
		c.Error(err)
		return
	}

	output, err := h.green.CreateGreenOrder(c.Request.Context(), application.CreateGreenOrderInput{
		CustomerID:      customerID,
		ProductID:       req.ProductID,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusCreated, "green order created", GreenOrderResponse{
		Order:        toOrderResponse(output.Order, nil),
		GreenProduct: toGreenProductResponse(output.GreenProduct, nil, nil),
	})
}

// ListGreenOrders lists green orders
// @Summary List green orders
// @Tags green
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]OrderResponse}
// @Router /api/green/orders [get]
func (h *HTTPHandler) ListGreenOrders(c *gin.Context) {
	views, err := h.green.ListGreenOrders(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	respond(c, http.StatusOK, "green orders", toOrderResponses(views))
}

// GetGreenOrder returns one green order
// @Summary Get a green order by ID
// @Tags green
// @Produce json
// @Param orderId path int true "Order ID"
// @Success 200 {object} SuccessResponse{data=OrderResponse}
// @Failure 404 {object} ErrorResponse
// @Router /api/green/orders/{orderId} [get]
func (h *HTTPHandler) GetGreenOrder(c *gin.Context) {
	id, ok := parseID(c, "orderId", "order")
	if !ok {
		return
	}

	view, err := h.green.GetGreenOrder(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	respond(c, http.StatusOK, "green order retrieved", toOrderResponse(view.Order, view.Product))
}

// ListGreenProducts lists unsold rescued products
// @Summary List unsold green products
// @Tags green
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]GreenProductResponse}
// @Router /api/green/products [get]
func (h *HTTPHandler) ListGreenProducts(c *gin.Context) {
	views, err := h.green.ListGreenProducts(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	respond(c, http.StatusOK, "green products", toGreenProductResponses(views))
}

// ListSoldGreenProducts lists sold rescued products
// @Summary List sold green products
// @Tags green
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]GreenProductResponse}
// @Router /api/green/products/sold [get]
func (h *HTTPHandler) ListSoldGreenProducts(c *gin.Context) {
	views, err := h.green.ListSoldGreenProducts(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	respond(c, http.StatusOK, "sold green products", toGreenProductResponses(views))
}

// GetGreenProduct returns one listing
// @Summary Get a green product by ID
// @Tags green
// @Produce json
// @Param id path int true "Green product ID"
// @Success 200 {object} SuccessResponse{data=GreenProductResponse}
// @Failure 404 {object} ErrorResponse
// @Router /api/green/products/{id} [get]
func (h *HTTPHandler) GetGreenProduct(c *gin.Context) {
	id, ok := parseID(c, "id", "green product")
	if !ok {
		return
	}

	view, err := h.green.GetGreenProduct(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	respond(c, http.StatusOK, "green product retrieved", toGreenProductResponse(view.GreenProduct, view.Product, nil))
}

// NearbyGreenProducts lists unsold listings near a location
// @Summary Find green products near a location
// @Tags green
// @Produce json
// @Param userLocation query string true "City, district or place name"
// @Success 200 {object} SuccessResponse{data=NearbyResponse}
// @Failure 400 {object} ErrorResponse
// @Router /api/green/products/nearby [get]
func (h *HTTPHandler) NearbyGreenProducts(c *gin.Context) {
	output, err := h.green.NearbyGreenProducts(c.Request.Context(), c.Query("userLocation"))
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusOK, "nearby green products", NearbyResponse{
		Location: output.Location,
		RadiusKm: output.RadiusKm,
		Products: toGreenProductResponses(output.Products),
	})
}

// =============================================================================
// Impact Handlers
// =============================================================================

// ComputeImpact reports the environmental impact of buying a listing
// @Summary Environmental impact of a green purchase
// @Tags environmental
// @Accept json
// @Produce json
// @Param request body ImpactRequest true "Listing and buyer location"
// @Success 200 {object} SuccessResponse{data=ImpactResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/environmental/impact [post]
func (h *HTTPHandler) ComputeImpact(c *gin.Context) {
	var req ImpactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewValidation("invalid request body", err.Error()))
		return
	}

	output, err := h.impact.ComputeImpact(c.Request.Context(), application.ComputeImpactInput{
		GreenProductID: req.GreenProductID,
		UserLocation:   req.UserLocation,
	})
	if err != nil {
		c.Error(err)
		return
	}

	respond(c, http.StatusOK, "environmental impact computed", toImpactResponse(output))
}

// =============================================================================
// Catalog Handlers
// =============================================================================

// ListProducts lists every product
// @Summary List products
// @Tags products
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]ProductResponse}
// @Router /api/products [get]
func (h *HTTPHandler) ListProducts(c *gin.Context) {
	h.listProducts(c, "products", h.catalog.ListProducts)
}

// ListUnsoldProducts lists products still for sale
// @Summary List unsold products
// @Tags products
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]ProductResponse}
// @Router /api/products/unsold [get]
func (h *HTTPHandler) ListUnsoldProducts(c *gin.Context) {
	h.listProducts(c, "unsold products", h.catalog.ListUnsoldProducts)
}

// ListSoldProducts lists sold products that were never rescued
// @Summary List sold products
// @Tags products
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]ProductResponse}
// @Router /api/products/sold [get]
func (h *HTTPHandler) ListSoldProducts(c *gin.Context) {
	h.listProducts(c, "sold products", h.catalog.ListSoldProducts)
}

func (h *HTTPHandler) listProducts(c *gin.Context, message string, list func(context.Context) ([]*domain.Product, error)) {
	products, err := list(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	respond(c, http.StatusOK, message, toProductResponses(products))
}

// GetProduct returns one product
// @Summary Get a product by ID
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} SuccessResponse{data=ProductResponse}
// @Failure 404 {object} ErrorResponse
// @Router /api/products/{id} [get]
func (h *HTTPHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, "id", "product")
	if !ok {
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	respond(c, http.StatusOK, "product retrieved", toProductResponse(product))
}
