package application

import (
	"context"

	"ecomart/internal/orders/domain"
	"ecomart/internal/orders/ports"
	"ecomart/pkg/errors"
	"ecomart/pkg/logger"

	"go.uber.org/zap"
)

// OrderOptions tunes order placement
type OrderOptions struct {
	// StrictProductSale rejects normal orders for products that are already sold
	StrictProductSale bool
}

// OrderUseCase handles the normal order lifecycle and cancellation rescue
type OrderUseCase struct {
	store     ports.Store
	rescue    ports.RescuePolicy
	publisher ports.EventPublisher
	opts      OrderOptions
	log       *logger.Logger
}

// NewOrderUseCase creates a new order use case. publisher may be nil.
func NewOrderUseCase(
	store ports.Store,
	rescue ports.RescuePolicy,
	publisher ports.EventPublisher,
	opts OrderOptions,
	log *logger.Logger,
) *OrderUseCase {
	return &OrderUseCase{
		store:     store,
		rescue:    rescue,
		publisher: publisher,
		opts:      opts,
		log:       log,
	}
}

// CreateOrderInput represents the input for creating an order
type CreateOrderInput struct {
	ProductID       uint
	UserID          uint
	ShippingAddress string
}

// CreateOrderOutput represents the output of creating an order
type CreateOrderOutput struct {
	Order   *domain.Order
	Product *domain.Product
}

// CreateOrder marks the product sold and places a normal order in one transaction
func (uc *OrderUseCase) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderOutput, error) {
	order, err := domain.NewOrder(input.UserID, input.ProductID, input.ShippingAddress, false)
	if err != nil {
		return nil, err
	}

	strict := uc.opts.StrictProductSale
	var product *domain.Product

	err = uc.store.Atomic(ctx, func(tx ports.Store) error {
		p, err := tx.Products().GetByID(ctx, order.ProductID)
		if err != nil {
			return err
		}
		if strict && p.Sold {
			return domain.NewProductAlreadySold(p.ID)
		}

		changed, err := tx.Products().MarkSold(ctx, p.ID, strict)
		if err != nil {
			return err
		}
		if !changed {
			if strict {
				return domain.NewProductAlreadySold(p.ID)
			}
			return domain.NewProductNotFound(p.ID)
		}
		p.Sold = true

		if err := tx.Orders().Create(ctx, order); err != nil {
			return err
		}

		product = p
		return nil
	})
	if err != nil {
		return nil, errors.Internal(err, "failed to create order")
	}

	if uc.publisher != nil {
		if err := uc.publisher.PublishOrderPlaced(ctx, order); err != nil {
			uc.log.WithContext(ctx).Error("failed to publish order placed event",
				zap.Error(err),
				zap.Uint("order_id", order.ID),
			)
		}
	}

	uc.log.WithContext(ctx).Info("order placed",
		zap.Uint("order_id", order.ID),
		zap.Uint("customer_id", order.CustomerID),
		zap.Uint("product_id", order.ProductID),
	)

	return &CreateOrderOutput{Order: order, Product: product}, nil
}

// CancelOrderInput represents the input for cancelling an order
type CancelOrderInput struct {
	OrderID uint
}

// CancelOrderOutput is the cancelled order and the listing it produced
type CancelOrderOutput struct {
	Order        *domain.Order
	GreenProduct *domain.GreenProduct
}

// CancelOrder cancels a placed order and re-lists its product as a green
// product. Both effects commit together or not at all.
func (uc *OrderUseCase) CancelOrder(ctx context.Context, input CancelOrderInput) (*CancelOrderOutput, error) {
	if input.OrderID == 0 {
		return nil, domain.ErrOrderIDRequired
	}

	var (
		order   *domain.Order
		listing *domain.GreenProduct
	)

	err := uc.store.Atomic(ctx, func(tx ports.Store) error {
		o, err := tx.Orders().GetByID(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if err := o.Cancel(); err != nil {
			return err
		}

		// The conditional update decides races between concurrent cancels.
		changed, err := tx.Orders().MarkCancelled(ctx, o.ID)
		if err != nil {
			return err
		}
		if !changed {
			return domain.NewAlreadyCancelled(o.ID)
		}

		gp := uc.rescue.Rescue(o.ProductID)
		if err := tx.GreenProducts().Create(ctx, gp); err != nil {
			return err
		}

		order, listing = o, gp
		return nil
	})
	if err != nil {
		return nil, errors.Internal(err, "failed to cancel order")
	}

	if uc.publisher != nil {
		if err := uc.publisher.PublishOrderCancelled(ctx, order, listing); err != nil {
			uc.log.WithContext(ctx).Error("failed to publish order cancelled event",
				zap.Error(err),
				zap.Uint("order_id", order.ID),
			)
		}
	}

	uc.log.WithContext(ctx).Info("order cancelled and rescued",
		zap.Uint("order_id", order.ID),
		zap.Uint("green_product_id", listing.ID),
		zap.String("warehouse", listing.Warehouse.Name),
		zap.Int("green_coins", listing.GreenCoins),
	)

	return &CancelOrderOutput{Order: order, GreenProduct: listing}, nil
}

// GetOrderInput represents the input for getting an order
type GetOrderInput struct {
	ID uint
}

// GetOrderOutput represents the output of getting an order
type GetOrderOutput struct {
	Order OrderView
}

// GetOrder retrieves an order with its product
func (uc *OrderUseCase) GetOrder(ctx context.Context, input GetOrderInput) (*GetOrderOutput, error) {
	if input.ID == 0 {
		return nil, domain.ErrOrderIDRequired
	}

	order, err := uc.store.Orders().GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	views, err := joinOrders(ctx, uc.store.Products(), []*domain.Order{order})
	if err != nil {
		return nil, err
	}

	return &GetOrderOutput{Order: views[0]}, nil
}

// ListUserOrders lists every order placed by a customer
func (uc *OrderUseCase) ListUserOrders(ctx context.Context, userID uint) ([]OrderView, error) {
	if userID == 0 {
		return nil, domain.ErrCustomerIDRequired
	}
	return uc.list(ctx, ports.OrderFilter{CustomerID: &userID})
}

// ListCancelledOrders lists cancelled orders
func (uc *OrderUseCase) ListCancelledOrders(ctx context.Context) ([]OrderView, error) {
	return uc.list(ctx, ports.OrderFilter{Cancelled: ptr(true)})
}

// ListNormalOrders lists live orders placed through the normal path
func (uc *OrderUseCase) ListNormalOrders(ctx context.Context) ([]OrderView, error) {
	return uc.list(ctx, ports.OrderFilter{Green: ptr(false), Cancelled: ptr(false)})
}

func (uc *OrderUseCase) list(ctx context.Context, filter ports.OrderFilter) ([]OrderView, error) {
	orders, err := uc.store.Orders().List(ctx, filter)
	if err != nil {
		return nil, errors.Internal(err, "failed to list orders")
	}
	return joinOrders(ctx, uc.store.Products(), orders)
}
