package application

import (
	"context"
	"sync"
	"testing"

	"ecomart/internal/orders/domain"
	"ecomart/pkg/errors"
)

func newOrderUseCase(store *MockStore, publisher *MockEventPublisher, strict bool) *OrderUseCase {
	rescue := fixedRescue{warehouse: domain.Warehouses[0], coins: 7}
	return NewOrderUseCase(store, rescue, publisher, OrderOptions{StrictProductSale: strict}, testLogger())
}

func TestCreateOrder_Success(t *testing.T) {
	// Arrange
	store := NewMockStore()
	productID := store.addProduct("Kettle", "USA", false)
	publisher := &MockEventPublisher{}
	useCase := newOrderUseCase(store, publisher, true)

	// Act
	output, err := useCase.CreateOrder(context.Background(), CreateOrderInput{
		ProductID:       productID,
		UserID:          1,
		ShippingAddress: "12 MG Road, Delhi",
	})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output.Order.ID == 0 {
		t.Error("expected order ID to be assigned")
	}

	if output.Order.IsGreenProduct || output.Order.IsCancelled {
		t.Errorf("expected placed normal order, got %+v", output.Order)
	}

	if !store.product(productID).Sold {
		t.Error("expected product to be marked sold")
	}

	if output.Product == nil || output.Product.Name != "Kettle" {
		t.Errorf("expected product Kettle in output, got %+v", output.Product)
	}

	if events := publisher.Events(); len(events) != 1 || events[0] != "order.placed" {
		t.Errorf("expected one order.placed event, got %v", events)
	}
}

func TestCreateOrder_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input CreateOrderInput
	}{
		{"missing product", CreateOrderInput{UserID: 1, ShippingAddress: "Delhi"}},
		{"missing user", CreateOrderInput{ProductID: 1, ShippingAddress: "Delhi"}},
		{"blank address", CreateOrderInput{ProductID: 1, UserID: 1, ShippingAddress: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			store := NewMockStore()
			store.addProduct("Kettle", "USA", false)
			useCase := newOrderUseCase(store, &MockEventPublisher{}, true)

			// Act
			_, err := useCase.CreateOrder(context.Background(), tt.input)

			// Assert
			if !errors.Is(err, errors.CodeValidation) {
				t.Errorf("expected validation error, got %v", err)
			}

			if store.product(1).Sold {
				t.Error("expected product to stay unsold")
			}
		})
	}
}

func TestCreateOrder_ProductNotFound(t *testing.T) {
	// Arrange
	store := NewMockStore()
	useCase := newOrderUseCase(store, &MockEventPublisher{}, true)

	// Act
	_, err := useCase.CreateOrder(context.Background(), CreateOrderInput{
		ProductID:       999,
		UserID:          1,
		ShippingAddress: "Delhi",
	})

	// Assert
	if !errors.Is(err, errors.CodeNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestCreateOrder_AlreadySold(t *testing.T) {
	t.Run("strict rejects", func(t *testing.T) {
		// Arrange
		store := NewMockStore()
		productID := store.addProduct("Kettle", "USA", true)
		useCase := newOrderUseCase(store, &MockEventPublisher{}, true)

		// Act
		_, err := useCase.CreateOrder(context.Background(), CreateOrderInput{
			ProductID: productID, UserID: 1, ShippingAddress: "Delhi",
		})

		// Assert
		if !errors.Is(err, errors.CodeConflict) {
			t.Errorf("expected conflict error, got %v", err)
		}
	})

	t.Run("lenient overwrites", func(t *testing.T) {
		// Arrange
		store := NewMockStore()
		productID := store.addProduct("Kettle", "USA", true)
		useCase := newOrderUseCase(store, &MockEventPublisher{}, false)

		// Act
		output, err := useCase.CreateOrder(context.Background(), CreateOrderInput{
			ProductID: productID, UserID: 1, ShippingAddress: "Delhi",
		})

		// Assert
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.Order.ID == 0 {
			t.Error("expected order to be created")
		}
	})
}

func TestCreateOrder_ConcurrentStrict(t *testing.T) {
	// Arrange
	store := NewMockStore()
	productID := store.addProduct("Kettle", "USA", false)
	useCase := newOrderUseCase(store, &MockEventPublisher{}, true)

	const buyers = 8
	errs := make([]error, buyers)
	var wg sync.WaitGroup

	// Act
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = useCase.CreateOrder(context.Background(), CreateOrderInput{
				ProductID: productID, UserID: uint(i + 1), ShippingAddress: "Delhi",
			})
		}(i)
	}
	wg.Wait()

	// Assert
	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case !errors.Is(err, errors.CodeConflict):
			t.Errorf("expected conflict for losing buyers, got %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("expected exactly one successful order, got %d", succeeded)
	}
}

func TestCancelOrder_CreatesOneListing(t *testing.T) {
	// Arrange
	store := NewMockStore()
	productID := store.addProduct("Kettle", "USA", false)
	publisher := &MockEventPublisher{}
	useCase := newOrderUseCase(store, publisher, true)

	created, err := useCase.CreateOrder(context.Background(), CreateOrderInput{
		ProductID: productID, UserID: 1, ShippingAddress: "Delhi",
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	// Act
	output, err := useCase.CancelOrder(context.Background(), CancelOrderInput{OrderID: created.Order.ID})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !output.Order.IsCancelled || !store.order(created.Order.ID).IsCancelled {
		t.Error("expected order to be cancelled")
	}

	listings := store.listingsFor(productID)
	if len(listings) != 1 {
		t.Fatalf("expected 1 listing, got %d", len(listings))
	}
	if listings[0].IsSold {
		t.Error("expected listing to be unsold")
	}
	if listings[0].CarbonFootprint != domain.RescueCarbonFootprintKg {
		t.Errorf("expected carbon %v, got %v", domain.RescueCarbonFootprintKg, listings[0].CarbonFootprint)
	}
	if output.GreenProduct.ID != listings[0].ID {
		t.Errorf("expected output listing %d, got %d", listings[0].ID, output.GreenProduct.ID)
	}

	if !store.product(productID).Sold {
		t.Error("expected product to stay sold")
	}
}

func TestCancelOrder_SecondAttemptRejected(t *testing.T) {
	// Arrange
	store := NewMockStore()
	productID := store.addProduct("Kettle", "USA", false)
	useCase := newOrderUseCase(store, &MockEventPublisher{}, true)

	created, _ := useCase.CreateOrder(context.Background(), CreateOrderInput{
		ProductID: productID, UserID: 1, ShippingAddress: "Delhi",
	})
	if _, err := useCase.CancelOrder(context.Background(), CancelOrderInput{OrderID: created.Order.ID}); err != nil {
		t.Fatalf("setup: %v", err)
	}

	// Act
	_, err := useCase.CancelOrder(context.Background(), CancelOrderInput{OrderID: created.Order.ID})

	// Assert
	if !errors.Is(err, errors.CodeConflict) {
		t.Errorf("expected conflict error, got %v", err)
	}

	if n := len(store.listingsFor(productID)); n != 1 {
		t.Errorf("expected still 1 listing, got %d", n)
	}
}

func TestCancelOrder_ConcurrentOnlyOneWins(t *testing.T) {
	// Arrange
	store := NewMockStore()
	productID := store.addProduct("Kettle", "USA", false)
	useCase := newOrderUseCase(store, &MockEventPublisher{}, true)

	created, _ := useCase.CreateOrder(context.Background(), CreateOrderInput{
		ProductID: productID, UserID: 1, ShippingAddress: "Delhi",
	})

	const callers = 10
	errs := make([]error, callers)
	var wg sync.WaitGroup

	// Act
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = useCase.CancelOrder(context.Background(), CancelOrderInput{OrderID: created.Order.ID})
		}(i)
	}
	wg.Wait()

	// Assert
	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, errors.CodeConflict) {
			t.Errorf("expected conflict, got %v", err)
		}
	}
	if succeeded != 1 {
		t.Errorf("expected 1 successful cancel, got %d", succeeded)
	}
	if n := len(store.listingsFor(productID)); n != 1 {
		t.Errorf("expected 1 listing, got %d", n)
	}
}

func TestCancelOrder_ListingFailureRollsBack(t *testing.T) {
	// Arrange
	store := NewMockStore()
	productID := store.addProduct("Kettle", "USA", false)
	useCase := newOrderUseCase(store, &MockEventPublisher{}, true)

	created, _ := useCase.CreateOrder(context.Background(), CreateOrderInput{
		ProductID: productID, UserID: 1, ShippingAddress: "Delhi",
	})
	store.failListingCreate = true

	// Act
	_, err := useCase.CancelOrder(context.Background(), CancelOrderInput{OrderID: created.Order.ID})

	// Assert
	if !errors.Is(err, errors.CodeInternal) {
		t.Errorf("expected internal error, got %v", err)
	}

	if store.order(created.Order.ID).IsCancelled {
		t.Error("expected cancellation to be rolled back")
	}
}

func TestCancelOrder_NotFound(t *testing.T) {
	// Arrange
	useCase := newOrderUseCase(NewMockStore(), &MockEventPublisher{}, true)

	// Act
	_, err := useCase.CancelOrder(context.Background(), CancelOrderInput{OrderID: 42})

	// Assert
	if !errors.Is(err, errors.CodeNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestGetOrder_Success(t *testing.T) {
	// Arrange
	store := NewMockStore()
	productID := store.addProduct("Kettle", "USA", false)
	useCase := newOrderUseCase(store, &MockEventPublisher{}, true)

	created, _ := useCase.CreateOrder(context.Background(), CreateOrderInput{
		ProductID: productID, UserID: 1, ShippingAddress: "Delhi",
	})

	// Act
	output, err := useCase.GetOrder(context.Background(), GetOrderInput{ID: created.Order.ID})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if output.Order.Order.ID != created.Order.ID {
		t.Errorf("expected ID %d, got %d", created.Order.ID, output.Order.Order.ID)
	}

	if output.Order.Product == nil || output.Order.Product.ID != productID {
		t.Errorf("expected joined product %d, got %+v", productID, output.Order.Product)
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	// Arrange
	useCase := newOrderUseCase(NewMockStore(), &MockEventPublisher{}, true)

	// Act
	_, err := useCase.GetOrder(context.Background(), GetOrderInput{ID: 999})

	// Assert
	if !errors.Is(err, errors.CodeNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestListOrders_Filters(t *testing.T) {
	// Arrange
	store := NewMockStore()
	useCase := newOrderUseCase(store, &MockEventPublisher{}, true)
	ctx := context.Background()

	var ids []uint
	for _, user := range []uint{1, 1, 2} {
		productID := store.addProduct("Item", "USA", false)
		out, err := useCase.CreateOrder(ctx, CreateOrderInput{ProductID: productID, UserID: user, ShippingAddress: "Delhi"})
		if err != nil {
			t.Fatalf("setup: %v", err)
		}
		ids = append(ids, out.Order.ID)
	}
	if _, err := useCase.CancelOrder(ctx, CancelOrderInput{OrderID: ids[0]}); err != nil {
		t.Fatalf("setup: %v", err)
	}

	// Act
	userOrders, err := useCase.ListUserOrders(ctx, 1)
	if err != nil {
		t.Fatalf("ListUserOrders: %v", err)
	}
	cancelled, err := useCase.ListCancelledOrders(ctx)
	if err != nil {
		t.Fatalf("ListCancelledOrders: %v", err)
	}
	normal, err := useCase.ListNormalOrders(ctx)
	if err != nil {
		t.Fatalf("ListNormalOrders: %v", err)
	}

	// Assert
	if len(userOrders) != 2 {
		t.Errorf("expected 2 orders for user 1, got %d", len(userOrders))
	}
	if len(cancelled) != 1 || cancelled[0].Order.ID != ids[0] {
		t.Errorf("expected cancelled order %d, got %v", ids[0], cancelled)
	}
	if len(normal) != 2 {
		t.Errorf("expected 2 live normal orders, got %d", len(normal))
	}
	for _, v := range normal {
		if v.Product == nil {
			t.Errorf("expected product joined on order %d", v.Order.ID)
		}
	}
}

func TestListUserOrders_RequiresUser(t *testing.T) {
	// Arrange
	useCase := newOrderUseCase(NewMockStore(), &MockEventPublisher{}, true)

	// Act
	_, err := useCase.ListUserOrders(context.Background(), 0)

	// Assert
	if !errors.Is(err, errors.CodeValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestListOrders_StoreFailure(t *testing.T) {
	// Arrange
	store := NewMockStore()
	store.failLists = true
	useCase := newOrderUseCase(store, &MockEventPublisher{}, true)

	// Act
	_, err := useCase.ListCancelledOrders(context.Background())

	// Assert
	if !errors.Is(err, errors.CodeInternal) {
		t.Errorf("expected internal error, got %v", err)
	}
}
