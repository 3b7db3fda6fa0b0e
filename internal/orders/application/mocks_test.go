package application

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"ecomart/internal/impact"
	"ecomart/internal/location"
	"ecomart/internal/orders/domain"
	"ecomart/internal/orders/ports"
	"ecomart/pkg/geo"
	"ecomart/pkg/logger"
)

var errStoreDown = errors.New("store unavailable")

type account struct {
	coins  int
	carbon float64
}

// MockStore is an in-memory Store. Atomic serializes transactions and
// restores a snapshot when fn fails.
type MockStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	products map[uint]domain.Product
	orders   map[uint]domain.Order
	greens   map[uint]domain.GreenProduct
	users    map[uint]account
	nextID   uint

	failListingCreate bool
	failLists         bool
}

func NewMockStore() *MockStore {
	return &MockStore{
		products: make(map[uint]domain.Product),
		orders:   make(map[uint]domain.Order),
		greens:   make(map[uint]domain.GreenProduct),
		users:    make(map[uint]account),
		nextID:   1,
	}
}

func (s *MockStore) addProduct(name, origin string, sold bool) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.products[id] = domain.Product{
		ID:     id,
		Name:   name,
		Price:  decimal.NewFromInt(500),
		Origin: origin,
		Sold:   sold,
	}
	return id
}

func (s *MockStore) addUser(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = account{}
}

func (s *MockStore) addListing(productID uint, wh domain.Warehouse, coins int, sold bool) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.greens[id] = domain.GreenProduct{
		ID:              id,
		ProductID:       productID,
		Warehouse:       wh,
		CarbonFootprint: domain.RescueCarbonFootprintKg,
		GreenCoins:      coins,
		IsSold:          sold,
	}
	return id
}

func (s *MockStore) user(id uint) account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[id]
}

func (s *MockStore) product(id uint) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id]
}

func (s *MockStore) order(id uint) domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[id]
}

func (s *MockStore) listingsFor(productID uint) []domain.GreenProduct {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.GreenProduct
	for _, gp := range s.greens {
		if gp.ProductID == productID {
			out = append(out, gp)
		}
	}
	return out
}

func (s *MockStore) Products() ports.ProductRepository          { return mockProducts{s} }
func (s *MockStore) Orders() ports.OrderRepository              { return mockOrders{s} }
func (s *MockStore) GreenProducts() ports.GreenProductRepository { return mockGreens{s} }
func (s *MockStore) Rewards() ports.RewardLedger                { return mockRewards{s} }

func (s *MockStore) Atomic(ctx context.Context, fn func(tx ports.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snap := s.snapshot()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.restore(snap)
		s.mu.Unlock()
		return err
	}
	return nil
}

type mockSnapshot struct {
	products map[uint]domain.Product
	orders   map[uint]domain.Order
	greens   map[uint]domain.GreenProduct
	users    map[uint]account
	nextID   uint
}

func (s *MockStore) snapshot() mockSnapshot {
	snap := mockSnapshot{
		products: make(map[uint]domain.Product, len(s.products)),
		orders:   make(map[uint]domain.Order, len(s.orders)),
		greens:   make(map[uint]domain.GreenProduct, len(s.greens)),
		users:    make(map[uint]account, len(s.users)),
		nextID:   s.nextID,
	}
	for k, v := range s.products {
		snap.products[k] = v
	}
	for k, v := range s.orders {
		snap.orders[k] = v
	}
	for k, v := range s.greens {
		snap.greens[k] = v
	}
	for k, v := range s.users {
		snap.users[k] = v
	}
	return snap
}

func (s *MockStore) restore(snap mockSnapshot) {
	s.products = snap.products
	s.orders = snap.orders
	s.greens = snap.greens
	s.users = snap.users
	s.nextID = snap.nextID
}

func sortedKeys[V any](m map[uint]V) []uint {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

type mockProducts struct{ s *MockStore }

func (m mockProducts) GetByID(ctx context.Context, id uint) (*domain.Product, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.products[id]
	if !ok {
		return nil, domain.NewProductNotFound(id)
	}
	return &p, nil
}

func (m mockProducts) GetByIDs(ctx context.Context, ids []uint) (map[uint]*domain.Product, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	out := make(map[uint]*domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := m.s.products[id]; ok {
			out[id] = &p
		}
	}
	return out, nil
}

func (m mockProducts) List(ctx context.Context, filter ports.ProductFilter) ([]*domain.Product, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failLists {
		return nil, errStoreDown
	}
	var out []*domain.Product
	for _, id := range sortedKeys(m.s.products) {
		p := m.s.products[id]
		if filter.Sold != nil && p.Sold != *filter.Sold {
			continue
		}
		out = append(out, &p)
	}
	return out, nil
}

func (m mockProducts) MarkSold(ctx context.Context, id uint, onlyIfUnsold bool) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.products[id]
	if !ok || (onlyIfUnsold && p.Sold) {
		return false, nil
	}
	p.Sold = true
	m.s.products[id] = p
	return true, nil
}

type mockOrders struct{ s *MockStore }

func (m mockOrders) Create(ctx context.Context, order *domain.Order) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	order.ID = m.s.nextID
	m.s.nextID++
	m.s.orders[order.ID] = *order
	return nil
}

func (m mockOrders) GetByID(ctx context.Context, id uint) (*domain.Order, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	o, ok := m.s.orders[id]
	if !ok {
		return nil, domain.NewOrderNotFound(id)
	}
	return &o, nil
}

func (m mockOrders) List(ctx context.Context, filter ports.OrderFilter) ([]*domain.Order, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failLists {
		return nil, errStoreDown
	}
	var out []*domain.Order
	for _, id := range sortedKeys(m.s.orders) {
		o := m.s.orders[id]
		if filter.CustomerID != nil && o.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.Green != nil && o.IsGreenProduct != *filter.Green {
			continue
		}
		if filter.Cancelled != nil && o.IsCancelled != *filter.Cancelled {
			continue
		}
		out = append(out, &o)
	}
	return out, nil
}

func (m mockOrders) MarkCancelled(ctx context.Context, id uint) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	o, ok := m.s.orders[id]
	if !ok || o.IsCancelled {
		return false, nil
	}
	o.IsCancelled = true
	m.s.orders[id] = o
	return true, nil
}

type mockGreens struct{ s *MockStore }

func (m mockGreens) Create(ctx context.Context, gp *domain.GreenProduct) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failListingCreate {
		return errStoreDown
	}
	gp.ID = m.s.nextID
	m.s.nextID++
	m.s.greens[gp.ID] = *gp
	return nil
}

func (m mockGreens) GetByID(ctx context.Context, id uint) (*domain.GreenProduct, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	gp, ok := m.s.greens[id]
	if !ok {
		return nil, domain.NewGreenProductNotFound(id)
	}
	return &gp, nil
}

func (m mockGreens) List(ctx context.Context, filter ports.GreenProductFilter) ([]*domain.GreenProduct, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.failLists {
		return nil, errStoreDown
	}
	var out []*domain.GreenProduct
	for _, id := range sortedKeys(m.s.greens) {
		gp := m.s.greens[id]
		if filter.Sold != nil && gp.IsSold != *filter.Sold {
			continue
		}
		out = append(out, &gp)
	}
	return out, nil
}

func (m mockGreens) FindUnsoldByProduct(ctx context.Context, productID uint) (*domain.GreenProduct, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, id := range sortedKeys(m.s.greens) {
		gp := m.s.greens[id]
		if gp.ProductID == productID && !gp.IsSold {
			return &gp, nil
		}
	}
	return nil, domain.NewGreenProductUnavailable(productID)
}

func (m mockGreens) MarkSold(ctx context.Context, id uint) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	gp, ok := m.s.greens[id]
	if !ok || gp.IsSold {
		return false, nil
	}
	gp.IsSold = true
	m.s.greens[id] = gp
	return true, nil
}

func (m mockGreens) ListedProductIDs(ctx context.Context) ([]uint, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	seen := make(map[uint]struct{})
	var out []uint
	for _, gp := range m.s.greens {
		if _, ok := seen[gp.ProductID]; !ok {
			seen[gp.ProductID] = struct{}{}
			out = append(out, gp.ProductID)
		}
	}
	return out, nil
}

type mockRewards struct{ s *MockStore }

func (m mockRewards) Credit(ctx context.Context, userID uint, greenCoins int, carbonKg float64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	acc, ok := m.s.users[userID]
	if !ok {
		return domain.NewUserNotFound(userID)
	}
	acc.coins += greenCoins
	acc.carbon += carbonKg
	m.s.users[userID] = acc
	return nil
}

// MockEventPublisher records published events
type MockEventPublisher struct {
	mu     sync.Mutex
	events []string
}

func (m *MockEventPublisher) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, name)
}

func (m *MockEventPublisher) PublishOrderPlaced(ctx context.Context, order *domain.Order) error {
	m.record("order.placed")
	return nil
}

func (m *MockEventPublisher) PublishOrderCancelled(ctx context.Context, order *domain.Order, listing *domain.GreenProduct) error {
	m.record("order.cancelled")
	return nil
}

func (m *MockEventPublisher) PublishGreenOrderPlaced(ctx context.Context, order *domain.Order, listing *domain.GreenProduct) error {
	m.record("green_order.placed")
	return nil
}

func (m *MockEventPublisher) Events() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}

// fixedRescue always rescues into the same warehouse with the same reward
type fixedRescue struct {
	warehouse domain.Warehouse
	coins     int
}

func (f fixedRescue) Rescue(productID uint) *domain.GreenProduct {
	return &domain.GreenProduct{
		ProductID:       productID,
		Warehouse:       f.warehouse,
		CarbonFootprint: domain.RescueCarbonFootprintKg,
		GreenCoins:      f.coins,
	}
}

// MockResolver resolves labels from a map and everything else to Mumbai
type MockResolver struct {
	places map[string]location.Place
}

func (m MockResolver) lookup(label string) location.Place {
	if p, ok := m.places[label]; ok {
		return p
	}
	return location.Place{Point: geo.Point{Latitude: 19.0760, Longitude: 72.8777}, DisplayName: label}
}

func (m MockResolver) Resolve(ctx context.Context, label string) location.Place {
	return m.lookup(label)
}

func (m MockResolver) ResolveOrigin(ctx context.Context, label string) location.Place {
	return m.lookup(label)
}

// MockNarrator echoes a fixed message
type MockNarrator struct {
	got impact.Summary
}

func (m *MockNarrator) Narrate(ctx context.Context, s impact.Summary) (string, impact.Source) {
	m.got = s
	return "well done", impact.SourceTemplate
}

func testLogger() *logger.Logger {
	return logger.New("test", "debug", logger.WithOutput(io.Discard))
}
