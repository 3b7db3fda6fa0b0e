package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"ecomart/internal/orders/domain"
	"ecomart/internal/orders/ports"
	"ecomart/pkg/db"
	apperrors "ecomart/pkg/errors"
	"ecomart/pkg/geo"
)

// ProductModel is the GORM model for products (persistence layer)
type ProductModel struct {
	ID        uint            `gorm:"primaryKey"`
	Name      string          `gorm:"size:255;not null"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Category  string          `gorm:"size:100"`
	ImageURL  string          `gorm:"size:512"`
	Origin    string          `gorm:"size:100;not null;default:'USA'"`
	Sold      bool            `gorm:"index;not null;default:false"`
	CreatedAt time.Time       `gorm:"autoCreateTime"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// OrderModel is the GORM model for orders
type OrderModel struct {
	ID              uint      `gorm:"primaryKey"`
	CustomerID      uint      `gorm:"index;not null"`
	ProductID       uint      `gorm:"index;not null"`
	ShippingAddress string    `gorm:"size:512;not null"`
	IsGreenProduct  bool      `gorm:"not null;default:false"`
	IsCancelled     bool      `gorm:"not null;default:false"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// GreenProductModel is the GORM model for rescue listings
type GreenProductModel struct {
	ID                 uint      `gorm:"primaryKey"`
	ProductID          uint      `gorm:"index;not null"`
	WarehouseName      string    `gorm:"size:100;not null"`
	WarehouseLatitude  float64   `gorm:"not null"`
	WarehouseLongitude float64   `gorm:"not null"`
	CarbonFootprint    float64   `gorm:"not null"`
	GreenCoins         int       `gorm:"not null"`
	IsSold             bool      `gorm:"index;not null;default:false"`
	CreatedAt          time.Time `gorm:"autoCreateTime"`
	UpdatedAt          time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for GORM
func (GreenProductModel) TableName() string {
	return "green_products"
}

// Migrate runs auto-migration for the order models. The users table is
// migrated by the users context.
func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(&ProductModel{}, &OrderModel{}, &GreenProductModel{})
}

// GormStore implements ports.Store on PostgreSQL. A store returned to an
// Atomic callback is bound to that transaction.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new store
func NewGormStore(conn *gorm.DB) *GormStore {
	return &GormStore{db: conn}
}

func (s *GormStore) Products() ports.ProductRepository          { return &productRepository{db: s.db} }
func (s *GormStore) Orders() ports.OrderRepository              { return &orderRepository{db: s.db} }
func (s *GormStore) GreenProducts() ports.GreenProductRepository { return &greenProductRepository{db: s.db} }
func (s *GormStore) Rewards() ports.RewardLedger                { return &rewardLedger{db: s.db} }

// Atomic runs fn in a database transaction
func (s *GormStore) Atomic(ctx context.Context, fn func(tx ports.Store) error) error {
	return db.Transaction(ctx, s.db, func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}

type productRepository struct {
	db *gorm.DB
}

func (r *productRepository) GetByID(ctx context.Context, id uint) (*domain.Product, error) {
	var model ProductModel

	result := r.db.WithContext(ctx).First(&model, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.NewProductNotFound(id)
		}
		return nil, apperrors.NewInternal("failed to get product", result.Error)
	}

	return productToDomain(&model), nil
}

func (r *productRepository) GetByIDs(ctx context.Context, ids []uint) (map[uint]*domain.Product, error) {
	out := make(map[uint]*domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var models []ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, apperrors.NewInternal("failed to get products", err)
	}

	for i := range models {
		out[models[i].ID] = productToDomain(&models[i])
	}
	return out, nil
}

func (r *productRepository) List(ctx context.Context, filter ports.ProductFilter) ([]*domain.Product, error) {
	q := r.db.WithContext(ctx).Order("id")
	if filter.Sold != nil {
		q = q.Where("sold = ?", *filter.Sold)
	}

	var models []ProductModel
	if err := q.Find(&models).Error; err != nil {
		return nil, apperrors.NewInternal("failed to list products", err)
	}

	products := make([]*domain.Product, len(models))
	for i := range models {
		products[i] = productToDomain(&models[i])
	}
	return products, nil
}

func (r *productRepository) MarkSold(ctx context.Context, id uint, onlyIfUnsold bool) (bool, error) {
	q := r.db.WithContext(ctx).Model(&ProductModel{}).Where("id = ?", id)
	if onlyIfUnsold {
		q = q.Where("sold = ?", false)
	}

	result := q.Update("sold", true)
	if result.Error != nil {
		return false, apperrors.NewInternal("failed to mark product sold", result.Error)
	}
	return result.RowsAffected == 1, nil
}

type orderRepository struct {
	db *gorm.DB
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	model := orderToModel(order)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return apperrors.NewInternal("failed to create order", err)
	}

	order.ID = model.ID
	order.CreatedAt = model.CreatedAt
	order.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id uint) (*domain.Order, error) {
	var model OrderModel

	result := r.db.WithContext(ctx).First(&model, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.NewOrderNotFound(id)
		}
		return nil, apperrors.NewInternal("failed to get order", result.Error)
	}

	return orderToDomain(&model), nil
}

func (r *orderRepository) List(ctx context.Context, filter ports.OrderFilter) ([]*domain.Order, error) {
	q := r.db.WithContext(ctx).Order("created_at DESC, id DESC")
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Green != nil {
		q = q.Where("is_green_product = ?", *filter.Green)
	}
	if filter.Cancelled != nil {
		q = q.Where("is_cancelled = ?", *filter.Cancelled)
	}

	var models []OrderModel
	if err := q.Find(&models).Error; err != nil {
		return nil, apperrors.NewInternal("failed to list orders", err)
	}

	orders := make([]*domain.Order, len(models))
	for i := range models {
		orders[i] = orderToDomain(&models[i])
	}
	return orders, nil
}

func (r *orderRepository) MarkCancelled(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&OrderModel{}).
		Where("id = ? AND is_cancelled = ?", id, false).
		Update("is_cancelled", true)
	if result.Error != nil {
		return false, apperrors.NewInternal("failed to cancel order", result.Error)
	}
	return result.RowsAffected == 1, nil
}

type greenProductRepository struct {
	db *gorm.DB
}

func (r *greenProductRepository) Create(ctx context.Context, gp *domain.GreenProduct) error {
	model := greenToModel(gp)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return apperrors.NewInternal("failed to create green product", err)
	}

	gp.ID = model.ID
	gp.CreatedAt = model.CreatedAt
	gp.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *greenProductRepository) GetByID(ctx context.Context, id uint) (*domain.GreenProduct, error) {
	var model GreenProductModel

	result := r.db.WithContext(ctx).First(&model, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.NewGreenProductNotFound(id)
		}
		return nil, apperrors.NewInternal("failed to get green product", result.Error)
	}

	return greenToDomain(&model), nil
}

func (r *greenProductRepository) List(ctx context.Context, filter ports.GreenProductFilter) ([]*domain.GreenProduct, error) {
	q := r.db.WithContext(ctx).Order("id")
	if filter.Sold != nil {
		q = q.Where("is_sold = ?", *filter.Sold)
	}

	var models []GreenProductModel
	if err := q.Find(&models).Error; err != nil {
		return nil, apperrors.NewInternal("failed to list green products", err)
	}

	listings := make([]*domain.GreenProduct, len(models))
	for i := range models {
		listings[i] = greenToDomain(&models[i])
	}
	return listings, nil
}

func (r *greenProductRepository) FindUnsoldByProduct(ctx context.Context, productID uint) (*domain.GreenProduct, error) {
	var model GreenProductModel

	result := r.db.WithContext(ctx).
		Where("product_id = ? AND is_sold = ?", productID, false).
		Order("id").
		First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.NewGreenProductUnavailable(productID)
		}
		return nil, apperrors.NewInternal("failed to find green product", result.Error)
	}

	return greenToDomain(&model), nil
}

func (r *greenProductRepository) MarkSold(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&GreenProductModel{}).
		Where("id = ? AND is_sold = ?", id, false).
		Update("is_sold", true)
	if result.Error != nil {
		return false, apperrors.NewInternal("failed to mark green product sold", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *greenProductRepository) ListedProductIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&GreenProductModel{}).Distinct().Pluck("product_id", &ids).Error; err != nil {
		return nil, apperrors.NewInternal("failed to list green product ids", err)
	}
	return ids, nil
}

// rewardLedger increments counters on the users table owned by the users context
type rewardLedger struct {
	db *gorm.DB
}

func (r *rewardLedger) Credit(ctx context.Context, userID uint, greenCoins int, carbonKg float64) error {
	result := r.db.WithContext(ctx).
		Table("users").
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"green_coins":            gorm.Expr("green_coins + ?", greenCoins),
			"carbon_footprint_saved": gorm.Expr("carbon_footprint_saved + ?", carbonKg),
			"updated_at":             time.Now(),
		})
	if result.Error != nil {
		return apperrors.NewInternal("failed to credit rewards", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewUserNotFound(userID)
	}
	return nil
}

func productToDomain(m *ProductModel) *domain.Product {
	return &domain.Product{
		ID:        m.ID,
		Name:      m.Name,
		Price:     m.Price,
		Category:  m.Category,
		ImageURL:  m.ImageURL,
		Origin:    m.Origin,
		Sold:      m.Sold,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// ProductToModel converts a domain product for seeding and tests
func ProductToModel(p *domain.Product) *ProductModel {
	origin := p.Origin
	if origin == "" {
		origin = domain.DefaultOrigin
	}
	return &ProductModel{
		ID:        p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Category:  p.Category,
		ImageURL:  p.ImageURL,
		Origin:    origin,
		Sold:      p.Sold,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func orderToModel(o *domain.Order) *OrderModel {
	return &OrderModel{
		ID:              o.ID,
		CustomerID:      o.CustomerID,
		ProductID:       o.ProductID,
		ShippingAddress: o.ShippingAddress,
		IsGreenProduct:  o.IsGreenProduct,
		IsCancelled:     o.IsCancelled,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func orderToDomain(m *OrderModel) *domain.Order {
	return &domain.Order{
		ID:              m.ID,
		CustomerID:      m.CustomerID,
		ProductID:       m.ProductID,
		ShippingAddress: m.ShippingAddress,
		IsGreenProduct:  m.IsGreenProduct,
		IsCancelled:     m.IsCancelled,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func greenToModel(gp *domain.GreenProduct) *GreenProductModel {
	return &GreenProductModel{
		ID:                 gp.ID,
		ProductID:          gp.ProductID,
		WarehouseName:      gp.Warehouse.Name,
		WarehouseLatitude:  gp.Warehouse.Latitude,
		WarehouseLongitude: gp.Warehouse.Longitude,
		CarbonFootprint:    gp.CarbonFootprint,
		GreenCoins:         gp.GreenCoins,
		IsSold:             gp.IsSold,
		CreatedAt:          gp.CreatedAt,
		UpdatedAt:          gp.UpdatedAt,
	}
}

func greenToDomain(m *GreenProductModel) *domain.GreenProduct {
	return &domain.GreenProduct{
		ID:        m.ID,
		ProductID: m.ProductID,
		Warehouse: domain.Warehouse{
			Name:  m.WarehouseName,
			Point: geo.Point{Latitude: m.WarehouseLatitude, Longitude: m.WarehouseLongitude},
		},
		CarbonFootprint: m.CarbonFootprint,
		GreenCoins:      m.GreenCoins,
		IsSold:          m.IsSold,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
