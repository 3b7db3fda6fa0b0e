package adapters

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"ecomart/internal/orders/domain"
	"ecomart/internal/orders/ports"
	useradapters "ecomart/internal/users/adapters"
	userdomain "ecomart/internal/users/domain"
	"ecomart/pkg/db"
	"ecomart/pkg/errors"
	"ecomart/pkg/geo"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx := context.Background()
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("ecomart"),
		postgres.WithUsername("ecomart"),
		postgres.WithPassword("ecomart"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	conn, err := db.Open(dsn, 10*time.Second, 0, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })

	require.NoError(t, useradapters.NewPostgresUserRepository(conn).Migrate())
	require.NoError(t, Migrate(conn))
	return conn
}

func reset(t *testing.T, conn *gorm.DB) {
	t.Helper()
	require.NoError(t, conn.Exec("TRUNCATE green_products, orders, products, users RESTART IDENTITY CASCADE").Error)
}

func seedProduct(t *testing.T, conn *gorm.DB, name string, sold bool) uint {
	t.Helper()
	m := ProductToModel(&domain.Product{Name: name, Price: decimal.RequireFromString("500"), Origin: "Germany", Sold: sold})
	require.NoError(t, conn.Create(m).Error)
	return m.ID
}

func seedUser(t *testing.T, conn *gorm.DB, id uint) {
	t.Helper()
	u, err := userdomain.NewUser(id, "shopper", "shopper@example.com", "")
	require.NoError(t, err)
	require.NoError(t, useradapters.NewPostgresUserRepository(conn).Create(context.Background(), u))
}

func seedListing(t *testing.T, store *GormStore, productID uint) *domain.GreenProduct {
	t.Helper()
	gp := &domain.GreenProduct{
		ProductID:       productID,
		Warehouse:       domain.Warehouse{Name: "Delhi", Point: geo.Point{Latitude: 28.6139, Longitude: 77.209}},
		CarbonFootprint: 4.5,
		GreenCoins:      30,
	}
	require.NoError(t, store.GreenProducts().Create(context.Background(), gp))
	return gp
}

func TestGormStore(t *testing.T) {
	conn := setupTestDB(t)
	store := NewGormStore(conn)
	ctx := context.Background()

	t.Run("product CAS", func(t *testing.T) {
		reset(t, conn)
		id := seedProduct(t, conn, "Kettle", false)

		changed, err := store.Products().MarkSold(ctx, id, true)
		require.NoError(t, err)
		assert.True(t, changed)

		changed, err = store.Products().MarkSold(ctx, id, true)
		require.NoError(t, err)
		assert.False(t, changed)

		changed, err = store.Products().MarkSold(ctx, id, false)
		require.NoError(t, err)
		assert.True(t, changed)

		p, err := store.Products().GetByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, p.Sold)
		assert.True(t, decimal.RequireFromString("500").Equal(p.Price))
	})

	t.Run("product lookups", func(t *testing.T) {
		reset(t, conn)
		a := seedProduct(t, conn, "A", false)
		b := seedProduct(t, conn, "B", true)

		byID, err := store.Products().GetByIDs(ctx, []uint{a, b, 999})
		require.NoError(t, err)
		assert.Len(t, byID, 2)

		sold := true
		list, err := store.Products().List(ctx, ports.ProductFilter{Sold: &sold})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, b, list[0].ID)

		_, err = store.Products().GetByID(ctx, 999)
		assert.True(t, errors.Is(err, errors.CodeNotFound))
	})

	t.Run("order cancel CAS", func(t *testing.T) {
		reset(t, conn)
		pid := seedProduct(t, conn, "Lamp", true)
		order, err := domain.NewOrder(1, pid, "1 Park Street", false)
		require.NoError(t, err)
		require.NoError(t, store.Orders().Create(ctx, order))

		var wins int32
		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := store.Orders().MarkCancelled(ctx, order.ID)
				if err == nil && ok {
					atomic.AddInt32(&wins, 1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), wins)

		cancelled := true
		list, err := store.Orders().List(ctx, ports.OrderFilter{Cancelled: &cancelled})
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("green listing lifecycle", func(t *testing.T) {
		reset(t, conn)
		pid := seedProduct(t, conn, "Rug", true)
		first := seedListing(t, store, pid)
		seedListing(t, store, pid)

		found, err := store.GreenProducts().FindUnsoldByProduct(ctx, pid)
		require.NoError(t, err)
		assert.Equal(t, first.ID, found.ID)
		assert.Equal(t, "Delhi", found.Warehouse.Name)
		assert.InDelta(t, 28.6139, found.Warehouse.Latitude, 1e-9)

		ok, err := store.GreenProducts().MarkSold(ctx, first.ID)
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = store.GreenProducts().MarkSold(ctx, first.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		ids, err := store.GreenProducts().ListedProductIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []uint{pid}, ids)

		_, err = store.GreenProducts().FindUnsoldByProduct(ctx, 999)
		assert.True(t, errors.Is(err, errors.CodeNotFound))
	})

	t.Run("reward credit", func(t *testing.T) {
		reset(t, conn)
		seedUser(t, conn, 7)

		require.NoError(t, store.Rewards().Credit(ctx, 7, 30, 4.5))
		require.NoError(t, store.Rewards().Credit(ctx, 7, 20, 1.5))

		u, err := useradapters.NewPostgresUserRepository(conn).GetByID(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, 50, u.GreenCoins)
		assert.InDelta(t, 6.0, u.CarbonFootprintSaved, 1e-9)

		err = store.Rewards().Credit(ctx, 8, 1, 1)
		assert.True(t, errors.Is(err, errors.CodeNotFound))
	})

	t.Run("atomic rollback", func(t *testing.T) {
		reset(t, conn)
		pid := seedProduct(t, conn, "Chair", false)

		err := store.Atomic(ctx, func(tx ports.Store) error {
			if _, err := tx.Products().MarkSold(ctx, pid, true); err != nil {
				return err
			}
			return tx.Rewards().Credit(ctx, 404, 1, 1)
		})
		require.Error(t, err)

		p, err := store.Products().GetByID(ctx, pid)
		require.NoError(t, err)
		assert.False(t, p.Sold)
	})
}
