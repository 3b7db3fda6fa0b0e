package adapters

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"ecomart/internal/users/domain"
	"ecomart/pkg/db"
	"ecomart/pkg/errors"
)

func setupRepository(t *testing.T) *PostgresUserRepository {
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

	repo := NewPostgresUserRepository(conn)
	require.NoError(t, repo.Migrate())
	return repo
}

func mustUser(t *testing.T, id uint, username, role string, coins int) *domain.User {
	t.Helper()
	u, err := domain.NewUser(id, username, username+"@example.com", role)
	require.NoError(t, err)
	u.GreenCoins = coins
	return u
}

func TestPostgresUserRepository(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	t.Run("explicit id advances the sequence", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, mustUser(t, 40, "asha", "", 0)))

		generated := mustUser(t, 0, "bo", "", 0)
		require.NoError(t, repo.Create(ctx, generated))
		assert.Greater(t, generated.ID, uint(40))
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		err := repo.Create(ctx, mustUser(t, 0, "asha", "", 0))
		assert.True(t, errors.Is(err, errors.CodeConflict))
	})

	t.Run("lookups", func(t *testing.T) {
		u, err := repo.GetByEmail(ctx, "asha@example.com")
		require.NoError(t, err)
		assert.Equal(t, uint(40), u.ID)

		_, err = repo.GetByID(ctx, 9999)
		assert.True(t, errors.Is(err, errors.CodeNotFound))
	})

	t.Run("leaderboard", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, mustUser(t, 0, "top", domain.RoleUser, 90)))
		require.NoError(t, repo.Create(ctx, mustUser(t, 0, "shop", domain.RoleSeller, 500)))

		board, err := repo.Leaderboard(ctx, domain.RoleUser, 2)
		require.NoError(t, err)
		require.Len(t, board, 2)
		assert.Equal(t, "top", board[0].Username)
		for _, u := range board {
			assert.Equal(t, domain.RoleUser, u.Role)
		}
	})
}
