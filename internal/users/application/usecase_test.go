package application

import (
	"context"
	"io"
	"sort"
	"testing"

	"ecomart/internal/users/domain"
	"ecomart/pkg/errors"
	"ecomart/pkg/logger"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	users    map[uint]*domain.User
	byEmail  map[string]*domain.User
	nextID   uint
	createFn func(ctx context.Context, user *domain.User) error
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:   make(map[uint]*domain.User),
		byEmail: make(map[string]*domain.User),
		nextID:  1,
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	if user.ID == 0 {
		user.ID = m.nextID
	}
	if user.ID >= m.nextID {
		m.nextID = user.ID + 1
	}
	m.users[user.ID] = user
	m.byEmail[user.Email] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, domain.NewUserNotFound(id)
	}
	return user, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return nil, errors.NewNotFound("user", email)
	}
	return user, nil
}

func (m *MockUserRepository) Leaderboard(ctx context.Context, role string, limit int) ([]*domain.User, error) {
	var out []*domain.User
	for _, u := range m.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GreenCoins > out[j].GreenCoins })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func newUseCase(repo *MockUserRepository) *UserUseCase {
	return NewUserUseCase(repo, logger.New("test", "debug", logger.WithOutput(io.Discard)))
}

func TestProvision_Success(t *testing.T) {
	// Arrange
	repo := NewMockUserRepository()
	useCase := newUseCase(repo)

	// Act
	output, err := useCase.Provision(context.Background(), ProvisionInput{
		Username: "asha",
		Email:    "Asha@Example.com",
	})

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !output.Created {
		t.Error("expected account to be created")
	}

	if output.User.ID != 1 {
		t.Errorf("expected ID 1, got %d", output.User.ID)
	}

	if output.User.Email != "asha@example.com" {
		t.Errorf("expected normalized email, got %s", output.User.Email)
	}

	if output.User.Role != domain.RoleUser {
		t.Errorf("expected default role user, got %s", output.User.Role)
	}

	if output.User.GreenCoins != 0 || output.User.CarbonFootprintSaved != 0 {
		t.Errorf("expected zero counters, got %d / %v", output.User.GreenCoins, output.User.CarbonFootprintSaved)
	}
}

func TestProvision_Idempotent(t *testing.T) {
	// Arrange
	repo := NewMockUserRepository()
	useCase := newUseCase(repo)
	input := ProvisionInput{ID: 42, Username: "ravi", Email: "ravi@example.com"}

	first, err := useCase.Provision(context.Background(), input)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	first.User.GreenCoins = 30

	// Act
	second, err := useCase.Provision(context.Background(), input)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if second.Created {
		t.Error("expected second provision to reuse the account")
	}

	if second.User.ID != 42 || second.User.GreenCoins != 30 {
		t.Errorf("expected existing account with balance kept, got %+v", second.User)
	}

	if len(repo.users) != 1 {
		t.Errorf("expected 1 account, got %d", len(repo.users))
	}
}

func TestProvision_EmailTakenByOtherAccount(t *testing.T) {
	// Arrange
	repo := NewMockUserRepository()
	useCase := newUseCase(repo)
	_, _ = useCase.Provision(context.Background(), ProvisionInput{ID: 1, Username: "ravi", Email: "ravi@example.com"})

	// Act
	_, err := useCase.Provision(context.Background(), ProvisionInput{ID: 2, Username: "other", Email: "ravi@example.com"})

	// Assert
	if !errors.Is(err, errors.CodeConflict) {
		t.Errorf("expected conflict error, got %v", err)
	}
}

func TestProvision_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input ProvisionInput
	}{
		{"missing username", ProvisionInput{Email: "a@example.com"}},
		{"short username", ProvisionInput{Username: "a", Email: "a@example.com"}},
		{"missing email", ProvisionInput{Username: "asha"}},
		{"bad email", ProvisionInput{Username: "asha", Email: "not-an-email"}},
		{"bad role", ProvisionInput{Username: "asha", Email: "a@example.com", Role: "root"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			useCase := newUseCase(NewMockUserRepository())

			// Act
			_, err := useCase.Provision(context.Background(), tt.input)

			// Assert
			if !errors.Is(err, errors.CodeValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestProvision_RepositoryError(t *testing.T) {
	// Arrange
	repo := NewMockUserRepository()
	repo.createFn = func(ctx context.Context, user *domain.User) error {
		return io.ErrUnexpectedEOF
	}
	useCase := newUseCase(repo)

	// Act
	_, err := useCase.Provision(context.Background(), ProvisionInput{Username: "asha", Email: "a@example.com"})

	// Assert
	if !errors.Is(err, errors.CodeInternal) {
		t.Errorf("expected internal error, got %v", err)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	// Arrange
	useCase := newUseCase(NewMockUserRepository())

	// Act
	_, err := useCase.GetUser(context.Background(), GetUserInput{ID: 999})

	// Assert
	if !errors.Is(err, errors.CodeNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestLeaderboard_SortsShoppersByCoins(t *testing.T) {
	// Arrange
	repo := NewMockUserRepository()
	useCase := newUseCase(repo)
	ctx := context.Background()

	for _, u := range []struct {
		name  string
		role  string
		coins int
	}{
		{"low", domain.RoleUser, 3},
		{"high", domain.RoleUser, 90},
		{"seller", domain.RoleSeller, 500},
		{"mid", domain.RoleUser, 40},
	} {
		out, err := useCase.Provision(ctx, ProvisionInput{Username: u.name, Email: u.name + "@example.com", Role: u.role})
		if err != nil {
			t.Fatalf("setup: %v", err)
		}
		out.User.GreenCoins = u.coins
	}

	// Act
	board, err := useCase.Leaderboard(ctx, 0)

	// Assert
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	var names []string
	for _, u := range board {
		names = append(names, u.Username)
	}
	if len(names) != 3 || names[0] != "high" || names[1] != "mid" || names[2] != "low" {
		t.Errorf("expected [high mid low], got %v", names)
	}
}
