package domain

import (
	"regexp"
	"strings"
	"time"
)

// Roles
const (
	RoleUser   = "user"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// User is a reward account. Credentials live with the auth service; only
// the reward counters are owned here.
type User struct {
	ID                   uint
	Username             string
	Email                string
	Role                 string
	GreenCoins           int
	CarbonFootprintSaved float64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// EmailRegex is the pattern for validating emails
var EmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Validate validates the user entity
func (u *User) Validate() error {
	if u.Username == "" {
		return ErrUsernameRequired
	}
	if len(u.Username) < 2 || len(u.Username) > 100 {
		return ErrUsernameLength
	}
	if u.Email == "" {
		return ErrEmailRequired
	}
	if !EmailRegex.MatchString(u.Email) {
		return ErrEmailInvalid
	}
	switch u.Role {
	case RoleUser, RoleSeller, RoleAdmin:
	default:
		return ErrRoleInvalid
	}
	return nil
}

// NewUser creates an account with zero counters. id may be zero to let the
// store assign one; an empty role defaults to RoleUser.
func NewUser(id uint, username, email, role string) (*User, error) {
	if role == "" {
		role = RoleUser
	}
	now := time.Now()
	user := &User{
		ID:        id,
		Username:  strings.TrimSpace(username),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}
