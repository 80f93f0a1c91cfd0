package user

import (
	"context"
	"errors"
	"log"
	"net/mail"
	"strings"
	"time"

	"github.com/example/marketplace/internal/auth"
	"github.com/google/uuid"
)

// Role is the closed set of account capabilities. Dispatch happens by
// matching on this tag; there is no account subclassing.
const (
	RoleUser   = "user"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrEmailTaken      = errors.New("user already exists with this email")
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrInvalidName     = errors.New("name must be at least 3 characters")
	ErrInvalidRole     = errors.New("invalid account role")
	ErrInvalidMobile   = errors.New("invalid mobile format (10 digits required)")
	ErrAccountBlocked  = errors.New("account is deactivated")
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Mobile       string    `json:"mobile,omitempty"`
	Address      string    `json:"address,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session is a refresh-token session; only the token hash is stored.
type Session struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	RefreshTokenHash string    `json:"-"`
	ExpiresAt        time.Time `json:"expires_at"`
	CreatedAt        time.Time `json:"created_at"`
	IPAddress        string    `json:"ip_address"`
	UserAgent        string    `json:"user_agent"`
}

type Store interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	// List returns accounts, optionally narrowed to a role and a
	// case-insensitive substring match on name or email.
	List(ctx context.Context, role, search string) ([]*User, error)
	SetActive(ctx context.Context, id string, active bool) error
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteSessionsByUser(ctx context.Context, userID string) error
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func isValidMobile(mobile string) bool {
	if len(mobile) != 10 {
		return false
	}
	for _, r := range mobile {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Register creates an account with the given capability tag. Admin accounts
// are provisioned out of band and cannot be self-registered.
func (s *Service) Register(ctx context.Context, email, password, name, role, mobile, address string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	if len(strings.TrimSpace(name)) < 3 {
		return nil, ErrInvalidName
	}
	if role != RoleUser && role != RoleSeller {
		return nil, ErrInvalidRole
	}
	if mobile != "" && !isValidMobile(mobile) {
		return nil, ErrInvalidMobile
	}

	if _, err := s.store.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	u := &User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(name),
		Role:         role,
		Mobile:       mobile,
		Address:      address,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ListAccounts returns accounts for the admin console, optionally filtered by
// role and a search term over name and email.
func (s *Service) ListAccounts(ctx context.Context, role, search string) ([]*User, error) {
	if role != "" && role != RoleUser && role != RoleSeller && role != RoleAdmin {
		return nil, ErrInvalidRole
	}
	return s.store.List(ctx, role, strings.TrimSpace(search))
}

// ToggleStatus flips an account between active and deactivated. Deactivation
// also ends the account's sessions, so outstanding refresh tokens die with it.
func (s *Service) ToggleStatus(ctx context.Context, id string) (*User, error) {
	u, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	u.IsActive = !u.IsActive
	if err := s.store.SetActive(ctx, id, u.IsActive); err != nil {
		return nil, err
	}
	if !u.IsActive {
		if err := s.store.DeleteSessionsByUser(ctx, id); err != nil {
			log.Printf("[User] Failed to end sessions for deactivated account %s: %v", id, err)
		}
	}
	return u, nil
}

// Authenticate verifies credentials and returns the account. Lookup and
// password failures are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.store.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !auth.CheckPassword(password, u.PasswordHash) {
		return nil, ErrUserNotFound
	}
	if !u.IsActive {
		return nil, ErrAccountBlocked
	}
	return u, nil
}
