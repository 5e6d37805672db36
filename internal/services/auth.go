package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rechargehub/apiserver/internal/auth"
	"github.com/rechargehub/apiserver/internal/store"
	"github.com/rechargehub/apiserver/types"
)

// Auth service errors surfaced to handlers.
var (
	// ErrAccountExists is returned when a registration reuses an existing
	// username, email, or phone.
	ErrAccountExists = errors.New("user with same username/email/phone already exists")

	// ErrMissingIdentifier is returned when a login supplies no username,
	// email, or phone.
	ErrMissingIdentifier = errors.New("provide username, email, or phone to login")

	// ErrInvalidCredentials covers both an unknown identifier and a wrong
	// password. The two causes are deliberately indistinguishable to the
	// caller so accounts cannot be enumerated.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserRepository defines persistence operations for accounts.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	FindByIdentity(ctx context.Context, username, email, phone string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// AuthService orchestrates registration, login, and profile lookup.
type AuthService struct {
	repo        UserRepository
	hasher      *auth.PasswordHasher
	tokens      *auth.TokenService
	defaultRole string
}

func NewAuthService(repo UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenService, defaultRole string) *AuthService {
	return &AuthService{
		repo:        repo,
		hasher:      hasher,
		tokens:      tokens,
		defaultRole: defaultRole,
	}
}

// RegisterInput is the raw registration payload.
type RegisterInput struct {
	Username string
	Email    string
	Phone    string
	Password string
	Role     string
}

// Register validates the input, enforces identity uniqueness, hashes the
// password, and persists the account. The database's unique constraints make
// the final insert atomic, so a concurrent duplicate still fails with
// ErrAccountExists even when the pre-check passes.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) error {
	if err := auth.ValidateRegistration(auth.RegistrationInput{
		Username: in.Username,
		Email:    in.Email,
		Phone:    in.Phone,
		Password: in.Password,
	}); err != nil {
		return err
	}

	email := strings.ToLower(in.Email)

	_, err := s.repo.FindByIdentity(ctx, in.Username, email, in.Phone)
	if err == nil {
		return ErrAccountExists
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return err
	}

	role := strings.TrimSpace(in.Role)
	if role == "" {
		role = s.defaultRole
	}

	if _, err := s.repo.Create(ctx, types.User{
		Username:     in.Username,
		Email:        email,
		Phone:        in.Phone,
		Role:         role,
		PasswordHash: hash,
	}); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return ErrAccountExists
		}
		return err
	}
	return nil
}

// LoginInput carries one identifier plus the password. When several
// identifiers are supplied, username wins over email, and email over phone.
type LoginInput struct {
	Username string
	Email    string
	Phone    string
	Password string
}

// Login verifies credentials and issues a bearer token for the account.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (string, types.User, error) {
	var username, email, phone string
	switch {
	case in.Username != "":
		username = in.Username
	case in.Email != "":
		email = strings.ToLower(in.Email)
	case in.Phone != "":
		phone = in.Phone
	default:
		return "", types.User{}, ErrMissingIdentifier
	}

	user, err := s.repo.FindByIdentity(ctx, username, email, phone)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", types.User{}, ErrInvalidCredentials
		}
		return "", types.User{}, err
	}

	if !s.hasher.Verify(in.Password, user.PasswordHash) {
		return "", types.User{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return "", types.User{}, err
	}
	return token, user, nil
}

// Profile is the redacted account view returned to authenticated callers.
type Profile struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// GetProfile fetches the account behind a verified session. It returns
// store.ErrNotFound when the account no longer exists.
func (s *AuthService) GetProfile(ctx context.Context, userID int) (Profile, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	return Profile{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
	}, nil
}
