package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"unicode/utf8"

	"github.com/tasknest/api/internal/logging"
	"github.com/tasknest/api/internal/user"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrFullNameTooLong    = errors.New("full name must be at most 200 characters")
)

const (
	minPasswordLen = 8
	maxEmailLen    = 254
	maxFullNameLen = 200
)

// UserStore defines the user persistence operations the auth service needs
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string, fullName *string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// AuthResult carries a freshly issued token together with its owner
type AuthResult struct {
	Token string
	User  *user.User
}

// Service handles authentication business logic
type Service struct {
	userRepo UserStore
	tokens   *JWTService
	logger   *logging.Logger
}

func NewService(userRepo UserStore, tokens *JWTService, logger *logging.Logger) *Service {
	return &Service{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger,
	}
}

// Register creates a new user account and issues an access token for it.
// The returned token's subject is the created user's id.
func (s *Service) Register(ctx context.Context, email, password string, fullName *string) (*AuthResult, error) {
	if email == "" {
		return nil, ErrEmailRequired
	}
	if utf8.RuneCountInString(email) > maxEmailLen {
		return nil, ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmailFormat
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}
	if len(password) < minPasswordLen {
		return nil, ErrPasswordTooShort
	}
	if fullName != nil && utf8.RuneCountInString(*fullName) > maxFullNameLen {
		return nil, ErrFullNameTooLong
	}

	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.userRepo.Create(ctx, email, passwordHash, fullName)
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.CreateToken(newUser.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &AuthResult{Token: token, User: newUser}, nil
}

// Login authenticates a user and issues an access token.
// Unknown email and wrong password fail identically; an inactive account is
// reported only after the credentials check out.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	existingUser, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !VerifyPassword(existingUser.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	if !existingUser.IsActive {
		return nil, ErrAccountInactive
	}

	token, err := s.tokens.CreateToken(existingUser.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	return &AuthResult{Token: token, User: existingUser}, nil
}

// CurrentUser loads the user behind an authenticated id. Returns
// user.ErrNotFound if the account was deleted after the token was issued.
func (s *Service) CurrentUser(ctx context.Context, userID int64) (*user.User, error) {
	existingUser, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return existingUser, nil
}
