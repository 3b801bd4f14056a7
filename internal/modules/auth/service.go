package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/wealthdesk/wealthdesk/internal/domain"
)

const minPasswordLength = 8

// Service handles registration, login and token issuance
type Service struct {
	users  *UserRepository
	tokens *TokenManager
	log    zerolog.Logger
}

// NewService creates a new auth service
func NewService(users *UserRepository, tokens *TokenManager, log zerolog.Logger) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		log:    log.With().Str("service", "auth").Logger(),
	}
}

// Session is the result of a successful register or login
type Session struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// Register creates a new user with a bcrypt-hashed password and logs them in
func (s *Service) Register(ctx context.Context, email, password, firstName, lastName string) (*Session, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email address", domain.ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
	}

	if _, err := s.users.GetByEmail(email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    firstName,
		LastName:     lastName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}

	s.log.Info().Int64("user_id", user.ID).Msg("User registered")
	return s.startSession(user)
}

// Login verifies credentials and issues a token.
// Unknown email and wrong password return the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	s.log.Info().Int64("user_id", user.ID).Msg("User logged in")
	return s.startSession(user)
}

// GetUser returns the user's profile
func (s *Service) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.GetByID(userID)
}

// ValidateToken verifies a token string and returns its claims
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	return s.tokens.Validate(tokenString)
}

func (s *Service) startSession(user *domain.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Token: token}, nil
}
