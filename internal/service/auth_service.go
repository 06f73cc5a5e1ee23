package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/user-registry/internal/auth"
	"github.com/spec-kit/user-registry/internal/config"
	"github.com/spec-kit/user-registry/internal/domain"
	"github.com/spec-kit/user-registry/internal/events"
	"github.com/spec-kit/user-registry/internal/observability"
	"github.com/spec-kit/user-registry/internal/repository"
)

// PasswordHasher is the one-way credential hasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hashed, plain string) error
}

// TokenIssuer signs access tokens for authenticated users.
type TokenIssuer interface {
	GenerateToken(userID, email string) (string, time.Time, error)
}

// AuthService coordinates registration, sign-in and user lookups.
type AuthService struct {
	users        repository.UserRepository
	hasher       PasswordHasher
	tokens       TokenIssuer
	dispatcher   events.Dispatcher
	metrics      *observability.Metrics
	logger       *zap.Logger
	storeTimeout time.Duration
	now          func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service. Hasher and
// Tokens default to bcrypt and JWT built from the config.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	Hasher     PasswordHasher
	Tokens     TokenIssuer
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// SignInResult is returned by a successful SignIn.
type SignInResult struct {
	User      domain.PublicUser
	Token     string
	ExpiresAt time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	s := &AuthService{
		users:        deps.UserRepo,
		hasher:       deps.Hasher,
		tokens:       deps.Tokens,
		dispatcher:   deps.Dispatcher,
		metrics:      deps.Metrics,
		logger:       deps.Logger,
		storeTimeout: cfg.Store.Timeout(),
		now:          time.Now,
	}
	if s.hasher == nil {
		s.hasher = auth.NewBcryptHasher(cfg.Auth.BcryptCost)
	}
	if s.tokens == nil {
		s.tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Register creates a new account. Lookup, hashing and create run strictly in
// that order; the store's unique constraint decides races the lookup misses.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (*domain.PublicUser, error) {
	name = strings.TrimSpace(name)
	if fields := ValidateRegistration(name, email, password); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	if _, err := s.lookupByEmail(ctx, email); err == nil {
		return nil, &ConflictError{Message: msgEmailTaken}
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, s.storeFailure("lookup user", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	err = s.withStoreTimeout(ctx, func(ctx context.Context) error {
		return s.users.Create(ctx, user)
	})
	if errors.Is(err, repository.ErrDuplicateEmail) {
		s.logger.Info("registration lost uniqueness race", zap.String("email", email))
		return nil, &ConflictError{Message: msgEmailTaken}
	}
	if err != nil {
		return nil, s.storeFailure("create user", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	s.metrics.IncUsersRegistered()
	s.publish(ctx, events.EventUserRegistered, user.ID, events.UserRegisteredPayload{
		Name:  user.Name,
		Email: user.Email,
	})

	pub := user.Public()
	return &pub, nil
}

// SignIn authenticates a user and issues an access token. Unknown email and
// wrong password fail identically.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	if fields := ValidateSignIn(email, password); fields != nil {
		return nil, &ValidationError{Fields: fields}
	}

	user, err := s.lookupByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &UnauthorizedError{Message: msgInvalidCredentials}
	}
	if err != nil {
		return nil, s.storeFailure("lookup user", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, &UnauthorizedError{Message: msgInvalidCredentials}
	}

	token, exp, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info("user signed in", zap.String("user_id", user.ID))
	s.publish(ctx, events.EventUserSignedIn, user.ID, events.UserSignedInPayload{
		Email:     user.Email,
		ExpiresAt: exp,
	})

	return &SignInResult{User: user.Public(), Token: token, ExpiresAt: exp}, nil
}

// Me returns the public view of the user behind a verified token.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.PublicUser, error) {
	var user *domain.User
	err := s.withStoreTimeout(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.users.GetByID(ctx, userID)
		return err
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Resource: "user"}
	}
	if err != nil {
		return nil, s.storeFailure("load user", err)
	}
	pub := user.Public()
	return &pub, nil
}

// ListUsers returns every user's public projection in creation order.
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.PublicUser, error) {
	var users []domain.User
	err := s.withStoreTimeout(ctx, func(ctx context.Context) error {
		var err error
		users, err = s.users.List(ctx)
		return err
	})
	if err != nil {
		return nil, s.storeFailure("list users", err)
	}

	out := make([]domain.PublicUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out, nil
}

func (s *AuthService) lookupByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user *domain.User
	err := s.withStoreTimeout(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.users.GetByEmail(ctx, email)
		return err
	})
	return user, err
}

func (s *AuthService) withStoreTimeout(ctx context.Context, fn func(context.Context) error) error {
	if s.storeTimeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()
	return fn(ctx)
}

func (s *AuthService) storeFailure(op string, err error) error {
	s.logger.Warn("store operation failed", zap.String("op", op), zap.Error(err))
	return &StoreUnavailableError{Op: op, Err: err}
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, userID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: s.now().UTC(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}
