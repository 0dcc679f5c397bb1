// Package services contains server-side business logic shared by the HTTP and
// gRPC transports.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/thoughtboard/internal/common"
	"github.com/dmitrijs2005/thoughtboard/internal/logging"
	"github.com/dmitrijs2005/thoughtboard/internal/server/auth"
	"github.com/dmitrijs2005/thoughtboard/internal/server/models"
	"github.com/dmitrijs2005/thoughtboard/internal/server/repositories/repomanager"
)

// TokenTypeBearer is the only token type issued.
const TokenTypeBearer = common.BearerScheme

// Login outcomes reported to a LoginRecorder.
const (
	LoginSuccess     = "success"
	LoginInvalid     = "invalid_credentials"
	LoginUnavailable = "unavailable"
	LoginThrottled   = "throttled"
)

// TokenPair is the result of a successful login.
type TokenPair struct {
	AccessToken string
	TokenType   string
}

// LoginRecorder counts login outcomes.
type LoginRecorder interface {
	RecordLogin(result string)
}

type nopRecorder struct{}

func (nopRecorder) RecordLogin(string) {}

// UserService provides account operations:
//   - Register: create users
//   - Login: verify credentials and mint access tokens
//   - Authenticate: resolve a bearer token to its user
type UserService struct {
	db            *sql.DB
	repomanager   repomanager.RepositoryManager
	authenticator *auth.Authenticator
	adminUsername string
	logger        logging.Logger
	recorder      LoginRecorder
}

// UserServiceOption configures a UserService.
type UserServiceOption func(*UserService)

// WithAdminUsername names the existing account EnsureAdmin promotes.
func WithAdminUsername(name string) UserServiceOption {
	return func(s *UserService) { s.adminUsername = name }
}

// WithLogger sets the logger used for best-effort failures.
func WithLogger(l logging.Logger) UserServiceOption {
	return func(s *UserService) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithLoginRecorder sets the sink for login outcome metrics.
func WithLoginRecorder(r LoginRecorder) UserServiceOption {
	return func(s *UserService) {
		if r != nil {
			s.recorder = r
		}
	}
}

// NewUserService constructs a UserService.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, a *auth.Authenticator, opts ...UserServiceOption) *UserService {
	s := &UserService{
		db:            db,
		repomanager:   m,
		authenticator: a,
		logger:        logging.NopLogger{},
		recorder:      nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register validates the input, hashes the password and stores the user.
// A taken username yields common.ErrAlreadyExists.
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, error) {
	if err := ValidateRegistration(username, password); err != nil {
		return nil, err
	}

	hash, err := s.authenticator.Hasher().Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:       username,
		HashedPassword: hash,
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// EnsureAdmin promotes the configured admin account. Registration never grants
// admin, so the account must already exist; a missing one is logged and
// skipped.
func (s *UserService) EnsureAdmin(ctx context.Context) error {
	if s.adminUsername == "" {
		return nil
	}
	err := s.repomanager.Users(s.db).SetAdmin(ctx, s.adminUsername)
	if errors.Is(err, common.ErrorNotFound) {
		s.logger.Warn(ctx, "admin account not registered", "username", s.adminUsername)
		return nil
	}
	if err != nil {
		return fmt.Errorf("promote admin: %w", err)
	}
	s.logger.Info(ctx, "admin account promoted", "username", s.adminUsername)
	return nil
}

// Login verifies the credentials and returns a bearer token. Unknown users and
// wrong passwords both yield common.ErrInvalidCredentials; storage failures
// yield common.ErrUnavailable.
func (s *UserService) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	repo := s.repomanager.Users(s.db)

	token, user, err := s.authenticator.Login(ctx, username, password, repo)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidCredentials):
			s.recorder.RecordLogin(LoginInvalid)
		case errors.Is(err, common.ErrUnavailable):
			s.recorder.RecordLogin(LoginUnavailable)
			s.logger.Warn(ctx, "login lookup failed", "error", err)
		default:
			s.logger.Error(ctx, "login failed", "error", err)
		}
		return nil, err
	}

	s.recorder.RecordLogin(LoginSuccess)
	s.upgradeHash(ctx, user, password)

	return &TokenPair{AccessToken: token, TokenType: TokenTypeBearer}, nil
}

// upgradeHash re-hashes a legacy or weaker stored hash after a successful
// login. Failures are logged and otherwise ignored.
func (s *UserService) upgradeHash(ctx context.Context, user *models.User, password string) {
	hasher := s.authenticator.Hasher()
	if !hasher.NeedsRehash(user.HashedPassword) {
		return
	}

	hash, err := hasher.Hash(password)
	if err == nil {
		err = s.repomanager.Users(s.db).UpdatePassword(ctx, user.ID, hash)
	}
	if err != nil {
		s.logger.Warn(ctx, "password rehash failed", "user_id", user.ID, "error", err)
		return
	}
	s.logger.Info(ctx, "password hash upgraded", "user_id", user.ID)
}

// Authenticate verifies token and loads its subject. A token for a user that
// no longer exists yields common.ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	username, err := s.authenticator.Issuer().Verify(token)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).FindUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %w", common.ErrUnavailable, err)
	}
	return user, nil
}
