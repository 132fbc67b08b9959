package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayeshabutt275/MAD-Fall-25/pkg/metrics"
	"github.com/ayeshabutt275/MAD-Fall-25/pkg/storage"
)

// UserRepository persists accounts. InsertUser reports storage.ErrDuplicate for a taken email and
// FindUserByEmail reports storage.ErrNotFound.
type UserRepository interface {
	InsertUser(ctx context.Context, u User) (User, error)
	FindUserByEmail(ctx context.Context, email string) (User, error)
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Service signs users up and in.
type Service struct {
	users  UserRepository
	hasher Hasher
	tokens *Tokens
	logger *logrus.Logger

	decoyOnce sync.Once
	decoy     string
}

// NewService wires the account store and the credential helpers.
func NewService(users UserRepository, hasher Hasher, tokens *Tokens, opts ...Option) *Service {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	svc := &Service{users: users, hasher: hasher, tokens: tokens, logger: quiet}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Tokens exposes the issuer so transports can verify bearer tokens.
func (s *Service) Tokens() *Tokens {
	return s.tokens
}

// Signup validates the form, stores the user with a hashed password and opens a session.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (Session, error) {
	name := strings.TrimSpace(req.Name)
	email := normalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		metrics.RecordAuthAttempt("signup", "invalid")
		return Session{}, newValidationError("Please provide name, email, and password")
	}
	if len(req.Password) < MinPasswordLength {
		metrics.RecordAuthAttempt("signup", "invalid")
		return Session{}, newValidationError(fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}

	_, err := s.users.FindUserByEmail(ctx, email)
	switch {
	case err == nil:
		metrics.RecordAuthAttempt("signup", "duplicate")
		return Session{}, ErrDuplicateEmail
	case !errors.Is(err, storage.ErrNotFound):
		metrics.RecordAuthAttempt("signup", "error")
		return Session{}, fmt.Errorf("look up %s: %w", email, err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		metrics.RecordAuthAttempt("signup", "error")
		return Session{}, err
	}
	user, err := s.users.InsertUser(ctx, User{
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	})
	if errors.Is(err, storage.ErrDuplicate) {
		metrics.RecordAuthAttempt("signup", "duplicate")
		return Session{}, ErrDuplicateEmail
	}
	if err != nil {
		metrics.RecordAuthAttempt("signup", "error")
		return Session{}, fmt.Errorf("store user: %w", err)
	}

	session, err := s.open(user)
	if err != nil {
		metrics.RecordAuthAttempt("signup", "error")
		return Session{}, err
	}
	metrics.RecordAuthAttempt("signup", "success")
	s.logger.WithField("user_id", user.ID).Info("user signed up")
	return session, nil
}

// Login checks the password. Unknown emails and wrong passwords produce the same error, and an
// unknown email still costs one hash comparison.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		metrics.RecordAuthAttempt("login", "invalid")
		return Session{}, newValidationError("Please provide email and password")
	}

	user, err := s.users.FindUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		_ = s.hasher.Compare(s.decoyHash(), password)
		metrics.RecordAuthAttempt("login", "invalid")
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		metrics.RecordAuthAttempt("login", "error")
		return Session{}, fmt.Errorf("look up %s: %w", email, err)
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		metrics.RecordAuthAttempt("login", "invalid")
		s.logger.WithField("user_id", user.ID).Warn("login rejected")
		return Session{}, ErrInvalidCredentials
	}

	session, err := s.open(user)
	if err != nil {
		metrics.RecordAuthAttempt("login", "error")
		return Session{}, err
	}
	metrics.RecordAuthAttempt("login", "success")
	s.logger.WithField("user_id", user.ID).Info("user logged in")
	return session, nil
}

func (s *Service) open(user User) (Session, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, User: user.Public()}, nil
}

func (s *Service) decoyHash() string {
	s.decoyOnce.Do(func() {
		hash, err := s.hasher.Hash("decoy-password-for-unknown-accounts")
		if err == nil {
			s.decoy = hash
		}
	})
	return s.decoy
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
