package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Varun5711/authlocal/internal/auth"
	"github.com/Varun5711/authlocal/internal/events"
	"github.com/Varun5711/authlocal/internal/logger"
	"github.com/Varun5711/authlocal/internal/metrics"
	usermodel "github.com/Varun5711/authlocal/internal/models/user"
	"github.com/Varun5711/authlocal/internal/storage"
	"github.com/Varun5711/authlocal/internal/validation"
)

const (
	defaultLookupTimeout  = 5 * time.Second
	defaultPublishTimeout = 2 * time.Second
)

var errUserNotFound = errors.New("user not found")

// PasswordVerifier compares a candidate password with a stored hash.
type PasswordVerifier interface {
	Verify(hashedPassword, password string) error
}

// TokenIssuer signs identity tokens.
type TokenIssuer interface {
	GenerateToken(email, name string) (string, time.Time, error)
}

// AttemptPublisher records login attempts outside the process.
type AttemptPublisher interface {
	Publish(ctx context.Context, event *events.AttemptEvent) error
}

var _ AttemptPublisher = (*events.AttemptProducer)(nil)

type AuthService struct {
	users         storage.UserStore
	verifier      PasswordVerifier
	issuer        TokenIssuer
	metrics       *metrics.Metrics
	attempts      AttemptPublisher
	log           *logger.Logger
	lookupTimeout time.Duration
}

type Option func(*AuthService)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *AuthService) { s.metrics = m }
}

// WithAttemptPublisher publishes every finished attempt. Publishing failures
// are logged and never change the outcome.
func WithAttemptPublisher(p AttemptPublisher) Option {
	return func(s *AuthService) { s.attempts = p }
}

func WithLogger(l *logger.Logger) Option {
	return func(s *AuthService) { s.log = l }
}

func WithLookupTimeout(d time.Duration) Option {
	return func(s *AuthService) { s.lookupTimeout = d }
}

func NewAuthService(users storage.UserStore, verifier PasswordVerifier, issuer TokenIssuer, opts ...Option) *AuthService {
	s := &AuthService{
		users:         users,
		verifier:      verifier,
		issuer:        issuer,
		log:           logger.New("auth-local"),
		lookupTimeout: defaultLookupTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login runs one authentication attempt to completion and returns its
// outcome. It never returns a nil Outcome. The attempt is detached from ctx
// cancellation so a disconnecting caller does not abort it midway.
func (s *AuthService) Login(ctx context.Context, req usermodel.LoginRequest) (outcome Outcome) {
	log := logger.FromContext(ctx, s.log)
	ctx = context.WithoutCancel(ctx)

	defer func() {
		if r := recover(); r != nil {
			outcome = ServerError{Cause: fmt.Errorf("panic during login: %v", r)}
		}
		s.report(ctx, log, req.Email, outcome)
	}()

	if fieldErrors := validation.ValidateCredentials(req.Email, req.Password); len(fieldErrors) > 0 {
		return ValidationFailed{Errors: fieldErrors}
	}

	user, err := s.lookup(ctx, req.Email)
	if err != nil {
		return ServerError{Cause: err}
	}

	if err := s.checkPassword(user, req.Password); err != nil {
		if errors.Is(err, errUserNotFound) {
			log.Warn("User not found by email: %q!", req.Email)
		} else if errors.Is(err, auth.ErrMalformedHash) {
			log.Error("Stored password hash unreadable for %q: %v", req.Email, err)
		} else {
			log.Warn("User password incorrect: %q!", req.Email)
		}
		return InvalidCredentials{AttemptedEmail: req.Email, Reason: err}
	}

	token, expiresAt, err := s.issuer.GenerateToken(user.Email, user.Name)
	if err != nil {
		return ServerError{Cause: fmt.Errorf("failed to issue token: %w", err)}
	}

	return Success{User: user, Token: token, ExpiresAt: expiresAt}
}

func (s *AuthService) lookup(ctx context.Context, email string) (*usermodel.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	return user, nil
}

// checkPassword treats an absent user as a failed check without invoking the
// verifier.
func (s *AuthService) checkPassword(user *usermodel.User, password string) error {
	if user == nil {
		return errUserNotFound
	}

	start := time.Now()
	err := s.verifier.Verify(user.PasswordHash, password)
	if s.metrics != nil {
		s.metrics.ObservePasswordCheck(time.Since(start))
	}
	return err
}

func (s *AuthService) report(ctx context.Context, log *logger.Logger, email string, outcome Outcome) {
	var label string

	switch o := outcome.(type) {
	case Success:
		label = metrics.OutcomeSuccess
		log.Info("Authenticated %q", o.User.Email)
	case ValidationFailed:
		label = metrics.OutcomeValidationFailed
		log.Debug("Rejected malformed login request (%d field errors)", len(o.Errors))
	case InvalidCredentials:
		label = metrics.OutcomeInvalidCredentials
		log.Warn("Authentication failure for %q", o.AttemptedEmail)
	case ServerError:
		label = metrics.OutcomeServerError
		log.Error("Unexpected error: %v", o.Cause)
	default:
		panic(fmt.Sprintf("unhandled outcome %T", outcome))
	}

	if s.metrics != nil {
		s.metrics.RecordAttempt(label)
	}

	if s.attempts != nil {
		ctx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
		defer cancel()

		event := &events.AttemptEvent{Email: email, Outcome: label, Timestamp: time.Now().UnixMilli()}
		if err := s.attempts.Publish(ctx, event); err != nil {
			log.Warn("Failed to publish login attempt: %v", err)
		}
	}
}
