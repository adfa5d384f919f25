package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/littlstar/lstar/internal/domain"
)

// Service runs sign-in attempts off the caller's goroutine and
// publishes one LoginFinished per attempt.
type Service struct {
	session *Session
	client  domain.AuthClient
	events  domain.Publisher
	ctx     context.Context
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewService creates a new session service. ctx bounds every attempt.
func NewService(ctx context.Context, s *Session, client domain.AuthClient, events domain.Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		session: s,
		client:  client,
		events:  events,
		ctx:     ctx,
		logger:  logger,
	}
}

// Session returns the underlying session state
func (s *Service) Session() *Session {
	return s.session
}

// Login signs in with a username or email and password
func (s *Service) Login(login, password string) string {
	login = strings.TrimSpace(login)
	return s.start(domain.AttemptLogin, func(ctx context.Context) (*domain.AuthResult, error) {
		if login == "" || password == "" {
			return nil, domain.ValidationError("login", errors.New("username and password are required"))
		}
		return s.client.Login(ctx, login, password)
	})
}

// Register creates an account and signs in with it
func (s *Service) Register(reg domain.Registration) string {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)
	return s.start(domain.AttemptRegister, func(ctx context.Context) (*domain.AuthResult, error) {
		if err := validateRegistration(reg); err != nil {
			return nil, err
		}
		return s.client.Register(ctx, reg)
	})
}

// LoginExternal adopts a token obtained elsewhere, e.g. from an OAuth flow
func (s *Service) LoginExternal(token string) string {
	token = strings.TrimSpace(token)
	return s.start(domain.AttemptExternal, func(ctx context.Context) (*domain.AuthResult, error) {
		if token == "" {
			return nil, domain.ValidationError("login external", errors.New("token is required"))
		}
		user, err := s.client.Me(ctx, token)
		if err != nil {
			return nil, err
		}
		return &domain.AuthResult{Token: token, User: user}, nil
	})
}

// Logout clears the session immediately
func (s *Service) Logout() {
	s.session.Logout()
	s.logger.Info("logged out")
	s.events.Publish(domain.LoggedOut{})
}

// Close waits for in-flight attempts to publish their outcome. Cancel the
// service context first to cut them short.
func (s *Service) Close() {
	s.wg.Wait()
}

// Restore re-seeds a session persisted by a previous run
func (s *Service) Restore(token string, user *domain.User) {
	if token == "" {
		return
	}
	s.session.Apply(s.session.Begin(), user, token)
}

func (s *Service) start(attempt domain.AuthAttempt, run func(ctx context.Context) (*domain.AuthResult, error)) string {
	id := uuid.NewString()
	seq := s.session.Begin()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		res, err := run(s.ctx)
		if err == nil && (res == nil || res.User == nil) {
			err = domain.NetworkError(attempt.String(), domain.ErrMalformedResponse)
		}
		if err != nil {
			s.logger.Error("failed to sign in", "attempt", attempt.String(), "requestID", id, "error", err)
			s.events.Publish(domain.LoginFinished{RequestID: id, Attempt: attempt, Err: err})
			return
		}

		if s.session.Apply(seq, res.User, res.Token) {
			s.logger.Info("signed in", "attempt", attempt.String(), "user", res.User.Slug)
		} else {
			s.logger.Debug("superseded sign-in result not applied", "attempt", attempt.String(), "requestID", id)
		}
		s.events.Publish(domain.LoginFinished{RequestID: id, Attempt: attempt, User: res.User.Clone()})
	}()

	return id
}

func validateRegistration(reg domain.Registration) error {
	switch {
	case reg.Username == "":
		return domain.ValidationError("register", errors.New("username is required"))
	case !strings.Contains(reg.Email, "@"):
		return domain.ValidationError("register", errors.New("a valid email is required"))
	case reg.Password == "":
		return domain.ValidationError("register", errors.New("password is required"))
	case reg.Password != reg.PasswordConfirmation:
		return domain.ValidationError("register", errors.New("password and confirmation do not match"))
	}
	return nil
}
