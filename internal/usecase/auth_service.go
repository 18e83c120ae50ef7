package usecase

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/kickpool/kickpool-go/internal/apperror"
	"github.com/kickpool/kickpool-go/internal/platform/logging"
	"github.com/kickpool/kickpool-go/internal/session"
	"github.com/kickpool/kickpool-go/internal/store"
)

// AuthService is the public auth surface: it validates input, drives
// the session manager, and raises the user-facing notifications.
type AuthService struct {
	sessions *session.Manager
	store    *store.Store
	notifier *store.Notifier
	validate *validator.Validate
	logger   *logging.Logger
}

func NewAuthService(sessions *session.Manager, st *store.Store, notifier *store.Notifier, validate *validator.Validate, logger *logging.Logger) *AuthService {
	if logger == nil {
		logger = logging.Default()
	}
	return &AuthService{
		sessions: sessions,
		store:    st,
		notifier: notifier,
		validate: validate,
		logger:   logger,
	}
}

// CheckSession is the silent startup check; it raises no notification
// either way because the user did not ask for anything yet.
func (s *AuthService) CheckSession(ctx context.Context) error {
	ctx, span := startSpan(ctx, "auth.CheckSession")
	defer span.End()

	if err := s.sessions.CheckSession(ctx); err != nil {
		return fmt.Errorf("check session: %w", err)
	}
	return nil
}

func (s *AuthService) Login(ctx context.Context, creds session.Credentials) error {
	ctx, span := startSpan(ctx, "auth.Login")
	defer span.End()

	if err := validateInput(s.validate, creds); err != nil {
		s.store.Dispatch(store.SetAuthError{Message: apperror.UserMessage(err)})
		s.notifier.Error(apperror.UserMessage(err))
		return err
	}

	if err := s.sessions.Login(ctx, creds); err != nil {
		s.notifier.Error(apperror.UserMessage(err))
		return fmt.Errorf("login: %w", err)
	}

	username := ""
	if u := s.store.State().Auth.User; u != nil {
		username = u.Username
	}
	s.notifier.Success(welcomeMessage(username))
	return nil
}

func (s *AuthService) Register(ctx context.Context, input session.Registration) error {
	ctx, span := startSpan(ctx, "auth.Register")
	defer span.End()

	if err := validateInput(s.validate, input); err != nil {
		s.store.Dispatch(store.SetAuthError{Message: apperror.UserMessage(err)})
		s.notifier.Error(apperror.UserMessage(err))
		return err
	}

	if err := s.sessions.Register(ctx, input); err != nil {
		s.notifier.Error(apperror.UserMessage(err))
		return fmt.Errorf("register: %w", err)
	}

	s.notifier.Success("Account created. Welcome to KickPool!")
	return nil
}

func (s *AuthService) Logout(ctx context.Context) {
	ctx, span := startSpan(ctx, "auth.Logout")
	defer span.End()

	s.sessions.Logout(ctx)
	s.notifier.Info("You have been logged out.")
}

func welcomeMessage(username string) string {
	if username == "" {
		return "Welcome back!"
	}
	return fmt.Sprintf("Welcome back, %s!", username)
}
