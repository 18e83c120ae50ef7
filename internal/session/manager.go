package session

import (
	"context"
	"net/url"
	"sync"

	crerr "github.com/cockroachdb/errors"

	"github.com/kickpool/kickpool-go/internal/apperror"
	"github.com/kickpool/kickpool-go/internal/domain/user"
	"github.com/kickpool/kickpool-go/internal/platform/logging"
	"github.com/kickpool/kickpool-go/internal/store"
)

// Status is the session lifecycle state.
type Status string

const (
	StatusAnonymous     Status = "anonymous"
	StatusChecking      Status = "checking"
	StatusAuthenticated Status = "authenticated"

	// StatusCheckFailed means the verification round-trip failed for
	// a reason other than rejection; the token is retained so a later
	// check can succeed. "Couldn't check" is not "not authenticated".
	StatusCheckFailed Status = "check_failed"
)

// ErrReauthRequired signals that the single re-verification attempt
// after a 401 also failed and the user must log in again.
var ErrReauthRequired = crerr.New("re-authentication required")

// Backend is the slice of the transport the session manager needs.
type Backend interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
}

// Manager owns the auth token lifecycle and keeps the store's auth
// slice in step with it.
type Manager struct {
	api    Backend
	tokens TokenStore
	store  *store.Store
	logger *logging.Logger

	mu     sync.Mutex
	status Status
	token  string
}

func NewManager(api Backend, tokens TokenStore, st *store.Store, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Default()
	}

	m := &Manager{
		api:    api,
		tokens: tokens,
		store:  st,
		logger: logger,
		status: StatusAnonymous,
	}

	if token, err := tokens.Load(); err == nil && token != "" {
		m.token = token
		m.status = StatusChecking
	}

	return m
}

// Token supplies the current bearer token for the transport. Empty
// when logged out.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type Registration struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type authPayload struct {
	Token string        `json:"token"`
	User  *user.Summary `json:"user"`
}

type statusPayload struct {
	Authenticated bool          `json:"authenticated"`
	User          *user.Summary `json:"user"`
}

// CheckSession performs the silent startup check. With no stored
// token it settles on anonymous immediately; otherwise it verifies
// the token against the backend. A 401 discards the token; any other
// failure keeps it and reports the error.
func (m *Manager) CheckSession(ctx context.Context) error {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()

	if token == "" {
		m.setStatus(StatusAnonymous)
		m.store.Dispatch(store.SetAuthUser{User: nil})
		return nil
	}

	m.setStatus(StatusChecking)
	m.store.Dispatch(store.SetAuthLoading{Loading: true})

	var payload statusPayload
	err := m.api.Get(ctx, "/auth/status", nil, &payload)
	switch {
	case err == nil:
		identity := payload.User
		if identity == nil {
			// The status endpoint may omit the user record; a later
			// profile fetch reconciles the placeholder.
			identity = &user.Summary{}
		}
		m.setStatus(StatusAuthenticated)
		m.store.Dispatch(store.SetAuthUser{User: identity})
		return nil

	case apperror.IsAuth(err):
		m.logger.InfoContext(ctx, "stored token rejected, discarding")
		m.discardSession()
		return nil

	default:
		m.setStatus(StatusCheckFailed)
		m.store.Dispatch(store.SetAuthError{Message: apperror.UserMessage(err)})
		return err
	}
}

// Login exchanges credentials for a token. On failure nothing in
// token storage changes.
func (m *Manager) Login(ctx context.Context, creds Credentials) error {
	m.store.Dispatch(store.SetAuthLoading{Loading: true})

	var payload authPayload
	if err := m.api.Post(ctx, "/auth/login", creds, &payload); err != nil {
		m.store.Dispatch(store.SetAuthError{Message: apperror.UserMessage(err)})
		return err
	}
	if payload.Token == "" || payload.User == nil {
		err := apperror.Unexpected(crerr.New("login response missing token or user"), "login failed")
		m.store.Dispatch(store.SetAuthError{Message: err.Message})
		return err
	}

	m.adoptSession(ctx, payload.Token, payload.User)
	return nil
}

// Register creates an account and starts a session with the returned
// token.
func (m *Manager) Register(ctx context.Context, input Registration) error {
	m.store.Dispatch(store.SetAuthLoading{Loading: true})

	var payload authPayload
	if err := m.api.Post(ctx, "/auth/register", input, &payload); err != nil {
		m.store.Dispatch(store.SetAuthError{Message: apperror.UserMessage(err)})
		return err
	}
	if payload.Token == "" || payload.User == nil {
		err := apperror.Unexpected(crerr.New("register response missing token or user"), "registration failed")
		m.store.Dispatch(store.SetAuthError{Message: err.Message})
		return err
	}

	m.adoptSession(ctx, payload.Token, payload.User)
	return nil
}

// Logout is unconditionally effective client-side: the remote call is
// best-effort, the local teardown always happens.
func (m *Manager) Logout(ctx context.Context) {
	if err := m.api.Post(ctx, "/auth/logout", nil, nil); err != nil {
		m.logger.WarnContext(ctx, "remote logout failed, clearing local session anyway", "error", err)
	}
	m.discardSession()
}

// ForceLogout tears the session down without a remote call, used when
// re-authentication is required.
func (m *Manager) ForceLogout(ctx context.Context, reason string) {
	m.logger.WarnContext(ctx, "forcing logout", "reason", reason)
	m.discardSession()
}

// Authenticated runs fn with the single-retry policy: one 401 triggers
// exactly one re-verification and one retry; a second auth failure
// forces logout and reports ErrReauthRequired. It never loops.
func (m *Manager) Authenticated(ctx context.Context, fn func(context.Context) error) error {
	err := fn(ctx)
	if err == nil || !apperror.IsAuth(err) {
		return err
	}

	var payload statusPayload
	if verifyErr := m.api.Get(ctx, "/auth/status", nil, &payload); verifyErr != nil {
		m.ForceLogout(ctx, "re-verification failed after 401")
		return crerr.WithSecondaryError(ErrReauthRequired, err)
	}

	if retryErr := fn(ctx); retryErr != nil {
		if apperror.IsAuth(retryErr) {
			m.ForceLogout(ctx, "request kept failing auth after re-verification")
			return crerr.WithSecondaryError(ErrReauthRequired, retryErr)
		}
		return retryErr
	}
	return nil
}

func (m *Manager) adoptSession(ctx context.Context, token string, identity *user.Summary) {
	m.mu.Lock()
	m.token = token
	m.status = StatusAuthenticated
	m.mu.Unlock()

	if err := m.tokens.Save(token); err != nil {
		m.logger.ErrorContext(ctx, "persist token failed, session will not survive restart", "error", err)
	}

	m.store.Dispatch(store.SetAuthUser{User: identity})
}

func (m *Manager) discardSession() {
	m.mu.Lock()
	m.token = ""
	m.status = StatusAnonymous
	m.mu.Unlock()

	if err := m.tokens.Clear(); err != nil {
		m.logger.Warn("clear token failed", "error", err)
	}

	m.store.Dispatch(store.ClearAuth{})
}

func (m *Manager) setStatus(status Status) {
	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}
