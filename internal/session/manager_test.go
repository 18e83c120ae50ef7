package session

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	crerr "github.com/cockroachdb/errors"

	"github.com/kickpool/kickpool-go/internal/apperror"
	"github.com/kickpool/kickpool-go/internal/domain/user"
	"github.com/kickpool/kickpool-go/internal/platform/logging"
	"github.com/kickpool/kickpool-go/internal/store"
)

type stubBackend struct {
	getErr    error
	getUser   *user.Summary
	getCalls  int
	postErr   error
	postToken string
	postUser  *user.Summary
	postCalls int
}

func (b *stubBackend) Get(_ context.Context, path string, _ url.Values, out any) error {
	b.getCalls++
	if b.getErr != nil {
		return b.getErr
	}
	if p, ok := out.(*statusPayload); ok {
		p.Authenticated = true
		p.User = b.getUser
	}
	return nil
}

func (b *stubBackend) Post(_ context.Context, path string, _ any, out any) error {
	b.postCalls++
	if b.postErr != nil {
		return b.postErr
	}
	if p, ok := out.(*authPayload); ok {
		p.Token = b.postToken
		p.User = b.postUser
	}
	return nil
}

func newManager(backend Backend, stored string) (*Manager, *store.Store, *MemoryTokenStore) {
	st := store.New(logging.NewNop())
	tokens := NewMemoryTokenStore(stored)
	return NewManager(backend, tokens, st, logging.NewNop()), st, tokens
}

func TestManager_InitialStatus(t *testing.T) {
	t.Parallel()

	m, _, _ := newManager(&stubBackend{}, "")
	if m.Status() != StatusAnonymous {
		t.Fatalf("no stored token should start anonymous, got %s", m.Status())
	}

	m2, _, _ := newManager(&stubBackend{}, "tok")
	if m2.Status() != StatusChecking {
		t.Fatalf("stored token should start checking, got %s", m2.Status())
	}
}

func TestManager_CheckSession_NoToken(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{}
	m, st, _ := newManager(backend, "")

	if err := m.CheckSession(context.Background()); err != nil {
		t.Fatalf("CheckSession: %v", err)
	}
	if m.Status() != StatusAnonymous {
		t.Fatalf("status = %s, want anonymous", m.Status())
	}
	if backend.getCalls != 0 {
		t.Fatal("no token means no verification round-trip")
	}
	if st.State().Auth.IsAuthenticated() {
		t.Fatal("must be unauthenticated")
	}
}

func TestManager_CheckSession_ValidToken(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{getUser: &user.Summary{ID: "u1", Username: "dana"}}
	m, st, _ := newManager(backend, "tok")

	if err := m.CheckSession(context.Background()); err != nil {
		t.Fatalf("CheckSession: %v", err)
	}
	if m.Status() != StatusAuthenticated {
		t.Fatalf("status = %s, want authenticated", m.Status())
	}
	if got := st.State().Auth.User; got == nil || got.ID != "u1" {
		t.Fatalf("auth user = %+v", got)
	}
}

func TestManager_CheckSession_PayloadWithoutUser(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{getUser: nil}
	m, st, _ := newManager(backend, "tok")

	if err := m.CheckSession(context.Background()); err != nil {
		t.Fatalf("CheckSession: %v", err)
	}
	if !st.State().Auth.IsAuthenticated() {
		t.Fatal("a minimal marker user should still count as authenticated")
	}
}

func TestManager_CheckSession_RejectedTokenDiscarded(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{getErr: apperror.FromStatus(http.StatusUnauthorized, "expired", nil)}
	m, st, tokens := newManager(backend, "tok")

	if err := m.CheckSession(context.Background()); err != nil {
		t.Fatalf("a rejected token is not an error condition: %v", err)
	}
	if m.Status() != StatusAnonymous {
		t.Fatalf("status = %s, want anonymous", m.Status())
	}
	if stored, _ := tokens.Load(); stored != "" {
		t.Fatal("rejected token must be discarded")
	}
	if st.State().Auth.IsAuthenticated() {
		t.Fatal("must be unauthenticated after rejection")
	}
}

func TestManager_CheckSession_TransientFailureKeepsToken(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{getErr: apperror.Network(crerr.New("connection refused"))}
	m, _, tokens := newManager(backend, "tok")

	if err := m.CheckSession(context.Background()); err == nil {
		t.Fatal("transient check failure must surface an error")
	}
	if m.Status() != StatusCheckFailed {
		t.Fatalf("status = %s, want check_failed", m.Status())
	}
	if stored, _ := tokens.Load(); stored != "tok" {
		t.Fatal("token must survive a transient check failure")
	}
}

func TestManager_Login_Success(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{postToken: "fresh", postUser: &user.Summary{ID: "u1"}}
	m, st, tokens := newManager(backend, "")

	if err := m.Login(context.Background(), Credentials{Email: "d@example.com", Password: "hunter22222"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if m.Status() != StatusAuthenticated || m.Token() != "fresh" {
		t.Fatalf("status=%s token=%q", m.Status(), m.Token())
	}
	if stored, _ := tokens.Load(); stored != "fresh" {
		t.Fatal("token must be persisted on login")
	}
	if !st.State().Auth.IsAuthenticated() {
		t.Fatal("store must reflect the session")
	}
}

func TestManager_Login_FailureLeavesTokenStorageAlone(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{postErr: apperror.FromStatus(http.StatusUnauthorized, "wrong password", nil)}
	m, st, tokens := newManager(backend, "")

	if err := m.Login(context.Background(), Credentials{Email: "d@example.com", Password: "wrongwrong"}); err == nil {
		t.Fatal("expected login failure")
	}
	if stored, _ := tokens.Load(); stored != "" {
		t.Fatal("failed login must not write a token")
	}
	if st.State().Auth.IsAuthenticated() {
		t.Fatal("must stay unauthenticated")
	}
	if st.State().Auth.Error == "" {
		t.Fatal("auth slice should carry the error message")
	}
}

func TestManager_Logout_EffectiveDespiteRemoteFailure(t *testing.T) {
	t.Parallel()

	backend := &stubBackend{postErr: apperror.Network(crerr.New("offline"))}
	m, st, tokens := newManager(backend, "tok")

	m.Logout(context.Background())

	if m.Status() != StatusAnonymous || m.Token() != "" {
		t.Fatalf("logout must always succeed locally, status=%s", m.Status())
	}
	if stored, _ := tokens.Load(); stored != "" {
		t.Fatal("token must be discarded")
	}
	if st.State().Auth.IsAuthenticated() {
		t.Fatal("store must be cleared")
	}
}

func TestManager_Authenticated_SingleRetryThenForceLogout(t *testing.T) {
	t.Parallel()

	authErr := apperror.FromStatus(http.StatusUnauthorized, "expired", nil)

	t.Run("retry succeeds after reverification", func(t *testing.T) {
		t.Parallel()

		backend := &stubBackend{getUser: &user.Summary{ID: "u1"}}
		m, _, _ := newManager(backend, "tok")

		calls := 0
		err := m.Authenticated(context.Background(), func(context.Context) error {
			calls++
			if calls == 1 {
				return authErr
			}
			return nil
		})
		if err != nil {
			t.Fatalf("expected recovery, got %v", err)
		}
		if calls != 2 {
			t.Fatalf("expected exactly one retry, got %d calls", calls)
		}
	})

	t.Run("second auth failure forces logout", func(t *testing.T) {
		t.Parallel()

		backend := &stubBackend{getUser: &user.Summary{ID: "u1"}}
		m, _, tokens := newManager(backend, "tok")

		calls := 0
		err := m.Authenticated(context.Background(), func(context.Context) error {
			calls++
			return authErr
		})
		if !crerr.Is(err, ErrReauthRequired) {
			t.Fatalf("expected ErrReauthRequired, got %v", err)
		}
		if calls != 2 {
			t.Fatalf("must not loop: got %d calls", calls)
		}
		if stored, _ := tokens.Load(); stored != "" {
			t.Fatal("forced logout must discard the token")
		}
	})

	t.Run("reverification failure forces logout without retry", func(t *testing.T) {
		t.Parallel()

		backend := &stubBackend{getErr: authErr}
		m, _, _ := newManager(backend, "tok")

		calls := 0
		err := m.Authenticated(context.Background(), func(context.Context) error {
			calls++
			return authErr
		})
		if !crerr.Is(err, ErrReauthRequired) {
			t.Fatalf("expected ErrReauthRequired, got %v", err)
		}
		if calls != 1 {
			t.Fatalf("must not retry when reverification fails, got %d calls", calls)
		}
		if m.Status() != StatusAnonymous {
			t.Fatalf("status = %s, want anonymous", m.Status())
		}
	})
}
