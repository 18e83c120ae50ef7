package usecase

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/kickpool/kickpool-go/internal/coordinator"
	"github.com/kickpool/kickpool-go/internal/platform/logging"
	"github.com/kickpool/kickpool-go/internal/season"
	"github.com/kickpool/kickpool-go/internal/store"
)

type stubCall struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// stubBackend routes requests to per-path handlers and records every
// call for assertion.
type stubBackend struct {
	mu       sync.Mutex
	calls    []stubCall
	handlers map[string]func(call stubCall, out any) error
}

func newStubBackend() *stubBackend {
	return &stubBackend{handlers: make(map[string]func(stubCall, any) error)}
}

func (b *stubBackend) handle(method, path string, fn func(stubCall, any) error) {
	b.mu.Lock()
	b.handlers[method+" "+path] = fn
	b.mu.Unlock()
}

func (b *stubBackend) dispatch(method, path string, query url.Values, body, out any) error {
	call := stubCall{Method: method, Path: path, Query: query, Body: body}

	b.mu.Lock()
	b.calls = append(b.calls, call)
	fn := b.handlers[method+" "+path]
	b.mu.Unlock()

	if fn == nil {
		return nil
	}
	return fn(call, out)
}

func (b *stubBackend) Get(_ context.Context, path string, query url.Values, out any) error {
	return b.dispatch("GET", path, query, nil, out)
}

func (b *stubBackend) Post(_ context.Context, path string, body, out any) error {
	return b.dispatch("POST", path, nil, body, out)
}

func (b *stubBackend) Put(_ context.Context, path string, body, out any) error {
	return b.dispatch("PUT", path, nil, body, out)
}

func (b *stubBackend) callCount(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, call := range b.calls {
		if call.Method == method && call.Path == path {
			n++
		}
	}
	return n
}

// passAuth runs the call directly, standing in for an authenticated
// session.
type passAuth struct{}

func (passAuth) Authenticated(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type testEnv struct {
	api      *stubBackend
	store    *store.Store
	notifier *store.Notifier
	coord    *coordinator.Coordinator
	seasons  *season.Engine
	validate *validator.Validate
}

func newTestEnv() *testEnv {
	logger := logging.NewNop()
	st := store.New(logger)
	return &testEnv{
		api:      newStubBackend(),
		store:    st,
		notifier: store.NewNotifier(st, nil, logger),
		coord:    coordinator.New(time.Minute, logger),
		seasons: season.NewEngineWithClock(func() time.Time {
			return time.Date(2024, time.October, 1, 12, 0, 0, 0, time.UTC)
		}),
		validate: validator.New(),
	}
}

// fillAuthPayload answers an auth endpoint through the out pointer's
// json tags, the same way the real transport decodes the body. The
// round-trip keeps the stub independent of the payload's Go type.
func fillAuthPayload(out any, token, username string) error {
	raw, err := sonic.Marshal(map[string]any{
		"token": token,
		"user":  map[string]string{"id": "u1", "username": username, "email": username + "@example.com"},
	})
	if err != nil {
		return err
	}
	return sonic.Unmarshal(raw, out)
}

func (e *testEnv) notificationMessages() []string {
	items := e.store.State().Notifications.Items
	messages := make([]string, 0, len(items))
	for _, item := range items {
		messages = append(messages, item.Message)
	}
	return messages
}
