package usecase

import (
	"context"
	"net/url"
)

// Backend is the transport surface the services consume. Satisfied by
// *transport.Client; stubbed in tests.
type Backend interface {
	Get(ctx context.Context, path string, query url.Values, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
}

// Reauther is the slice of the session manager the services use to
// run authenticated calls under the single-401-retry policy.
type Reauther interface {
	Authenticated(ctx context.Context, fn func(context.Context) error) error
}

func queryFromParams(params map[string]string) url.Values {
	if len(params) == 0 {
		return nil
	}
	query := make(url.Values, len(params))
	for name, value := range params {
		query.Set(name, value)
	}
	return query
}
