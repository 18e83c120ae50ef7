package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/kickpool/kickpool-go/internal/apperror"
	"github.com/kickpool/kickpool-go/internal/platform/logging"
	"github.com/kickpool/kickpool-go/internal/platform/resilience"
)

const (
	defaultTimeout  = 15 * time.Second
	maxResponseSize = 4 << 20
)

var bearerParamRegex = regexp.MustCompile(`Bearer\s+\S+`)

// Envelope is the backend's uniform response wrapper.
type Envelope struct {
	Status  string              `json:"status"`
	Data    json.RawMessage     `json:"data,omitempty"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

// TokenSource supplies the current bearer token, empty when logged
// out. It is read per attempt so a refreshed token takes effect
// immediately.
type TokenSource func() string

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	TokenSource    TokenSource
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client speaks the backend's REST envelope and normalizes every
// failure into the apperror taxonomy before it reaches the store.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	tokens         TokenSource
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}
	if httpClient.Transport == nil {
		httpClient.Transport = otelhttp.NewTransport(http.DefaultTransport)
	}

	tokens := cfg.TokenSource
	if tokens == nil {
		tokens = func() string { return "" }
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		tokens:         tokens,
		maxRetries:     max(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "backend circuit breaker rejected request", "state", c.breaker.State(), "path", path)
			return apperror.Network(err)
		}
	}

	fullURL := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	var payload []byte
	if body != nil {
		buf := bytebufferpool.Get()
		defer bytebufferpool.Put(buf)

		if err := sonic.ConfigDefault.NewEncoder(buf).Encode(body); err != nil {
			return apperror.Unexpected(crerr.Wrap(err, "encode request body"), "could not encode request")
		}
		payload = buf.Bytes()
	}

	envelope, err := c.execute(ctx, method, fullURL, payload)
	if c.circuitEnabled {
		if err != nil && countsAgainstCircuit(err) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	if err != nil {
		return err
	}

	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(envelope.Data, out); err != nil {
		return apperror.Unexpected(crerr.Wrap(err, "decode response data"), "server returned malformed data")
	}

	return nil
}

func (c *Client) execute(ctx context.Context, method, fullURL string, payload []byte) (Envelope, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		envelope, err := c.attempt(ctx, method, fullURL, payload)
		if err == nil {
			return envelope, nil
		}
		lastErr = err

		if !apperror.Retryable(err) || attempt == c.maxRetries {
			break
		}

		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Envelope{}, apperror.Network(ctx.Err())
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "backend request failed",
		"method", method,
		"url", fullURL,
		"error", crerr.New(redactAuth(lastErr.Error())),
	)
	return Envelope{}, lastErr
}

func (c *Client) attempt(ctx context.Context, method, fullURL string, payload []byte) (Envelope, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return Envelope{}, apperror.Unexpected(crerr.Wrap(err, "build request"), "could not build request")
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Envelope{}, apperror.Network(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return Envelope{}, apperror.Network(crerr.Wrap(err, "read response body"))
	}

	var envelope Envelope
	decodeErr := sonic.Unmarshal(raw, &envelope)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := ""
		var details map[string][]string
		if decodeErr == nil {
			message = envelope.Message
			details = envelope.Details
		}
		return Envelope{}, apperror.FromStatus(resp.StatusCode, message, details)
	}

	if decodeErr != nil {
		return Envelope{}, apperror.Unexpected(crerr.Wrap(decodeErr, "decode envelope"), "server returned a malformed response")
	}

	switch envelope.Status {
	case "success":
		return envelope, nil
	case "error":
		// Some endpoints report failures under a 200.
		return Envelope{}, apperror.Unexpected(crerr.Newf("error envelope under status %d", resp.StatusCode), envelope.Message)
	default:
		return Envelope{}, apperror.Unexpected(crerr.Newf("unknown envelope status %q", envelope.Status), "server returned a malformed response")
	}
}

// Network and server-side failures trip the breaker; client-side
// mistakes (4xx) do not.
func countsAgainstCircuit(err error) bool {
	switch apperror.KindOf(err) {
	case apperror.KindNetwork, apperror.KindServer:
		return true
	default:
		return false
	}
}

func redactAuth(value string) string {
	return bearerParamRegex.ReplaceAllString(value, "Bearer REDACTED")
}
