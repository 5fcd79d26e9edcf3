package httpclient

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/AmmannChristian/go-authnet/httpstatus"
	"github.com/AmmannChristian/go-authnet/request"
	"github.com/AmmannChristian/go-authnet/session"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RequestIDHeader carries one id for both attempts of a logical request.
const RequestIDHeader = "X-Request-ID"

// TokenSource supplies bearer tokens.
type TokenSource interface {
	ValidAccessToken(ctx context.Context) (string, error)
}

// Authenticator is the session the pipeline draws tokens from and refreshes
// after a 401. *session.Manager implements it.
type Authenticator interface {
	TokenSource
	Authenticate(ctx context.Context, creds session.Credentials) (string, error)
}

// Renewer is implemented by authenticators that can skip a refresh when the
// rejected token has already been replaced. The pipeline prefers it over
// Authenticate.
type Renewer interface {
	Renew(ctx context.Context, creds session.Credentials, stale string) (string, error)
}

// Client sends request.Descriptors through the authenticated pipeline:
// build, attach the bearer token, dispatch, and on a first 401 refresh the
// session and retry exactly once.
type Client struct {
	executor           Executor
	builder            *request.Builder
	auth               Authenticator
	refreshCredentials session.Credentials
	logger             zerolog.Logger
	requestIDs         bool
}

// ClientOption is a functional option for configuring Client.
type ClientOption func(*Client)

// WithAuthenticator sets the session used for bearer tokens and 401 refreshes.
func WithAuthenticator(auth Authenticator) ClientOption {
	return func(c *Client) {
		c.auth = auth
	}
}

// WithRequestBuilder sets the builder that turns descriptors into requests.
func WithRequestBuilder(b *request.Builder) ClientOption {
	return func(c *Client) {
		if b != nil {
			c.builder = b
		}
	}
}

// WithRefreshCredentials sets the credentials used to refresh after a 401.
// Defaults to session.RefreshTokenCredentials.
func WithRefreshCredentials(creds session.Credentials) ClientOption {
	return func(c *Client) {
		if creds != nil {
			c.refreshCredentials = creds
		}
	}
}

// WithClientLogger sets the logger. Defaults to zerolog.Nop().
func WithClientLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRequestIDs toggles the X-Request-ID header. Enabled by default.
func WithRequestIDs(enabled bool) ClientOption {
	return func(c *Client) {
		c.requestIDs = enabled
	}
}

// NewClient creates a Client dispatching through executor.
func NewClient(executor Executor, opts ...ClientOption) *Client {
	if executor == nil {
		executor = NewHTTPExecutor(nil)
	}

	c := &Client{
		executor:           executor,
		builder:            request.NewBuilder(),
		refreshCredentials: session.RefreshTokenCredentials{},
		logger:             zerolog.Nop(),
		requestIDs:         true,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Send performs the logical request described by d.
//
// A 401 on the first attempt triggers one session refresh and one retried
// attempt. A 401 on the retried attempt is returned as an *APIError. Any
// other status outside the success category is returned as an *APIError
// too. Cancellation is checked after every suspension point; once ctx is
// done the call returns an error matching ErrCancelled and no further
// network or refresh work is started.
func (c *Client) Send(ctx context.Context, d request.Descriptor) (*Response, error) {
	var requestID string
	if c.requestIDs {
		requestID = uuid.NewString()
	}

	logger := c.logger.With().
		Str("request_id", requestID).
		Str("method", string(d.Method)).
		Str("endpoint", d.Endpoint).
		Logger()

	retryBudget := 1
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, cancelled(err)
		}

		logger.Debug().Int("attempt", attempt).Msg("httpclient: sending request")

		resp, token, err := c.attempt(ctx, d, requestID)
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, cancelled(err)
		}

		if httpstatus.IsUnauthorized(resp.StatusCode) && retryBudget > 0 {
			retryBudget--
			logger.Info().Int("attempt", attempt).Msg("httpclient: unauthorized, refreshing session and retrying")

			if err := c.refresh(ctx, token); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, cancelled(ctxErr)
				}
				return nil, err
			}
			continue
		}

		if resp.Category() != httpstatus.Success {
			logger.Warn().
				Int("attempt", attempt).
				Int("status", resp.StatusCode).
				Msg("httpclient: request failed")
			return nil, &APIError{
				StatusCode: resp.StatusCode,
				Header:     resp.Header,
				Body:       resp.Body,
			}
		}

		return resp, nil
	}
}

// attempt builds and dispatches one transport request. It returns the
// bearer token it attached, if any.
func (c *Client) attempt(ctx context.Context, d request.Descriptor, requestID string) (*Response, string, error) {
	req, err := c.builder.Build(ctx, d)
	if err != nil {
		return nil, "", err
	}

	var token string
	if d.Auth == request.AuthBearer {
		if c.auth == nil {
			return nil, "", ErrNoSession
		}
		token, err = c.auth.ValidAccessToken(ctx)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, "", cancelled(ctxErr)
			}
			return nil, "", err
		}
		if err := ctx.Err(); err != nil {
			return nil, "", cancelled(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	if requestID != "" {
		req.Header.Set(RequestIDHeader, requestID)
	}

	resp, err := c.executor.Execute(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, "", cancelled(ctxErr)
		}
		return nil, "", fmt.Errorf("%w: %w", ErrTransport, err)
	}

	return resp, token, nil
}

func (c *Client) refresh(ctx context.Context, stale string) error {
	if c.auth == nil {
		return ErrNoSession
	}
	if r, ok := c.auth.(Renewer); ok {
		_, err := r.Renew(ctx, c.refreshCredentials, stale)
		return err
	}
	_, err := c.auth.Authenticate(ctx, c.refreshCredentials)
	return err
}

func cancelled(err error) error {
	return fmt.Errorf("%w: %w", ErrCancelled, err)
}

// DecodeFunc decodes data into v.
type DecodeFunc func(data []byte, v any) error

// SendJSON sends d and decodes the successful response body as JSON into T.
func SendJSON[T any](ctx context.Context, c *Client, d request.Descriptor) (T, error) {
	return SendDecode[T](ctx, c, d, json.Unmarshal)
}

// SendDecode sends d and decodes the successful response body into T with
// decode. Decode failures wrap ErrDecode; HTTP failures are returned as by
// Send.
func SendDecode[T any](ctx context.Context, c *Client, d request.Descriptor, decode DecodeFunc) (T, error) {
	var out T

	resp, err := c.Send(ctx, d)
	if err != nil {
		return out, err
	}

	if err := decode(resp.Body, &out); err != nil {
		return out, fmt.Errorf("%w: %w", ErrDecode, err)
	}

	return out, nil
}
