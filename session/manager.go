package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/AmmannChristian/go-authnet/authstate"
	"github.com/AmmannChristian/go-authnet/secretstore"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

var (
	// ErrAuth wraps every failed credential exchange.
	ErrAuth = errors.New("session: authentication failed")

	// ErrNoRefreshToken is returned when a refresh is requested but the
	// secret store holds no refresh token.
	ErrNoRefreshToken = errors.New("session: no refresh token stored")

	// ErrUnsupportedCredentials is returned by OAuth2Exchanger for
	// Credentials types it does not know.
	ErrUnsupportedCredentials = errors.New("session: unsupported credentials")
)

// Manager produces valid access tokens, refreshing them through an Exchanger
// and persisting them in a secretstore.Store.
//
// All public operations run one at a time: check-cache, exchange and persist
// form a single critical section. Concurrent callers waiting for a token queue
// behind an in-flight refresh and reuse its result.
type Manager struct {
	store        secretstore.Store
	exchanger    Exchanger
	state        *authstate.Holder
	credentials  Credentials
	expiryLeeway time.Duration
	logger       zerolog.Logger
	now          func() time.Time

	// sem is a one-slot semaphore so waiters can honor ctx.
	sem chan struct{}

	// refreshes counts finished refreshes; last is the outcome of the most
	// recent one and is only touched while sem is held.
	refreshes atomic.Uint64
	last      refreshOutcome
}

type refreshOutcome struct {
	grant string
	err   error
}

// Option is a functional option for configuring Manager.
type Option func(*Manager)

// WithLogger sets the logger for refresh events. Defaults to zerolog.Nop().
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithStateHolder shares an existing auth state holder. By default each
// Manager owns a fresh holder.
func WithStateHolder(holder *authstate.Holder) Option {
	return func(m *Manager) {
		if holder != nil {
			m.state = holder
		}
	}
}

// WithDefaultCredentials sets the credentials ValidAccessToken uses when the
// cached token is missing or expired. Defaults to RefreshTokenCredentials.
func WithDefaultCredentials(creds Credentials) Option {
	return func(m *Manager) {
		if creds != nil {
			m.credentials = creds
		}
	}
}

// WithExpiryLeeway sets how long before expiry a token is considered stale.
// Defaults to one minute.
func WithExpiryLeeway(leeway time.Duration) Option {
	return func(m *Manager) {
		m.expiryLeeway = leeway
	}
}

// NewManager creates a session manager.
//
// Parameters:
//   - store: where tokens are read from and persisted to
//   - exchanger: identity provider client (e.g., NewOAuth2Exchanger)
//   - opts: Optional configuration options (WithLogger, WithStateHolder, ...)
func NewManager(store secretstore.Store, exchanger Exchanger, opts ...Option) *Manager {
	m := &Manager{
		store:        store,
		exchanger:    exchanger,
		state:        authstate.NewHolder(),
		credentials:  RefreshTokenCredentials{},
		expiryLeeway: time.Minute, // refresh a bit before expiry to avoid near-expiry races
		logger:       zerolog.Nop(),
		now:          time.Now,
		sem:          make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// State returns the auth state holder updated by this manager.
func (m *Manager) State() *authstate.Holder {
	return m.state
}

// ValidAccessToken returns the stored access token if it is still valid,
// otherwise it runs the same exchange as Authenticate with the default
// credentials.
func (m *Manager) ValidAccessToken(ctx context.Context) (string, error) {
	seen := m.refreshes.Load()
	if err := m.acquire(ctx); err != nil {
		return "", err
	}
	defer m.release()

	if err := m.sharedFailure(seen, m.credentials); err != nil {
		return "", err
	}

	token, ok, err := m.cachedToken(ctx)
	if err != nil {
		return "", err
	}
	if ok {
		return token, nil
	}

	return m.authenticate(ctx, m.credentials)
}

// Authenticate exchanges creds for a new access token, persists access
// token, expiry and refresh token, and moves the auth state to Authenticated.
//
// On failure the state and the stored credentials are left unchanged; the
// state is never reset to NoSession implicitly.
func (m *Manager) Authenticate(ctx context.Context, creds Credentials) (string, error) {
	if err := m.acquire(ctx); err != nil {
		return "", err
	}
	defer m.release()

	return m.authenticate(ctx, creds)
}

// Renew behaves like Authenticate, except that it skips the exchange when
// the stored token is valid and differs from stale. This lets several
// requests rejected with the same token share one refresh. An empty stale
// always exchanges unless a refresh of the same grant failed while the
// caller was waiting, in which case that failure is returned.
func (m *Manager) Renew(ctx context.Context, creds Credentials, stale string) (string, error) {
	seen := m.refreshes.Load()
	if err := m.acquire(ctx); err != nil {
		return "", err
	}
	defer m.release()

	if err := m.sharedFailure(seen, creds); err != nil {
		return "", err
	}

	if stale != "" {
		token, ok, err := m.cachedToken(ctx)
		if err != nil {
			return "", err
		}
		if ok && token != stale {
			m.logger.Debug().Msg("session: token already renewed by a concurrent caller")
			return token, nil
		}
	}

	return m.authenticate(ctx, creds)
}

// Invalidate clears every stored credential and moves the auth state to
// NoSession.
func (m *Manager) Invalidate(ctx context.Context) error {
	if err := m.acquire(ctx); err != nil {
		return err
	}
	defer m.release()

	if err := m.store.Clear(ctx, secretstore.AllSlots()...); err != nil {
		return fmt.Errorf("session: clear credentials: %w", err)
	}
	m.state.Set(authstate.NoSession)
	m.logger.Info().Msg("session: credentials invalidated")

	return nil
}

func (m *Manager) acquire(ctx context.Context) error {
	select {
	case m.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("session: waiting for session: %w", ctx.Err())
	}
}

func (m *Manager) release() {
	<-m.sem
}

// cachedToken reports the stored access token if present and not within the
// expiry leeway. A missing expiry means the token does not expire.
func (m *Manager) cachedToken(ctx context.Context) (string, bool, error) {
	token, ok, err := m.store.Get(ctx, secretstore.AccessToken)
	if err != nil {
		return "", false, err
	}
	if !ok || token == "" {
		return "", false, nil
	}

	rawExpiry, ok, err := m.store.Get(ctx, secretstore.AccessTokenExpiry)
	if err != nil {
		return "", false, err
	}
	if !ok {
		return token, true, nil
	}

	expiry, err := time.Parse(time.RFC3339, rawExpiry)
	if err != nil {
		m.logger.Warn().Err(err).Str("expiry", rawExpiry).Msg("session: unreadable token expiry, refreshing")
		return "", false, nil
	}
	if expiry.Sub(m.now()) <= m.expiryLeeway {
		return "", false, nil
	}

	return token, true, nil
}

// sharedFailure returns the error of a refresh for the same grant that
// finished after the caller observed seen. Callers queued behind a failing
// refresh return its result instead of hitting the identity provider again.
// Must be called with sem held.
func (m *Manager) sharedFailure(seen uint64, creds Credentials) error {
	if m.refreshes.Load() == seen || m.last.err == nil {
		return nil
	}
	if m.last.grant != creds.GrantType() {
		return nil
	}
	m.logger.Debug().Str("grant", m.last.grant).Msg("session: reusing failed refresh of a concurrent caller")
	return m.last.err
}

func (m *Manager) authenticate(ctx context.Context, creds Credentials) (string, error) {
	token, err := m.exchange(ctx, creds)

	// A refresh aborted by its own caller's ctx says nothing about the
	// identity provider, so waiters run their own.
	shared := err
	if err != nil && ctx.Err() != nil {
		shared = nil
	}
	m.last = refreshOutcome{grant: creds.GrantType(), err: shared}
	m.refreshes.Add(1)

	return token, err
}

func (m *Manager) exchange(ctx context.Context, creds Credentials) (string, error) {
	refreshToken, _, err := m.store.Get(ctx, secretstore.RefreshToken)
	if err != nil {
		return "", err
	}

	tok, err := m.exchanger.Exchange(ctx, creds, refreshToken)
	if err != nil {
		m.logger.Warn().Err(err).Str("grant", creds.GrantType()).Msg("session: token exchange failed")
		return "", fmt.Errorf("%w: %s grant: %w", ErrAuth, creds.GrantType(), err)
	}
	if tok == nil || tok.AccessToken == "" {
		return "", fmt.Errorf("%w: %s grant: empty access token", ErrAuth, creds.GrantType())
	}

	expiry, err := m.persist(ctx, tok)
	if err != nil {
		return "", err
	}

	m.state.Set(authstate.Authenticated)

	event := m.logger.Info().Str("grant", creds.GrantType())
	if !expiry.IsZero() {
		event = event.Str("expires", expiry.Format(time.RFC3339))
	}
	event.Msg("session: obtained new access token")

	return tok.AccessToken, nil
}

func (m *Manager) persist(ctx context.Context, tok *oauth2.Token) (time.Time, error) {
	expiry := tokenExpiry(tok)

	// The access token is removed first and written last: a failure in
	// between leaves no token rather than a token paired with another
	// token's expiry.
	if err := m.store.Clear(ctx, secretstore.AccessToken); err != nil {
		return time.Time{}, fmt.Errorf("session: persist access token: %w", err)
	}

	if expiry.IsZero() {
		if err := m.store.Clear(ctx, secretstore.AccessTokenExpiry); err != nil {
			return time.Time{}, fmt.Errorf("session: persist token expiry: %w", err)
		}
	} else if err := m.store.Set(ctx, secretstore.AccessTokenExpiry, expiry.UTC().Format(time.RFC3339)); err != nil {
		return time.Time{}, fmt.Errorf("session: persist token expiry: %w", err)
	}

	if err := m.store.Set(ctx, secretstore.AccessToken, tok.AccessToken); err != nil {
		return time.Time{}, fmt.Errorf("session: persist access token: %w", err)
	}

	if tok.RefreshToken != "" {
		if err := m.store.Set(ctx, secretstore.RefreshToken, tok.RefreshToken); err != nil {
			return time.Time{}, fmt.Errorf("session: persist refresh token: %w", err)
		}
	}

	return expiry, nil
}

// UnaryClientInterceptor returns a gRPC unary client interceptor that adds
// "authorization: Bearer <token>" to the outgoing metadata.
//
// If token fetch fails, the RPC call is aborted with an error. The token fetch
// respects the RPC context's cancellation and deadline.
//
// Usage:
//
//	conn, err := grpc.NewClient(
//	    "server:9090",
//	    grpc.WithUnaryInterceptor(manager.UnaryClientInterceptor()),
//	)
func (m *Manager) UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		token, err := m.ValidAccessToken(ctx)
		if err != nil {
			return fmt.Errorf("session: failed to get token: %w", err)
		}

		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)

		return invoker(ctx, method, req, reply, cc, opts...)
	}
}

// StreamClientInterceptor returns a gRPC stream client interceptor that adds
// "authorization: Bearer <token>" to the outgoing metadata.
//
// If token fetch fails, stream creation is aborted with an error.
func (m *Manager) StreamClientInterceptor() grpc.StreamClientInterceptor {
	return func(
		ctx context.Context,
		desc *grpc.StreamDesc,
		cc *grpc.ClientConn,
		method string,
		streamer grpc.Streamer,
		opts ...grpc.CallOption,
	) (grpc.ClientStream, error) {
		token, err := m.ValidAccessToken(ctx)
		if err != nil {
			return nil, fmt.Errorf("session: failed to get token: %w", err)
		}

		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+token)

		return streamer(ctx, desc, cc, method, opts...)
	}
}
