// Package app wires configuration into a ready-to-use secret store, session
// manager and request pipeline.
package app

import (
	"context"
	"fmt"

	"github.com/AmmannChristian/go-authnet/config"
	"github.com/AmmannChristian/go-authnet/httpclient"
	"github.com/AmmannChristian/go-authnet/request"
	"github.com/AmmannChristian/go-authnet/secretstore"
	"github.com/AmmannChristian/go-authnet/session"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// App holds the components built from a Config.
type App struct {
	Store   secretstore.Store
	Session *session.Manager
	Client  *httpclient.Client

	logger  zerolog.Logger
	closers []func()
}

// New connects the configured store and builds the session manager and
// client. Call Close to release store connections.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	a := &App{logger: logger}

	store, err := a.openStore(ctx, cfg.Store)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = store

	creds := credentialsFor(cfg.OAuth2.Grant)
	exchanger := session.NewOAuth2Exchanger(
		cfg.OAuth2.TokenURL,
		cfg.OAuth2.ClientID,
		cfg.OAuth2.ClientSecret,
		cfg.OAuth2.Scopes,
	)
	a.Session = session.NewManager(store, exchanger,
		session.WithLogger(logger.With().Str("component", "session").Logger()),
		session.WithDefaultCredentials(creds),
		session.WithExpiryLeeway(cfg.OAuth2.ExpiryLeeway),
	)

	builder := httpclient.NewBuilder().
		WithSession(a.Session).
		WithRefreshCredentials(creds).
		WithLogger(logger.With().Str("component", "httpclient").Logger()).
		WithTimeout(cfg.HTTP.Timeout)
	if cfg.HTTP.CAFile != "" || cfg.HTTP.CertFile != "" {
		builder = builder.WithTLS(cfg.HTTP.CAFile, cfg.HTTP.CertFile, cfg.HTTP.KeyFile)
	}
	if cfg.HTTP.InsecureSkipVerify {
		builder = builder.WithInsecureSkipVerify()
	}
	if cfg.HTTP.DisableRedirects {
		builder = builder.WithoutRedirects()
	}
	if cfg.HTTP.DisableRequestID {
		builder = builder.WithoutRequestID()
	}
	if headers := defaultHeaders(cfg.HTTP); headers != nil {
		builder = builder.WithDefaultHeaders(headers)
	}

	client, err := builder.Build()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Client = client

	return a, nil
}

// Close releases store connections. It is safe to call more than once.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) openStore(ctx context.Context, cfg config.StoreConfig) (secretstore.Store, error) {
	switch cfg.Driver {
	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, func() { _ = client.Close() })

		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("app: connect redis: %w", err)
		}
		a.logger.Debug().Str("addr", cfg.Redis.Addr).Msg("app: using redis secret store")
		return secretstore.NewRedis(client, cfg.Redis.Prefix), nil

	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("app: open postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)

		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("app: connect postgres: %w", err)
		}
		store := secretstore.NewPostgres(pool, cfg.Postgres.Namespace)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		a.logger.Debug().Str("namespace", cfg.Postgres.Namespace).Msg("app: using postgres secret store")
		return store, nil

	case config.DriverMemory, "":
		return secretstore.NewMemory(), nil

	default:
		return nil, fmt.Errorf("app: unknown store driver %q", cfg.Driver)
	}
}

func credentialsFor(grant string) session.Credentials {
	if grant == (session.ClientCredentials{}).GrantType() {
		return session.ClientCredentials{}
	}
	return session.RefreshTokenCredentials{}
}

// defaultHeaders returns nil when neither language nor timezone is set, so
// the request builder keeps its system defaults.
func defaultHeaders(cfg config.HTTPConfig) map[string]string {
	if cfg.Language == "" && cfg.Timezone == "" {
		return nil
	}

	headers := request.NewBuilder().DefaultHeaders()
	if cfg.Language != "" {
		headers["Accept-Language"] = cfg.Language
		headers["Content-Language"] = cfg.Language
	}
	if cfg.Timezone != "" {
		headers["X-Local-Timezone"] = cfg.Timezone
	}
	return headers
}
