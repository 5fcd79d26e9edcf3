package httpclient

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/AmmannChristian/go-authnet/internal/tlsconfig"
	"github.com/AmmannChristian/go-authnet/request"
	"github.com/AmmannChristian/go-authnet/session"
	"github.com/rs/zerolog"
)

// Builder provides a fluent interface for constructing the pipeline Client
// or a plain bearer-authenticated http.Client with TLS/mTLS support.
type Builder struct {
	// Session configuration
	auth               Authenticator
	refreshCredentials session.Credentials

	// Request configuration
	defaultHeaders map[string]string
	requestIDs     bool
	logger         zerolog.Logger

	// TLS configuration
	tlsEnabled    bool
	tlsCAFile     string
	tlsCertFile   string
	tlsKeyFile    string
	tlsSkipVerify bool

	// HTTP client configuration
	timeout         time.Duration
	baseTransport   http.RoundTripper
	followRedirects bool
}

// NewBuilder creates a new client builder.
func NewBuilder() *Builder {
	return &Builder{
		timeout:         30 * time.Second,
		followRedirects: true,
		requestIDs:      true,
		logger:          zerolog.Nop(),
	}
}

// WithSession sets the session that supplies and refreshes bearer tokens.
func (b *Builder) WithSession(auth Authenticator) *Builder {
	b.auth = auth
	return b
}

// WithRefreshCredentials sets the credentials used to refresh after a 401.
func (b *Builder) WithRefreshCredentials(creds session.Credentials) *Builder {
	b.refreshCredentials = creds
	return b
}

// WithDefaultHeaders replaces the headers sent with every request.
func (b *Builder) WithDefaultHeaders(headers map[string]string) *Builder {
	b.defaultHeaders = headers
	return b
}

// WithoutRequestID disables the X-Request-ID header.
func (b *Builder) WithoutRequestID() *Builder {
	b.requestIDs = false
	return b
}

// WithLogger sets the pipeline logger.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithTLS enables TLS for the connection.
//
// Parameters:
//   - caFile: Path to CA certificate for server verification (optional, uses system roots if empty)
//   - certFile: Path to client certificate for mTLS (optional, must be paired with keyFile)
//   - keyFile: Path to client private key for mTLS (optional, must be paired with certFile)
func (b *Builder) WithTLS(caFile, certFile, keyFile string) *Builder {
	b.tlsEnabled = true
	b.tlsCAFile = caFile
	b.tlsCertFile = certFile
	b.tlsKeyFile = keyFile
	return b
}

// WithInsecureSkipVerify disables TLS certificate verification (NOT RECOMMENDED for production).
func (b *Builder) WithInsecureSkipVerify() *Builder {
	b.tlsSkipVerify = true
	return b
}

// WithTimeout sets the per-attempt timeout of the underlying http.Client.
// Default is 30 seconds if not specified.
func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.timeout = timeout
	return b
}

// WithBaseTransport sets a custom base transport.
func (b *Builder) WithBaseTransport(transport http.RoundTripper) *Builder {
	b.baseTransport = transport
	return b
}

// WithoutRedirects disables automatic redirect following.
func (b *Builder) WithoutRedirects() *Builder {
	b.followRedirects = false
	return b
}

// Build constructs the pipeline Client.
//
// Returns:
//   - *Client: Client dispatching through an HTTPExecutor
//   - error: Error if the TLS configuration is invalid
func (b *Builder) Build() (*Client, error) {
	httpClient, err := b.httpClient(false)
	if err != nil {
		return nil, err
	}

	opts := []ClientOption{
		WithClientLogger(b.logger),
		WithRequestIDs(b.requestIDs),
		WithRefreshCredentials(b.refreshCredentials),
	}
	if b.auth != nil {
		opts = append(opts, WithAuthenticator(b.auth))
	}
	if b.defaultHeaders != nil {
		opts = append(opts, WithRequestBuilder(request.NewBuilder(request.WithDefaultHeaders(b.defaultHeaders))))
	}

	return NewClient(NewHTTPExecutor(httpClient), opts...), nil
}

// BuildHTTPClient constructs a plain http.Client. When a session is set the
// transport is wrapped in a BearerTransport.
func (b *Builder) BuildHTTPClient() (*http.Client, error) {
	return b.httpClient(true)
}

func (b *Builder) httpClient(bearer bool) (*http.Client, error) {
	transport := b.baseTransport
	if transport == nil {
		transport = http.DefaultTransport
		if base, ok := transport.(*http.Transport); ok {
			cloned := base.Clone()
			if b.tlsEnabled || b.tlsSkipVerify {
				tlsConfig, err := b.buildTLSConfig()
				if err != nil {
					return nil, fmt.Errorf("httpclient: TLS config failed: %w", err)
				}
				cloned.TLSClientConfig = tlsConfig
			} else {
				cloned.TLSClientConfig = &tls.Config{
					MinVersion: tls.VersionTLS12,
				}
			}
			transport = cloned
		}
	}

	if bearer && b.auth != nil {
		transport = NewBearerTransport(b.auth, transport)
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   b.timeout,
	}

	if !b.followRedirects {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	return client, nil
}

// buildTLSConfig constructs the TLS configuration for the HTTP client.
func (b *Builder) buildTLSConfig() (*tls.Config, error) {
	return tlsconfig.Files{
		CAFile:             b.tlsCAFile,
		CertFile:           b.tlsCertFile,
		KeyFile:            b.tlsKeyFile,
		InsecureSkipVerify: b.tlsSkipVerify,
	}.Load()
}

// NewHTTPClient is a convenience function that creates an http.Client adding
// bearer tokens from source. For more configuration options, use Builder.
//
// Example:
//
//	m := session.NewManager(store, exchanger)
//	client := httpclient.NewHTTPClient(m)
//	resp, err := client.Get("https://api.example.com/data")
func NewHTTPClient(source TokenSource) *http.Client {
	return &http.Client{
		Transport: NewBearerTransport(source, nil),
		Timeout:   30 * time.Second,
	}
}
