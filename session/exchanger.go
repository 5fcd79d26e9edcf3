package session

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Exchanger trades Credentials for a new token at an identity provider.
//
// refreshToken is the value currently held in the secret store, or empty.
type Exchanger interface {
	Exchange(ctx context.Context, creds Credentials, refreshToken string) (*oauth2.Token, error)
}

// ExchangerFunc adapts a function to Exchanger.
type ExchangerFunc func(ctx context.Context, creds Credentials, refreshToken string) (*oauth2.Token, error)

// Exchange calls f.
func (f ExchangerFunc) Exchange(ctx context.Context, creds Credentials, refreshToken string) (*oauth2.Token, error) {
	return f(ctx, creds, refreshToken)
}

// OAuth2Exchanger implements Exchanger against a standard OAuth2 token
// endpoint using golang.org/x/oauth2.
type OAuth2Exchanger struct {
	config            *oauth2.Config
	clientCredentials *clientcredentials.Config
	httpClient        *http.Client
}

// ExchangerOption configures an OAuth2Exchanger.
type ExchangerOption func(*OAuth2Exchanger)

// WithHTTPClient sets the client used to reach the token endpoint.
// If not set, the oauth2 package default (http.DefaultClient) is used.
func WithHTTPClient(client *http.Client) ExchangerOption {
	return func(e *OAuth2Exchanger) {
		e.httpClient = client
	}
}

// WithAuthURL sets the authorization endpoint used for the code flow.
func WithAuthURL(authURL string) ExchangerOption {
	return func(e *OAuth2Exchanger) {
		e.config.Endpoint.AuthURL = authURL
	}
}

// WithRedirectURL sets the redirect URL sent with authorization code exchanges.
func WithRedirectURL(redirectURL string) ExchangerOption {
	return func(e *OAuth2Exchanger) {
		e.config.RedirectURL = redirectURL
	}
}

// NewOAuth2Exchanger creates an exchanger for the given token endpoint.
//
// Parameters:
//   - tokenURL: OAuth2 token endpoint (e.g., "https://auth.example.com/oauth/v2/token")
//   - clientID: OAuth2 client identifier
//   - clientSecret: OAuth2 client secret (may be empty for public clients)
//   - scopes: Space-separated list of OAuth2 scopes (e.g., "openid profile offline_access")
func NewOAuth2Exchanger(tokenURL, clientID, clientSecret, scopes string, opts ...ExchangerOption) *OAuth2Exchanger {
	// Split scopes by whitespace to avoid sending a single concatenated scope.
	scopesList := strings.Fields(scopes)

	e := &OAuth2Exchanger{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: tokenURL},
			Scopes:       scopesList,
		},
		clientCredentials: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       scopesList,
		},
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Exchange implements Exchanger.
func (e *OAuth2Exchanger) Exchange(ctx context.Context, creds Credentials, refreshToken string) (*oauth2.Token, error) {
	if e.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)
	}

	switch c := creds.(type) {
	case RefreshTokenCredentials:
		if refreshToken == "" {
			return nil, ErrNoRefreshToken
		}
		// An expired token forces the refresher to hit the endpoint. The
		// oauth2 package keeps refreshToken if the server does not rotate it.
		return e.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	case ClientCredentials:
		return e.clientCredentials.Token(ctx)
	case AuthorizationCode:
		var opts []oauth2.AuthCodeOption
		if c.Verifier != "" {
			opts = append(opts, oauth2.VerifierOption(c.Verifier))
		}
		return e.config.Exchange(ctx, c.Code, opts...)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedCredentials, creds)
	}
}
