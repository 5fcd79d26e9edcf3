package httpclient

import (
	"fmt"
	"net/http"
)

// BearerTransport is an http.RoundTripper that adds a bearer token from a
// TokenSource to outgoing requests. It does not retry on 401; use Client
// for the refresh-and-retry pipeline.
type BearerTransport struct {
	// Base is the underlying HTTP transport. If nil, http.DefaultTransport is used.
	Base http.RoundTripper

	// Source provides access tokens.
	Source TokenSource
}

// RoundTrip implements http.RoundTripper interface.
// It fetches a valid token with the request context and sends a clone of
// the request carrying "Authorization: Bearer <token>".
func (t *BearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Source == nil {
		return nil, fmt.Errorf("httpclient: token source is nil")
	}

	token, err := t.Source.ValidAccessToken(req.Context())
	if err != nil {
		return nil, fmt.Errorf("httpclient: failed to get token: %w", err)
	}

	reqClone := req.Clone(req.Context())
	reqClone.Header.Set("Authorization", "Bearer "+token)

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	return base.RoundTrip(reqClone)
}

// NewBearerTransport creates a BearerTransport.
// The base transport defaults to http.DefaultTransport if not specified.
func NewBearerTransport(source TokenSource, base http.RoundTripper) *BearerTransport {
	if base == nil {
		base = http.DefaultTransport
	}

	return &BearerTransport{
		Base:   base,
		Source: source,
	}
}
