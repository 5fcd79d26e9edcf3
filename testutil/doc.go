// Package testutil provides fixtures shared by the package tests: an
// in-memory OAuth2 token endpoint, RoundTripper helpers and throwaway TLS
// certificates.
package testutil
