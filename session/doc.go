// Package session owns the OAuth2 token refresh protocol for the request
// pipeline.
//
// A Manager reads access tokens from a secretstore.Store, exchanges
// credentials for new ones through an Exchanger when they are missing or
// about to expire, persists the result and moves the shared authstate.Holder
// to Authenticated.
//
// # Features
//
//   - Serialized check-cache, exchange and persist: at most one exchange in flight
//   - Refresh-token, client-credentials and authorization-code (PKCE) grants
//   - Expiry taken from expires_in, or from the JWT exp claim when absent
//   - gRPC unary and stream client interceptors that inject Bearer tokens
//   - Optional zerolog logging (WithLogger)
//
// # Quick Start
//
//	exchanger := session.NewOAuth2Exchanger(
//	    "https://auth.example.com/oauth/v2/token",
//	    "client-id",
//	    "client-secret",
//	    "openid offline_access",
//	)
//
//	manager := session.NewManager(secretstore.NewMemory(), exchanger)
//	if _, err := manager.Authenticate(ctx, session.AuthorizationCode{Code: code}); err != nil {
//	    log.Fatal(err)
//	}
//
//	token, err := manager.ValidAccessToken(ctx)
//
// # Notes
//
//   - A failed exchange never resets the state to NoSession; call Invalidate for that.
//   - Manager is safe for concurrent use.
package session
