package session

// Credentials describes what to exchange for a new access token.
type Credentials interface {
	// GrantType returns the OAuth2 grant type, used in logs and errors.
	GrantType() string
}

// RefreshTokenCredentials exchanges the refresh token held in the secret
// store. It is the default credential of a Manager.
type RefreshTokenCredentials struct{}

// GrantType implements Credentials.
func (RefreshTokenCredentials) GrantType() string { return "refresh_token" }

// ClientCredentials runs the client-credentials grant with the exchanger's
// client ID and secret.
type ClientCredentials struct{}

// GrantType implements Credentials.
func (ClientCredentials) GrantType() string { return "client_credentials" }

// AuthorizationCode exchanges an authorization code. Verifier is the PKCE
// code verifier and may be empty.
type AuthorizationCode struct {
	Code     string
	Verifier string
}

// GrantType implements Credentials.
func (AuthorizationCode) GrantType() string { return "authorization_code" }
