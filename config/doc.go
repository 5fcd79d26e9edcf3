// Package config loads the authnet configuration from AUTHNET_* environment
// variables and optional .env files.
//
// Variables map to nested keys with a double underscore:
//
//	AUTHNET_OAUTH2__TOKEN_URL=https://auth.example.com/oauth/v2/token
//	AUTHNET_OAUTH2__CLIENT_ID=cli
//	AUTHNET_STORE__DRIVER=redis
//	AUTHNET_STORE__REDIS__ADDR=localhost:6379
//	AUTHNET_HTTP__TIMEOUT=45s
//
// Unset values fall back to defaults: memory store, refresh_token grant,
// 30s timeout, one minute expiry leeway, info-level console logs.
package config
