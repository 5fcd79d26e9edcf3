// Package secretstore persists OAuth2 credential material behind a small
// get/set/clear interface.
//
// Three slots are defined: the access token, its expiry and the refresh
// token. Backends:
//
//   - Memory: process-local map, useful for tests and short-lived tools
//   - Redis: go-redis client, one string key per slot
//   - Postgres: pgx, one row per (namespace, slot)
//
// All backends are safe for concurrent use. Failures of the underlying medium
// wrap ErrStorage and are returned as-is; nothing is retried here.
//
//	store := secretstore.NewRedis(redis.NewClient(&redis.Options{Addr: "localhost:6379"}), "myapp")
//	if err := store.Set(ctx, secretstore.RefreshToken, refreshToken); err != nil {
//	    return err
//	}
package secretstore
