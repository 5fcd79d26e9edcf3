package secretstore

import (
	"context"
	"errors"
)

// Slot names one piece of credential material.
type Slot string

const (
	// AccessToken holds the current bearer token.
	AccessToken Slot = "accessToken"
	// AccessTokenExpiry holds the access token expiry as an RFC 3339 timestamp.
	AccessTokenExpiry Slot = "accessTokenExpiryDate"
	// RefreshToken holds the token used to obtain new access tokens.
	RefreshToken Slot = "refreshToken"
)

// AllSlots returns every slot known to the store.
func AllSlots() []Slot {
	return []Slot{AccessToken, AccessTokenExpiry, RefreshToken}
}

// ErrStorage wraps every failure of the underlying medium.
var ErrStorage = errors.New("secretstore: storage failure")

// Store is durable key/value storage for credential material.
//
// Implementations must be safe for concurrent use. Get reports ok=false for
// a slot that has never been set or has been cleared. Errors wrap ErrStorage
// and are never retried by the store itself.
type Store interface {
	Set(ctx context.Context, slot Slot, value string) error
	Get(ctx context.Context, slot Slot) (value string, ok bool, err error)
	Clear(ctx context.Context, slots ...Slot) error
}
