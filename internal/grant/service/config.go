package service

import "time"

// Config holds the grant engine tunables.
type Config struct {
	// TokenLifetime is how long an issued grant stays redeemable.
	TokenLifetime time.Duration

	// DefaultStoreScopeID is used when an issuance request does not pin
	// the grant to a store scope.
	DefaultStoreScopeID int64
}

func DefaultConfig() *Config {
	return &Config{
		TokenLifetime:       5 * time.Minute,
		DefaultStoreScopeID: 1,
	}
}
