package redis

import "errors"

// Cache errors.
var (
	// ErrCacheMiss is returned when a key is not in the cache.
	ErrCacheMiss = errors.New("cache miss")
)
