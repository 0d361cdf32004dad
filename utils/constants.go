// File: utils/constants.go
package utils

import "time"

// SessionCachePrefix is the prefix used for Redis conversation keys.
const SessionCachePrefix = "conversation:"

// SessionCacheTTL is the time-to-live for idle conversations in Redis.
// The workflow engine itself never expires conversations; the store does.
const SessionCacheTTL = 30 * 24 * time.Hour
