package domain

// ==== Room Constants ====

// DefaultRoom is created at startup and is never deleted, even when empty
const DefaultRoom = "main"

// ==== WebSocket Constants ====

// DefaultMaxMessageSize is the maximum allowed WebSocket frame in bytes.
// Images ride inside a frame encoded as a data URL, so this also bounds
// the largest accepted image.
const DefaultMaxMessageSize = 5 << 20

// ==== Rate Limit Constants ====

const (
	// DefaultRateLimitAPI is the default rate limit for API endpoints (requests/sec)
	DefaultRateLimitAPI = 10

	// DefaultRateLimitWS is the default rate limit for WebSocket upgrades (req/sec)
	DefaultRateLimitWS = 5
)
