package middleware

// identity.go holds the helpers that read caller identity out of the
// Echo context after JWTAuth ran.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// CallerID returns the numeric user id stored by JWTAuth, or 0 when the
// request is unauthenticated or the claim is malformed. Tokens carry the
// subject either as a string or a JSON number.
func CallerID(c echo.Context) uint64 {
	switch v := c.Get("user_id").(type) {
	case string:
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0
		}
		return id
	case float64:
		if v < 0 {
			return 0
		}
		return uint64(v)
	default:
		return 0
	}
}

// callerKey returns a stable per-caller string for cache and rate-limit
// keys. Unauthenticated requests share the "guest" bucket.
func callerKey(c echo.Context) string {
	if id := CallerID(c); id != 0 {
		return strconv.FormatUint(id, 10)
	}
	return "guest"
}
