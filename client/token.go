package client

import (
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// tokenExpiry reads the exp claim from a JWT without verifying the
// signature. Verification is the server's job; the client only needs the
// timestamp for scheduling.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	switch v := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(v), 0), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(n, 0), true
	default:
		return time.Time{}, false
	}
}
