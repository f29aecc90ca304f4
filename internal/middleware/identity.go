package middleware

// identity.go defines helper functions shared across middleware files. It
// provides a userID extraction function used to build per-caller cache and
// rate-limit keys. Rate limiting and caching run before JWT validation, so
// the bearer token is parsed unverified here; the value is only ever part
// of a Redis key and never grants access to anything.

import (
    "strconv"
    "strings"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// userID extracts a user identifier for key-building purposes. It prefers
// the validated user_id placed in context by JWTAuth, then falls back to an
// unverified read of the bearer token's subject. "guest" is returned when
// no identity can be derived.
func userID(c echo.Context) string {
    if v := c.Get("user_id"); v != nil {
        if s, ok := v.(string); ok && s != "" {
            return s
        }
    }
    auth := c.Request().Header.Get("Authorization")
    if !strings.HasPrefix(auth, "Bearer ") {
        return "guest"
    }
    raw := strings.TrimPrefix(auth, "Bearer ")
    claims := jwt.MapClaims{}
    if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
        return "guest"
    }
    return claimString(claims, "sub", claimString(claims, "user_id", "guest"))
}

// claimString renders a claim that may be a JSON string or number.
func claimString(claims jwt.MapClaims, key, fallback string) string {
    switch v := claims[key].(type) {
    case string:
        if v != "" {
            return v
        }
    case float64:
        return strconv.FormatUint(uint64(v), 10)
    }
    return fallback
}
