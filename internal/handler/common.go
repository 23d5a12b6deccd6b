package handler // handler defines http handlers

import (
	"errors" // errors provides sentinel values used in getUserID

	"github.com/labstack/echo/v4" // echo defines request context types
)

// getUserID extracts the authenticated user's id from echo.Context.
// User ids are opaque strings minted by the external identity provider
// and injected by the JWT middleware from the token's subject claim.
func getUserID(c echo.Context) (string, error) {
	v := c.Get("user_id")
	if s, ok := v.(string); ok && s != "" {
		return s, nil
	}
	return "", errors.New("missing user identity in context")
}

// getUserEmail returns the authenticated user's email when the token
// carried one, or an empty string. The payment provider can collect the
// email itself, so absence is not an error.
func getUserEmail(c echo.Context) string {
	if s, ok := c.Get("email").(string); ok {
		return s
	}
	return ""
}
