// Package identity reads the authenticated user from a request. Tokens are
// issued by the identity provider; this service only verifies them.
package identity

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrNoIdentity = errors.New("no authenticated user")

// GetUserID extracts the acting user's id from the JWT "sub" claim.
func GetUserID(c *fiber.Ctx) (uuid.UUID, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return uuid.Nil, ErrNoIdentity
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New("missing sub claim")
	}

	return uuid.Parse(sub)
}

// SetUserID stores id in the request locals so loggers can pick it up.
func SetUserID(c *fiber.Ctx, id uuid.UUID) {
	c.Locals("user_id", id.String())
}
