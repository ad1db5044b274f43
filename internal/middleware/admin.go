package middleware

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// AdminRequired admits requests carrying the configured X-Admin-Token, or a
// valid bearer JWT whose subject is listed in ADMIN_USER_IDS. It verifies the
// token itself so the admin token works without a JWT.
func AdminRequired(cfg *config.Config) fiber.Handler {
	adminUserIDs := parseCSV(cfg.AdminUserIDs)

	return func(c *fiber.Ctx) error {
		if cfg.AdminToken != "" && c.Get("X-Admin-Token") == cfg.AdminToken {
			return c.Next()
		}

		raw := strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
		token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
			return []byte(cfg.JWTSecret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || cfg.JWTSecret == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Code: "unauthorized", Message: "Unauthorized",
			})
		}
		c.Locals("user", token)

		sub, _ := token.Claims.GetSubject()
		if contains(adminUserIDs, strings.ToLower(sub)) {
			c.Locals("user_id", sub)
			return c.Next()
		}

		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
			Error: true, Code: "forbidden", Message: "Admin access required",
		})
	}
}

func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, strings.ToLower(trimmed))
		}
	}
	return result
}

func contains(list []string, val string) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}
