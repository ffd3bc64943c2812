package user

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

func claimsFromCtx(c *fiber.Ctx) (jwt.MapClaims, bool) {
	tok, ok := c.Locals("user").(*jwt.Token)
	if !ok || tok == nil {
		return nil, false
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	return claims, ok
}

// GetUserIDFromCtx extracts the user_id claim from the JWT token stored
// in `c.Locals("user")` by the jwt middleware or OptionalAuth.
func GetUserIDFromCtx(c *fiber.Ctx) (int, error) {
	claims, ok := claimsFromCtx(c)
	if !ok {
		return 0, fiber.ErrUnauthorized
	}
	switch v := claims["user_id"].(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case string:
		id, err := strconv.Atoi(v)
		if err != nil {
			return 0, fiber.ErrUnauthorized
		}
		return id, nil
	default:
		return 0, fiber.ErrUnauthorized
	}
}

// GetRoleFromCtx returns the role claim, defaulting to client.
func GetRoleFromCtx(c *fiber.Ctx) string {
	claims, ok := claimsFromCtx(c)
	if !ok {
		return ""
	}
	if role, ok := claims["role"].(string); ok && role != "" {
		return role
	}
	return RoleClient
}

func IsAdminCtx(c *fiber.Ctx) bool {
	return GetRoleFromCtx(c) == RoleAdmin
}

// RequireAdmin rejects callers whose token does not carry the admin role.
func RequireAdmin(c *fiber.Ctx) error {
	if _, err := GetUserIDFromCtx(c); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Authentification requise."})
	}
	if !IsAdminCtx(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Accès réservé aux administrateurs."})
	}
	return c.Next()
}

// OptionalAuth decodes a bearer token when one is sent and never rejects the
// request. Public routes use it to personalise responses.
func OptionalAuth(secret []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
			tok, err := jwt.Parse(header[7:], func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
				}
				return secret, nil
			})
			if err == nil && tok.Valid {
				c.Locals("user", tok)
			}
		}
		return c.Next()
	}
}
