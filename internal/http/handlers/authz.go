package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"boutique/internal/domain"
	applog "boutique/internal/log"
	"boutique/internal/services"
)

func bearer(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	scheme, tok, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(tok)
}

// Authenticate attaches the user behind a valid bearer token. Requests
// without one continue anonymously; the route guards decide what that means.
func Authenticate(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tok := bearer(c)
		if tok == "" {
			return c.Next()
		}
		u, err := auth.Authenticate(c.UserContext(), tok)
		if err != nil {
			applog.Security(c, "auth.token.reject", map[string]any{"reason": err.Error()})
			return c.Next()
		}
		c.Locals("user", u)
		c.Locals("token", tok)
		return c.Next()
	}
}

// RequireUser enforces that a user is logged in.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) == nil {
			applog.Security(c, "access.denied.anonymous", nil)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}
		return c.Next()
	}
}

// RequireCapability lets the request through only when the user's role
// grants the given capability.
func RequireCapability(want domain.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil {
			applog.Security(c, "access.denied.anonymous", map[string]any{"capability": string(want)})
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication required"})
		}
		if !u.Can(want) {
			applog.Security(c, "access.denied."+string(want), map[string]any{"role": string(u.Role)})
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "access denied"})
		}
		return c.Next()
	}
}
