package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"boutique/internal/domain"
	"boutique/internal/log"
	"boutique/internal/services"
	"boutique/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	email, ok := validate.Email(req.Email)
	if !ok {
		log.Security(c, "auth.login.fail", map[string]any{"email": req.Email, "reason": "bad_format"})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid email or password"})
	}
	if req.Password == "" || len(req.Password) > 128 {
		log.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": "bad_password_format"})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid email or password"})
	}

	sess, err := h.Auth.Login(c.UserContext(), email, req.Password)
	if errors.Is(err, services.ErrBadCreds) {
		log.Security(c, "auth.login.fail", map[string]any{"email": email})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid email or password"})
	}
	if err != nil {
		return respondError(c, "auth.login", err)
	}

	c.Locals("user", sess.User)
	log.Audit(c, "auth.login.success", map[string]any{"email": email})
	return c.JSON(sess)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	tok, _ := c.Locals("token").(string)
	if err := h.Auth.Logout(c.UserContext(), tok); err != nil {
		return respondError(c, "auth.logout", err)
	}
	log.Audit(c, "auth.logout", nil)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	u := currentUser(c)
	return c.JSON(fiber.Map{
		"user":         u,
		"capabilities": domain.CapabilitiesFor(u.Role).List(),
	})
}
