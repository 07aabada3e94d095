package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "boutique/internal/log"
	"boutique/internal/services"
)

type UserHandler struct {
	Auth *services.AuthService
}

// GET /users
func (h *UserHandler) List(c *fiber.Ctx) error {
	users, err := h.Auth.ListUsers(c.UserContext(), currentUser(c))
	if err != nil {
		return respondError(c, "user.list", err)
	}
	return c.JSON(users)
}

// POST /users
func (h *UserHandler) Create(c *fiber.Ctx) error {
	var in services.NewUser
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	u, err := h.Auth.CreateUser(c.UserContext(), currentUser(c), in)
	if err != nil {
		return respondError(c, "user.create", err)
	}
	applog.Audit(c, "user.create", map[string]any{"id": u.ID, "email": u.Email, "role": string(u.Role)})
	return c.Status(fiber.StatusCreated).JSON(u)
}
