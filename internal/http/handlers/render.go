package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"boutique/internal/domain"
	applog "boutique/internal/log"
)

const genericError = "Something went wrong. Please try again."

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

// statusFor maps a domain error onto an HTTP status and a client-safe message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity), errors.Is(err, domain.ErrInvalid):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUnauthenticated):
		return fiber.StatusUnauthorized, "authentication required"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "access denied"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrInsufficientStock):
		return fiber.StatusConflict, "insufficient stock"
	case errors.Is(err, domain.ErrInUse):
		return fiber.StatusConflict, "still in use"
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "already exists"
	}
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		return fe.Code, fe.Message
	}
	return fiber.StatusInternalServerError, genericError
}

// respondError writes {"error": ...}. Server faults are logged with the
// underlying error; denials go to the security log.
func respondError(c *fiber.Ctx, action string, err error) error {
	status, msg := statusFor(err)
	body := fiber.Map{"error": msg}
	switch status {
	case fiber.StatusInternalServerError:
		applog.Error(c, action, err, nil)
	case fiber.StatusUnauthorized, fiber.StatusForbidden:
		applog.Security(c, "access.denied", map[string]any{"op": action, "reason": err.Error()})
	}
	var se *domain.InsufficientStockError
	if errors.As(err, &se) {
		body["available"] = se.Available
		body["requested"] = se.Requested
	}
	return c.Status(status).JSON(body)
}

// ErrorHandler is the app-wide fallback for errors returned by handlers and
// middleware.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return respondError(c, "server.error", err)
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "malformed request body"})
}
