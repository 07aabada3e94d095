package handlers

import (
	"github.com/gofiber/fiber/v2"

	"boutique/internal/log"
	"boutique/internal/services"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

func (h *CategoryHandler) List(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return respondError(c, "category.list", err)
	}
	return c.JSON(cats)
}

func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	cat, err := h.Catalog.CreateCategory(c.UserContext(), currentUser(c), req.Name)
	if err != nil {
		return respondError(c, "category.create", err)
	}
	log.Audit(c, "category.create", map[string]any{"id": cat.ID, "name": cat.Name})
	return c.Status(fiber.StatusCreated).JSON(cat)
}

func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Catalog.DeleteCategory(c.UserContext(), currentUser(c), id); err != nil {
		return respondError(c, "category.delete", err)
	}
	log.Audit(c, "category.delete", map[string]any{"id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
