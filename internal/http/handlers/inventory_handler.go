package handlers

import (
	"github.com/gofiber/fiber/v2"

	"boutique/internal/log"
	"boutique/internal/services"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

// AddStock handles POST /products/:id/stock.
func (h *InventoryHandler) AddStock(c *fiber.Ctx) error {
	var req quantityRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	id := c.Params("id")
	entry, err := h.Inv.AddStock(c.UserContext(), currentUser(c), id, req.Quantity)
	if err != nil {
		return respondError(c, "stock.add", err)
	}
	log.Audit(c, "stock.add", map[string]any{"product_id": id, "qty": entry.Quantity, "entry_id": entry.ID})
	return c.Status(fiber.StatusCreated).JSON(entry)
}

func (h *InventoryHandler) History(c *fiber.Ctx) error {
	entries, err := h.Inv.History(c.UserContext(), currentUser(c), services.HistoryQuery{
		Period:    c.Query("period"),
		From:      c.Query("from"),
		To:        c.Query("to"),
		ProductID: c.Query("productId"),
		Limit:     c.QueryInt("limit"),
	})
	if err != nil {
		return respondError(c, "stock.history", err)
	}
	return c.JSON(entries)
}
