package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"boutique/internal/domain"
	applog "boutique/internal/log"
	"boutique/internal/services"
)

type SaleHandler struct {
	Sales    *services.SalesService
	Store    string
	Currency string
}

type saleRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (h *SaleHandler) Create(c *fiber.Ctx) error {
	var req saleRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	sale, err := h.Sales.MakeSale(c.UserContext(), currentUser(c), req.ProductID, req.Quantity)
	if errors.Is(err, domain.ErrInsufficientStock) {
		applog.Info(c, "sale.rejected", map[string]any{"product_id": req.ProductID, "qty": req.Quantity})
	}
	if err != nil {
		return respondError(c, "sale.create", err)
	}
	applog.Audit(c, "sale.create", map[string]any{
		"sale_id":    sale.ID,
		"product_id": sale.ProductID,
		"qty":        sale.Quantity,
		"total":      sale.Total.String(),
	})
	return c.Status(fiber.StatusCreated).JSON(sale)
}

func (h *SaleHandler) List(c *fiber.Ctx) error {
	page, err := h.Sales.List(c.UserContext(), currentUser(c), services.SalesQuery{
		Period: c.Query("period"),
		From:   c.Query("from"),
		To:     c.Query("to"),
		Q:      c.Query("q"),
		Limit:  c.QueryInt("limit"),
	})
	if err != nil {
		return respondError(c, "sale.list", err)
	}
	return c.JSON(page)
}

func (h *SaleHandler) Detail(c *fiber.Ctx) error {
	sale, err := h.Sales.Get(c.UserContext(), currentUser(c), c.Params("id"))
	if errors.Is(err, domain.ErrNotFound) {
		applog.Security(c, "access.denied.sale", map[string]any{"sale_id": c.Params("id")})
	}
	if err != nil {
		return respondError(c, "sale.get", err)
	}
	return c.JSON(sale)
}

// Receipt renders a printable receipt for one sale.
func (h *SaleHandler) Receipt(c *fiber.Ctx) error {
	sale, err := h.Sales.Get(c.UserContext(), currentUser(c), c.Params("id"))
	if err != nil {
		status, msg := statusFor(err)
		if status == fiber.StatusInternalServerError {
			applog.Error(c, "sale.receipt", err, nil)
		}
		return c.Status(status).Render("error", fiber.Map{"Message": msg, "Store": h.Store})
	}
	return c.Render("receipt", fiber.Map{"Sale": sale, "Store": h.Store, "Currency": h.Currency})
}
