package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"boutique/internal/domain"
	"boutique/internal/log"
	"boutique/internal/services"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// productView hides cost data from roles without view_cost. The outer
// BuyingPrice shadows the embedded one when encoding.
type productView struct {
	domain.Product
	BuyingPrice *decimal.Decimal `json:"buyingPrice,omitempty"`
	Margin      *decimal.Decimal `json:"margin,omitempty"`
}

func viewProduct(u *domain.User, p domain.Product) productView {
	v := productView{Product: p}
	if u.Can(domain.CapViewCost) {
		bp, m := p.BuyingPrice, p.Margin()
		v.BuyingPrice, v.Margin = &bp, &m
	}
	return v
}

func viewProducts(u *domain.User, ps []domain.Product) []productView {
	out := make([]productView, 0, len(ps))
	for _, p := range ps {
		out = append(out, viewProduct(u, p))
	}
	return out
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	ps, err := h.Catalog.ListProducts(c.UserContext(), c.Query("q"), c.Query("category"))
	if err != nil {
		return respondError(c, "product.list", err)
	}
	return c.JSON(viewProducts(currentUser(c), ps))
}

func (h *ProductHandler) LowStock(c *fiber.Ctx) error {
	ps, err := h.Catalog.LowStock(c.UserContext())
	if err != nil {
		return respondError(c, "product.low_stock", err)
	}
	return c.JSON(viewProducts(currentUser(c), ps))
}

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	p, err := h.Catalog.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, "product.get", err)
	}
	return c.JSON(viewProduct(currentUser(c), p))
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	p, err := h.Catalog.CreateProduct(c.UserContext(), currentUser(c), in)
	if err != nil {
		return respondError(c, "product.create", err)
	}
	log.Audit(c, "product.create", map[string]any{"id": p.ID, "sku": p.SKU, "stock": p.Stock})
	return c.Status(fiber.StatusCreated).JSON(viewProduct(currentUser(c), p))
}

func (h *ProductHandler) Update(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	p, err := h.Catalog.UpdateProduct(c.UserContext(), currentUser(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, "product.update", err)
	}
	log.Audit(c, "product.update", map[string]any{"id": p.ID, "sku": p.SKU, "sellingPrice": p.SellingPrice.String()})
	return c.JSON(viewProduct(currentUser(c), p))
}

func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Catalog.DeleteProduct(c.UserContext(), currentUser(c), id); err != nil {
		return respondError(c, "product.delete", err)
	}
	log.Audit(c, "product.delete", map[string]any{"id": id})
	return c.SendStatus(fiber.StatusNoContent)
}
