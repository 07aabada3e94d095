package handlers

import (
	"github.com/gofiber/fiber/v2"

	"boutique/internal/services"
)

type ReportHandler struct {
	Reports *services.ReportService
}

// GET /reports?period=&from=&to=&top=
func (h *ReportHandler) Report(c *fiber.Ctx) error {
	r, err := h.Reports.Report(c.UserContext(), currentUser(c), services.ReportQuery{
		Period: c.Query("period"),
		From:   c.Query("from"),
		To:     c.Query("to"),
		Top:    c.QueryInt("top"),
	})
	if err != nil {
		return respondError(c, "report.build", err)
	}
	return c.JSON(r)
}

type dashboardView struct {
	services.Dashboard
	LowStock []productView `json:"lowStock"`
}

// GET /dashboard
func (h *ReportHandler) Dashboard(c *fiber.Ctx) error {
	u := currentUser(c)
	d, err := h.Reports.Dashboard(c.UserContext(), u)
	if err != nil {
		return respondError(c, "dashboard", err)
	}
	return c.JSON(dashboardView{Dashboard: d, LowStock: viewProducts(u, d.LowStock)})
}
