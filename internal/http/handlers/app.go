package handlers

import (
	"embed"
	"io/fs"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"
	"github.com/shopspring/decimal"

	"boutique/internal/config"
	"boutique/internal/domain"
	applog "boutique/internal/log"
	"boutique/internal/services"
)

//go:embed views/*.html
var viewsFS embed.FS

func newViews(loc *time.Location) *html.Engine {
	sub, err := fs.Sub(viewsFS, "views")
	if err != nil {
		panic(err)
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	engine.AddFunc("money", func(d decimal.Decimal) string { return d.StringFixed(2) })
	engine.AddFunc("date", func(t time.Time) string { return t.In(loc).Format("2006-01-02 15:04") })
	engine.AddFunc("short", func(id string) string {
		if len(id) > 8 {
			return id[len(id)-8:]
		}
		return id
	})
	return engine
}

// accessLog runs the rest of the chain, resolves any error into a response
// and then logs the request with its final status.
func accessLog(c *fiber.Ctx) error {
	start := time.Now()
	if err := c.Next(); err != nil {
		if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
			_ = c.Status(fiber.StatusInternalServerError).SendString(genericError)
		}
	}
	applog.Access(c, time.Since(start))
	return nil
}

// NewApp builds the HTTP API with its middleware stack and routes.
func NewApp(svc *services.Services, cfg config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.StoreName,
		Views:        newViews(cfg.Location()),
		ErrorHandler: ErrorHandler,
	})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(accessLog)
	app.Use(recover.New())
	app.Use(helmet.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	if cfg.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit,
			Expiration: time.Minute,
			Next: func(c *fiber.Ctx) bool {
				return c.Path() == "/healthz"
			},
			LimitReached: func(c *fiber.Ctx) error {
				applog.Security(c, "rate.global.hit", nil)
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
			},
		}))
	}
	app.Use(Authenticate(svc.Auth))

	deps := NewDeps(svc, cfg)
	Routes(app, deps, cfg)
	return app
}

// Routes mounts every endpoint on app.
func Routes(app *fiber.App, deps *Deps, cfg config.Config) {
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	loginMax := cfg.LoginLimit
	if loginMax <= 0 {
		loginMax = 5
	}
	loginLimiter := limiter.New(limiter.Config{
		Max:        loginMax,
		Expiration: 10 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|login"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many attempts, please try again later"})
		},
	})

	can := RequireCapability
	api := app.Group("/api/v1")

	api.Post("/auth/login", loginLimiter, deps.AuthH.Login)
	api.Post("/auth/logout", RequireUser(), deps.AuthH.Logout)
	api.Get("/auth/me", RequireUser(), deps.AuthH.Me)

	api.Get("/categories", can(domain.CapViewCatalog), deps.Categories.List)
	api.Post("/categories", can(domain.CapManageCategories), deps.Categories.Create)
	api.Delete("/categories/:id", can(domain.CapManageCategories), deps.Categories.Delete)

	api.Get("/products", can(domain.CapViewCatalog), deps.Products.List)
	api.Get("/products/low-stock", can(domain.CapViewCatalog), deps.Products.LowStock)
	api.Get("/products/:id", can(domain.CapViewCatalog), deps.Products.Detail)
	api.Post("/products", can(domain.CapManageCatalog), deps.Products.Create)
	api.Put("/products/:id", can(domain.CapManageCatalog), deps.Products.Update)
	api.Delete("/products/:id", can(domain.CapManageCatalog), deps.Products.Delete)

	api.Post("/products/:id/stock", can(domain.CapAddStock), deps.Inventory.AddStock)
	api.Get("/stock-entries", can(domain.CapViewStockHistory), deps.Inventory.History)

	api.Post("/sales", can(domain.CapMakeSale), deps.Sales.Create)
	api.Get("/sales", RequireUser(), deps.Sales.List)
	api.Get("/sales/:id", RequireUser(), deps.Sales.Detail)

	api.Get("/reports", can(domain.CapViewReports), deps.Reports.Report)
	api.Get("/dashboard", RequireUser(), deps.Reports.Dashboard)

	api.Get("/users", can(domain.CapManageUsers), deps.Users.List)
	api.Post("/users", can(domain.CapManageUsers), deps.Users.Create)

	app.Get("/sales/:id/receipt", RequireUser(), deps.Sales.Receipt)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not found"})
	})
}
