package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"boutique/internal/domain"
	"boutique/internal/repos"
	"boutique/internal/telemetry"
)

// Options carries the runtime knobs shared by all services.
type Options struct {
	DBTimeout         time.Duration
	Retries           int
	LowStockThreshold int
	Location          *time.Location
	Now               func() time.Time
	Metrics           *telemetry.Metrics
}

func (o Options) withDefaults() Options {
	if o.DBTimeout <= 0 {
		o.DBTimeout = 5 * time.Second
	}
	if o.LowStockThreshold <= 0 {
		o.LowStockThreshold = 5
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Metrics == nil {
		m, err := telemetry.NewMetrics()
		if err != nil {
			panic(fmt.Sprintf("register metrics: %v", err))
		}
		o.Metrics = m
	}
	return o
}

func (o Options) timeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.DBTimeout)
}

// Services bundles every service over one database.
type Services struct {
	Auth      *AuthService
	Catalog   *CatalogService
	Inventory *InventoryService
	Sales     *SalesService
	Reports   *ReportService
}

func New(db *sqlx.DB, auth AuthConfig, opt Options) *Services {
	opt = opt.withDefaults()
	users := repos.NewUserRepo(db)
	cats := repos.NewCategoryRepo(db)
	prods := repos.NewProductRepo(db)
	inv := repos.NewInventoryRepo()
	entries := repos.NewStockEntryRepo(db)
	sales := repos.NewSaleRepo(db)

	return &Services{
		Auth:      NewAuthService(users, auth, opt),
		Catalog:   NewCatalogService(db, cats, prods, entries, opt),
		Inventory: NewInventoryService(db, prods, inv, entries, opt),
		Sales:     NewSalesService(db, prods, inv, sales, opt),
		Reports:   NewReportService(prods, sales, entries, opt),
	}
}

func authorize(u *domain.User, c domain.Capability) error {
	if u == nil {
		return domain.ErrUnauthenticated
	}
	if !u.Can(c) {
		return fmt.Errorf("%s may not %s: %w", u.Role, c, domain.ErrForbidden)
	}
	return nil
}
