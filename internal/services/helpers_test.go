package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"boutique/internal/domain"
	"boutique/internal/repos"
	"boutique/internal/services"
)

// clock ticks one second per reading so records get distinct timestamps.
type clock struct{ t time.Time }

func (c *clock) Now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

type fixture struct {
	db    *sqlx.DB
	svc   *services.Services
	clock *clock
	admin *domain.User
	jane  *domain.User
	tom   *domain.User
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := repos.OpenDB(repos.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	c := &clock{t: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)}
	svc := services.New(db, services.AuthConfig{Secret: "test-secret-test-secret-test-secret", TokenTTL: time.Hour}, services.Options{
		DBTimeout:         time.Second,
		Retries:           2,
		LowStockThreshold: 5,
		Now:               c.Now,
	})

	users := repos.NewUserRepo(db)
	get := func(id string) *domain.User {
		u, err := users.ByID(context.Background(), id)
		require.NoError(t, err)
		return u
	}
	return &fixture{db: db, svc: svc, clock: c, admin: get("u-admin"), jane: get("u-jane"), tom: get("u-tom")}
}

// product creates a product in Dresses with the given stock and selling price.
func (f *fixture) product(t *testing.T, sku string, stock int, price string) domain.Product {
	t.Helper()
	p, err := f.svc.Catalog.CreateProduct(context.Background(), f.admin, services.ProductInput{
		Name:         "Dress " + sku,
		CategoryID:   "cat-dresses",
		SKU:          sku,
		BuyingPrice:  decimal.RequireFromString(price).Mul(decimal.RequireFromString("0.8")),
		SellingPrice: decimal.RequireFromString(price),
		InitialStock: stock,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.svc.Catalog.GetProduct(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}
