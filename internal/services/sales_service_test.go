package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boutique/internal/domain"
	"boutique/internal/services"
)

func TestMakeSaleDecrementsStockAndFreezesPrice(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.product(t, "DRS-10", 10, "500")

	sale, err := f.svc.Sales.MakeSale(ctx, f.jane, p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 7, f.stock(t, p.ID))
	assert.True(t, sale.Total.Equal(decimal.NewFromInt(1500)), "total %s", sale.Total)
	assert.Equal(t, "Jane", sale.SoldBy)

	in := services.ProductInput{
		Name: p.Name, CategoryID: p.CategoryID, SKU: p.SKU,
		BuyingPrice: p.BuyingPrice, SellingPrice: decimal.NewFromInt(650),
	}
	_, err = f.svc.Catalog.UpdateProduct(ctx, f.admin, p.ID, in)
	require.NoError(t, err)

	got, err := f.svc.Sales.Get(ctx, f.admin, sale.ID)
	require.NoError(t, err)
	assert.True(t, got.SellingPrice.Equal(decimal.NewFromInt(500)))
	assert.True(t, got.Total.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, 7, f.stock(t, p.ID), "price edit leaves stock alone")
}

func TestMakeSaleInsufficientStockChangesNothing(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.product(t, "DRS-11", 2, "500")

	_, err := f.svc.Sales.MakeSale(ctx, f.jane, p.ID, 5)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var se *domain.InsufficientStockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 2, se.Available)

	assert.Equal(t, 2, f.stock(t, p.ID))
	page, err := f.svc.Sales.List(ctx, f.admin, services.SalesQuery{})
	require.NoError(t, err)
	assert.Empty(t, page.Sales)
}

func TestMakeSaleGuards(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.product(t, "DRS-12", 5, "500")

	_, err := f.svc.Sales.MakeSale(ctx, f.jane, p.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.svc.Sales.MakeSale(ctx, f.jane, "missing", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Sales.MakeSale(ctx, f.admin, p.ID, 1)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Sales.MakeSale(ctx, nil, p.ID, 1)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	// selling the last unit is fine; the next one is not
	_, err = f.svc.Sales.MakeSale(ctx, f.jane, p.ID, 5)
	require.NoError(t, err)
	_, err = f.svc.Sales.MakeSale(ctx, f.tom, p.ID, 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 0, f.stock(t, p.ID))
}

func TestSalesListIsScopedByRole(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.product(t, "DRS-13", 20, "500")

	_, err := f.svc.Sales.MakeSale(ctx, f.jane, p.ID, 1)
	require.NoError(t, err)
	tomSale, err := f.svc.Sales.MakeSale(ctx, f.tom, p.ID, 2)
	require.NoError(t, err)

	janes, err := f.svc.Sales.List(ctx, f.jane, services.SalesQuery{})
	require.NoError(t, err)
	require.Len(t, janes.Sales, 1)
	assert.Equal(t, "Jane", janes.Sales[0].SoldBy)
	assert.Nil(t, janes.Totals.Profit, "sales staff never see profit")

	_, err = f.svc.Sales.Get(ctx, f.jane, tomSale.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := f.svc.Sales.List(ctx, f.admin, services.SalesQuery{Period: "today"})
	require.NoError(t, err)
	require.Len(t, all.Sales, 2)
	assert.Equal(t, tomSale.ID, all.Sales[0].ID, "newest first")
	assert.Equal(t, 3, all.Totals.Quantity)
	assert.True(t, all.Totals.Amount.Equal(decimal.NewFromInt(1500)))
	require.NotNil(t, all.Totals.Profit)
	assert.True(t, all.Totals.Profit.Equal(decimal.NewFromInt(300)), "profit %s", all.Totals.Profit)

	byName, err := f.svc.Sales.List(ctx, f.admin, services.SalesQuery{Q: "tom"})
	require.NoError(t, err)
	assert.Len(t, byName.Sales, 1)
}
