package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boutique/internal/domain"
	"boutique/internal/services"
)

func TestReport(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	dress := f.product(t, "DRS-30", 10, "500")
	shirt := f.product(t, "DRS-31", 10, "200")

	_, err := f.svc.Sales.MakeSale(ctx, f.jane, dress.ID, 2)
	require.NoError(t, err)
	_, err = f.svc.Sales.MakeSale(ctx, f.tom, shirt.ID, 1)
	require.NoError(t, err)

	r, err := f.svc.Reports.Report(ctx, f.admin, services.ReportQuery{Period: "today"})
	require.NoError(t, err)
	assert.Equal(t, 2, r.Summary.Transactions)
	assert.Equal(t, 3, r.Summary.ItemsSold)
	assert.True(t, r.Summary.Revenue.Equal(decimal.NewFromInt(1200)))
	assert.True(t, r.Summary.Profit.Equal(decimal.NewFromInt(240)), "profit %s", r.Summary.Profit)
	assert.True(t, r.Summary.ProfitMargin.Equal(decimal.NewFromInt(20)))
	require.Len(t, r.TopProducts, 2)
	assert.Equal(t, dress.ID, r.TopProducts[0].ProductID)
	require.Len(t, r.TopCategories, 1)
	assert.Equal(t, "Dresses", r.TopCategories[0].Category)

	yesterday, err := f.svc.Reports.Report(ctx, f.admin, services.ReportQuery{Period: "yesterday"})
	require.NoError(t, err)
	assert.Zero(t, yesterday.Summary.Transactions)

	_, err = f.svc.Reports.Report(ctx, f.jane, services.ReportQuery{})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDashboardByRole(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.product(t, "DRS-32", 6, "500")
	f.product(t, "DRS-33", 3, "100")

	for i := 0; i < 3; i++ {
		_, err := f.svc.Sales.MakeSale(ctx, f.jane, p.ID, 1)
		require.NoError(t, err)
	}
	_, err := f.svc.Sales.MakeSale(ctx, f.tom, p.ID, 1)
	require.NoError(t, err)

	admin, err := f.svc.Reports.Dashboard(ctx, f.admin)
	require.NoError(t, err)
	assert.Equal(t, 2, admin.TotalProducts)
	assert.Equal(t, 5, admin.TotalStock)
	assert.Equal(t, 4, admin.TodayCount)
	assert.True(t, admin.TodaySales.Equal(decimal.NewFromInt(2000)))
	require.NotNil(t, admin.TotalProfit)
	assert.True(t, admin.TotalProfit.Equal(decimal.NewFromInt(400)))
	assert.Nil(t, admin.MySalesTotal)
	assert.Len(t, admin.RecentSales, 4)
	assert.Equal(t, "Tom", admin.RecentSales[0].SoldBy)
	assert.Len(t, admin.RecentStock, 2)
	assert.Len(t, admin.LowStock, 2)

	jane, err := f.svc.Reports.Dashboard(ctx, f.jane)
	require.NoError(t, err)
	assert.Nil(t, jane.TotalProfit)
	require.NotNil(t, jane.MySalesTotal)
	assert.True(t, jane.MySalesTotal.Equal(decimal.NewFromInt(1500)))
	assert.Equal(t, 3, *jane.MySalesCount)
	assert.Len(t, jane.RecentSales, 3)
	for _, s := range jane.RecentSales {
		assert.Equal(t, "u-jane", s.SoldByID)
	}
	assert.Empty(t, jane.RecentStock)
}
