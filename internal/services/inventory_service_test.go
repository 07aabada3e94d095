package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boutique/internal/domain"
	"boutique/internal/services"
)

func TestAddStockIncrementsAndRecordsOneEntry(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.product(t, "DRS-1", 4, "500")

	before, err := f.svc.Inventory.History(ctx, f.admin, services.HistoryQuery{ProductID: p.ID})
	require.NoError(t, err)

	entry, err := f.svc.Inventory.AddStock(ctx, f.admin, p.ID, 6)
	require.NoError(t, err)
	assert.Equal(t, 6, entry.Quantity)
	assert.Equal(t, "Admin", entry.AddedBy)
	assert.Equal(t, p.Name, entry.ProductName)
	assert.Equal(t, 10, f.stock(t, p.ID))

	after, err := f.svc.Inventory.History(ctx, f.admin, services.HistoryQuery{ProductID: p.ID})
	require.NoError(t, err)
	require.Len(t, after, len(before)+1)
	assert.Equal(t, entry.ID, after[0].ID, "newest first")
}

func TestAddStockRejectsBadInput(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	p := f.product(t, "DRS-2", 1, "500")

	_, err := f.svc.Inventory.AddStock(ctx, f.admin, p.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = f.svc.Inventory.AddStock(ctx, f.admin, "missing", 3)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Inventory.AddStock(ctx, f.jane, p.ID, 3)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	assert.Equal(t, 1, f.stock(t, p.ID))
	entries, err := f.svc.Inventory.History(ctx, f.admin, services.HistoryQuery{ProductID: p.ID})
	require.NoError(t, err)
	assert.Len(t, entries, 1, "only the opening stock entry")
}

func TestHistoryIsAdminOnly(t *testing.T) {
	f := setup(t)
	_, err := f.svc.Inventory.History(context.Background(), f.tom, services.HistoryQuery{})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Inventory.History(context.Background(), f.admin, services.HistoryQuery{Period: "decade"})
	assert.ErrorIs(t, err, domain.ErrInvalid)
}
