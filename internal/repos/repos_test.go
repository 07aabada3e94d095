package repos_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"boutique/internal/domain"
	"boutique/internal/repos"
)

func memdb(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := repos.OpenDB(repos.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newProduct(t *testing.T, db *sqlx.DB, sku string, stock int) domain.Product {
	t.Helper()
	ctx := context.Background()
	p := &domain.Product{
		CategoryID:   "cat-shirts",
		Name:         "Shirt " + sku,
		SKU:          sku,
		BuyingPrice:  decimal.NewFromInt(300),
		SellingPrice: decimal.NewFromInt(500),
		Stock:        stock,
	}
	require.NoError(t, repos.InTx(ctx, db, 0, func(tx *sqlx.Tx) error {
		return repos.NewProductRepo(db).Create(ctx, tx, p)
	}))
	return *p
}

func TestOpenDBSeedsIdempotently(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()

	users, err := repos.NewUserRepo(db).List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 3)

	cats, err := repos.NewCategoryRepo(db).List(ctx)
	require.NoError(t, err)
	assert.Len(t, cats, 5)
	assert.Equal(t, "Accessories", cats[0].Name)

	require.NoError(t, repos.SeedDemoCatalog(ctx, db))
	require.NoError(t, repos.SeedDemoCatalog(ctx, db))
	products, err := repos.NewProductRepo(db).List(ctx, repos.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, products, 7)

	entries, err := repos.NewStockEntryRepo(db).List(ctx, repos.EntryFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 7, "opening stock is recorded once per product")
}

func TestUnknownDriverIsRejected(t *testing.T) {
	_, err := repos.OpenDB("oracle", "x")
	assert.Error(t, err)
}

func TestCategoryNamesAreUniqueIgnoringCase(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	cats := repos.NewCategoryRepo(db)

	err := cats.Create(ctx, &domain.Category{Name: "  shirts "})
	assert.ErrorIs(t, err, domain.ErrConflict)

	jackets := &domain.Category{Name: "Jackets"}
	require.NoError(t, cats.Create(ctx, jackets))
	got, err := cats.Get(ctx, jackets.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jackets", got.Name)
}

func TestCategoryDeleteRefusedWhileInUse(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	cats := repos.NewCategoryRepo(db)
	newProduct(t, db, "SHT-9", 1)

	assert.ErrorIs(t, cats.Delete(ctx, "cat-shirts"), domain.ErrConflict)
	assert.ErrorIs(t, cats.Delete(ctx, "cat-missing"), domain.ErrNotFound)
	assert.NoError(t, cats.Delete(ctx, "cat-shoes"))
}

func TestProductSKUConflictAndFilters(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	products := repos.NewProductRepo(db)
	p := newProduct(t, db, "SHT-1", 10)
	newProduct(t, db, "SHT-2", 2)

	err := repos.InTx(ctx, db, 0, func(tx *sqlx.Tx) error {
		return products.Create(ctx, tx, &domain.Product{CategoryID: "cat-shirts", Name: "Dup", SKU: "SHT-1"})
	})
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := products.List(ctx, repos.ProductFilter{Q: "sht-1"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Shirts", got[0].Category)

	low, err := products.ListLowStock(ctx, 5)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "SHT-2", low[0].SKU)

	p.Name = "Renamed"
	p.Stock = 999
	p.SellingPrice = decimal.RequireFromString("650.50")
	require.NoError(t, products.Update(ctx, &p))
	after, err := products.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", after.Name)
	assert.Equal(t, 10, after.Stock, "update never touches stock")
	assert.True(t, after.SellingPrice.Equal(decimal.RequireFromString("650.5")))

	_, err = products.Get(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, products.Update(ctx, &domain.Product{ID: "nope"}), domain.ErrNotFound)
}

func TestDecrementNeverGoesNegative(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	inv := repos.NewInventoryRepo()
	p := newProduct(t, db, "SHT-3", 2)

	err := repos.InTx(ctx, db, 0, func(tx *sqlx.Tx) error {
		return inv.Decrement(ctx, tx, p.ID, 5, time.Now())
	})
	var se *domain.InsufficientStockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 2, se.Available)
	assert.Equal(t, 5, se.Requested)

	require.NoError(t, repos.InTx(ctx, db, 0, func(tx *sqlx.Tx) error {
		if err := inv.Increment(ctx, tx, p.ID, 3, time.Now()); err != nil {
			return err
		}
		return inv.Decrement(ctx, tx, p.ID, 5, time.Now())
	}))
	stock, err := inv.Stock(ctx, db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stock)
}

func TestInTxRollsBackOnError(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	inv := repos.NewInventoryRepo()
	p := newProduct(t, db, "SHT-4", 1)
	boom := errors.New("boom")

	err := repos.InTx(ctx, db, 3, func(tx *sqlx.Tx) error {
		if err := inv.Increment(ctx, tx, p.ID, 10, time.Now()); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stock, err := inv.Stock(ctx, db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stock)
}

func TestSaleListFiltersAndOrder(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	sales := repos.NewSaleRepo(db)
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	insert := func(product, seller, sellerID string, at time.Time) {
		s := &domain.Sale{
			ProductID: "p", ProductName: product, Quantity: 1,
			SellingPrice: decimal.NewFromInt(100), Total: decimal.NewFromInt(100),
			SoldBy: seller, SoldByID: sellerID, Date: at,
		}
		require.NoError(t, repos.InTx(ctx, db, 0, func(tx *sqlx.Tx) error { return sales.Insert(ctx, tx, s) }))
	}
	insert("Linen Shirt", "Jane", "u-jane", base)
	insert("Silk Scarf", "Tom", "u-tom", base.Add(time.Hour))
	insert("Linen Shirt", "Tom", "u-tom", base.Add(24*time.Hour))

	all, err := sales.List(ctx, repos.SaleFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].Date.After(all[2].Date), "newest first")

	oldest, err := sales.List(ctx, repos.SaleFilter{Oldest: true})
	require.NoError(t, err)
	assert.Equal(t, "Jane", oldest[0].SoldBy)

	day, err := sales.List(ctx, repos.SaleFilter{From: base, To: base.Add(24 * time.Hour)})
	require.NoError(t, err)
	assert.Len(t, day, 2)

	toms, err := sales.List(ctx, repos.SaleFilter{SoldByID: "u-tom", Q: "linen"})
	require.NoError(t, err)
	require.Len(t, toms, 1)
	assert.True(t, toms[0].Total.Equal(decimal.NewFromInt(100)))

	bySeller, err := sales.List(ctx, repos.SaleFilter{Q: "JANE"})
	require.NoError(t, err)
	assert.Len(t, bySeller, 1)

	got, err := sales.Get(ctx, toms[0].ID)
	require.NoError(t, err)
	assert.Equal(t, toms[0].Date, got.Date)
}

func TestSessions(t *testing.T) {
	db := memdb(t)
	ctx := context.Background()
	users := repos.NewUserRepo(db)

	u, err := users.ByEmail(ctx, "JANE@boutique.test")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSales, u.Role)

	require.NoError(t, users.BindSession(ctx, "sid-1", u.ID))
	su, err := users.SessionUser(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "Jane", su.Name)

	require.NoError(t, users.UnbindSession(ctx, "sid-1"))
	_, err = users.SessionUser(ctx, "sid-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = users.Create(ctx, &domain.User{Email: "Jane@Boutique.test", Name: "Other", Role: domain.RoleSales, Hash: "x"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}
