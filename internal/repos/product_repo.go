package repos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"boutique/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

type productRow struct {
	ID           string          `db:"id"`
	CategoryID   string          `db:"category_id"`
	Category     string          `db:"category_name"`
	Name         string          `db:"name"`
	SKU          string          `db:"sku"`
	BuyingPrice  decimal.Decimal `db:"buying_price"`
	SellingPrice decimal.Decimal `db:"selling_price"`
	Stock        int             `db:"stock"`
	CreatedAt    string          `db:"created_at"`
	UpdatedAt    string          `db:"updated_at"`
}

func (r productRow) toDomain() domain.Product {
	return domain.Product{
		ID:           r.ID,
		CategoryID:   r.CategoryID,
		Category:     r.Category,
		Name:         r.Name,
		SKU:          r.SKU,
		BuyingPrice:  r.BuyingPrice,
		SellingPrice: r.SellingPrice,
		Stock:        r.Stock,
		CreatedAt:    parseStamp(r.CreatedAt),
		UpdatedAt:    parseStamp(r.UpdatedAt),
	}
}

const productColumns = `
  p.id, p.category_id, COALESCE(c.name, '') AS category_name, p.name, p.sku,
  p.buying_price, p.selling_price, p.stock, p.created_at, p.updated_at
FROM products p
LEFT JOIN categories c ON c.id = p.category_id`

// ProductFilter narrows List. Q matches name or SKU, case-insensitively.
type ProductFilter struct {
	Q          string
	CategoryID string
}

func (r *ProductRepo) List(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	where := []string{"1=1"}
	args := []any{}
	if strings.TrimSpace(f.Q) != "" {
		where = append(where, "(LOWER(p.name) LIKE ? OR LOWER(p.sku) LIKE ?)")
		args = append(args, likeArg(f.Q), likeArg(f.Q))
	}
	if f.CategoryID != "" {
		where = append(where, "p.category_id = ?")
		args = append(args, f.CategoryID)
	}
	q := `SELECT ` + productColumns + ` WHERE ` + strings.Join(where, " AND ") + ` ORDER BY p.name, p.id`
	return r.selectProducts(ctx, q, args...)
}

// ListLowStock returns products whose stock is below threshold, lowest first.
func (r *ProductRepo) ListLowStock(ctx context.Context, threshold int) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + ` WHERE p.stock < ? ORDER BY p.stock, p.name`
	return r.selectProducts(ctx, q, threshold)
}

func (r *ProductRepo) selectProducts(ctx context.Context, q string, args ...any) ([]domain.Product, error) {
	var rows []productRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, translate("list products", err)
	}
	out := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	var row productRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+productColumns+` WHERE p.id = ?`), id)
	if err != nil {
		return domain.Product{}, translate("get product", err)
	}
	return row.toDomain(), nil
}

// Lock reads a product inside tx, taking a row lock where the store has them.
// The category name is not joined.
func (r *ProductRepo) Lock(ctx context.Context, tx *sqlx.Tx, id string) (domain.Product, error) {
	var row productRow
	q := `SELECT id, category_id, '' AS category_name, name, sku, buying_price, selling_price, stock, created_at, updated_at
		FROM products WHERE id = ?` + forUpdate(tx)
	if err := tx.GetContext(ctx, &row, tx.Rebind(q), id); err != nil {
		return domain.Product{}, translate("lock product", err)
	}
	return row.toDomain(), nil
}

// Create inserts p with its opening stock. Callers record the matching
// stock entry in the same transaction. ID and CreatedAt are filled when empty.
func (r *ProductRepo) Create(ctx context.Context, q sqlx.ExtContext, p *domain.Product) error {
	if p.ID == "" {
		p.ID = newID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	now := p.CreatedAt.UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	_, err := q.ExecContext(ctx, q.Rebind(`
		INSERT INTO products(id, category_id, name, sku, buying_price, selling_price, stock, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), p.ID, p.CategoryID, p.Name, p.SKU, p.BuyingPrice, p.SellingPrice, p.Stock, stamp(now), stamp(now))
	return translate("create product", err)
}

// Update changes descriptive fields and prices. Stock is left alone.
// UpdatedAt is filled when empty.
func (r *ProductRepo) Update(ctx context.Context, p *domain.Product) error {
	return InTx(ctx, r.db, 0, func(tx *sqlx.Tx) error {
		var n int
		if err := tx.GetContext(ctx, &n, tx.Rebind(`SELECT COUNT(*) FROM products WHERE id = ?`), p.ID); err != nil {
			return translate("update product", err)
		}
		if n == 0 {
			return fmt.Errorf("update product %s: %w", p.ID, domain.ErrNotFound)
		}
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = time.Now()
		}
		p.UpdatedAt = p.UpdatedAt.UTC()
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE products
			SET category_id = ?, name = ?, sku = ?, buying_price = ?, selling_price = ?, updated_at = ?
			WHERE id = ?
		`), p.CategoryID, p.Name, p.SKU, p.BuyingPrice, p.SellingPrice, stamp(p.UpdatedAt), p.ID)
		return translate("update product", err)
	})
}

// Delete removes the product. Its sales and stock entries are kept.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM products WHERE id = ?`), id)
	if err != nil {
		return translate("delete product", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete product %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
