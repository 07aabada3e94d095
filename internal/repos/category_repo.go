package repos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"boutique/internal/domain"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

type categoryRow struct {
	ID        string `db:"id"`
	Name      string `db:"name"`
	CreatedAt string `db:"created_at"`
}

func (r categoryRow) toDomain() domain.Category {
	return domain.Category{ID: r.ID, Name: r.Name, CreatedAt: parseStamp(r.CreatedAt)}
}

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	var rows []categoryRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, name, created_at FROM categories ORDER BY name_key`); err != nil {
		return nil, translate("list categories", err)
	}
	out := make([]domain.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func (r *CategoryRepo) Get(ctx context.Context, id string) (domain.Category, error) {
	var row categoryRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT id, name, created_at FROM categories WHERE id = ?`), id)
	if err != nil {
		return domain.Category{}, translate("get category", err)
	}
	return row.toDomain(), nil
}

// Create inserts c, filling ID and CreatedAt when empty. A name that differs
// only by case from an existing one is a conflict.
func (r *CategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	if c.ID == "" {
		c.ID = newID()
	}
	c.Name = strings.TrimSpace(c.Name)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO categories(id, name, name_key, created_at) VALUES(?, ?, ?, ?)
	`), c.ID, c.Name, normalizeKey(c.Name), stamp(c.CreatedAt))
	return translate("create category", err)
}

// Delete refuses while any product still belongs to the category.
func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	return InTx(ctx, r.db, 0, func(tx *sqlx.Tx) error {
		var inUse int
		if err := tx.GetContext(ctx, &inUse, tx.Rebind(`SELECT COUNT(*) FROM products WHERE category_id = ?`), id); err != nil {
			return translate("delete category", err)
		}
		if inUse > 0 {
			return fmt.Errorf("delete category: %d products still use it: %w", inUse, domain.ErrInUse)
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM categories WHERE id = ?`), id)
		if err != nil {
			return translate("delete category", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return translate("delete category", domain.ErrNotFound)
		}
		return nil
	})
}

func newID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
