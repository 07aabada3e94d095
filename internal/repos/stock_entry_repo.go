package repos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"boutique/internal/domain"
)

type StockEntryRepo struct{ db *sqlx.DB }

func NewStockEntryRepo(db *sqlx.DB) *StockEntryRepo { return &StockEntryRepo{db: db} }

type stockEntryRow struct {
	ID          string `db:"id"`
	ProductID   string `db:"product_id"`
	ProductName string `db:"product_name"`
	Quantity    int    `db:"quantity"`
	AddedBy     string `db:"added_by"`
	AddedByID   string `db:"added_by_id"`
	CreatedAt   string `db:"created_at"`
}

func (r stockEntryRow) toDomain() domain.StockEntry {
	return domain.StockEntry{
		ID:          r.ID,
		ProductID:   r.ProductID,
		ProductName: r.ProductName,
		Quantity:    r.Quantity,
		AddedBy:     r.AddedBy,
		AddedByID:   r.AddedByID,
		Date:        parseStamp(r.CreatedAt),
	}
}

// Insert appends e inside tx. ID and Date are filled when empty.
func (r *StockEntryRepo) Insert(ctx context.Context, tx *sqlx.Tx, e *domain.StockEntry) error {
	if e.ID == "" {
		e.ID = newID()
	}
	if e.Date.IsZero() {
		e.Date = time.Now().UTC()
	}
	_, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO stock_entries(id, product_id, product_name, quantity, added_by, added_by_id, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?)
	`), e.ID, e.ProductID, e.ProductName, e.Quantity, e.AddedBy, e.AddedByID, stamp(e.Date))
	return translate("insert stock entry", err)
}

// EntryFilter narrows stock history. Zero times leave that side open;
// To is exclusive. Limit <= 0 means no limit.
type EntryFilter struct {
	From, To  time.Time
	ProductID string
	Limit     int
}

// List returns entries newest first.
func (r *StockEntryRepo) List(ctx context.Context, f EntryFilter) ([]domain.StockEntry, error) {
	where := []string{"1=1"}
	args := []any{}
	if !f.From.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, stamp(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "created_at < ?")
		args = append(args, stamp(f.To))
	}
	if f.ProductID != "" {
		where = append(where, "product_id = ?")
		args = append(args, f.ProductID)
	}
	q := `SELECT id, product_id, product_name, quantity, added_by, added_by_id, created_at
		FROM stock_entries WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}
	var rows []stockEntryRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, translate("list stock entries", err)
	}
	out := make([]domain.StockEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
