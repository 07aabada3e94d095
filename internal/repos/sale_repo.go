package repos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"boutique/internal/domain"
)

// SaleRepo stores the append-only sales ledger. There is no update method.
type SaleRepo struct{ db *sqlx.DB }

func NewSaleRepo(db *sqlx.DB) *SaleRepo { return &SaleRepo{db: db} }

type saleRow struct {
	ID           string          `db:"id"`
	ProductID    string          `db:"product_id"`
	ProductName  string          `db:"product_name"`
	Quantity     int             `db:"quantity"`
	SellingPrice decimal.Decimal `db:"selling_price"`
	Total        decimal.Decimal `db:"total"`
	SoldBy       string          `db:"sold_by"`
	SoldByID     string          `db:"sold_by_id"`
	CreatedAt    string          `db:"created_at"`
}

func (r saleRow) toDomain() domain.Sale {
	return domain.Sale{
		ID:           r.ID,
		ProductID:    r.ProductID,
		ProductName:  r.ProductName,
		Quantity:     r.Quantity,
		SellingPrice: r.SellingPrice,
		Total:        r.Total,
		SoldBy:       r.SoldBy,
		SoldByID:     r.SoldByID,
		Date:         parseStamp(r.CreatedAt),
	}
}

const saleColumns = `id, product_id, product_name, quantity, selling_price, total, sold_by, sold_by_id, created_at`

// Insert appends s inside tx. ID and Date are filled when empty.
func (r *SaleRepo) Insert(ctx context.Context, tx *sqlx.Tx, s *domain.Sale) error {
	if s.ID == "" {
		s.ID = newID()
	}
	if s.Date.IsZero() {
		s.Date = time.Now().UTC()
	}
	_, err := tx.ExecContext(ctx, tx.Rebind(`
		INSERT INTO sales(`+saleColumns+`)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), s.ID, s.ProductID, s.ProductName, s.Quantity, s.SellingPrice, s.Total, s.SoldBy, s.SoldByID, stamp(s.Date))
	return translate("insert sale", err)
}

func (r *SaleRepo) Get(ctx context.Context, id string) (domain.Sale, error) {
	var row saleRow
	if err := r.db.GetContext(ctx, &row, r.db.Rebind(`SELECT `+saleColumns+` FROM sales WHERE id = ?`), id); err != nil {
		return domain.Sale{}, translate("get sale", err)
	}
	return row.toDomain(), nil
}

// SaleFilter narrows List. Zero times leave that side open; To is
// exclusive. Q matches product or seller name. Oldest flips the order to
// insertion order.
type SaleFilter struct {
	From, To time.Time
	SoldByID string
	Q        string
	Limit    int
	Oldest   bool
}

// List returns sales newest first unless f.Oldest is set.
func (r *SaleRepo) List(ctx context.Context, f SaleFilter) ([]domain.Sale, error) {
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
	if f.SoldByID != "" {
		where = append(where, "sold_by_id = ?")
		args = append(args, f.SoldByID)
	}
	if strings.TrimSpace(f.Q) != "" {
		where = append(where, "(LOWER(product_name) LIKE ? OR LOWER(sold_by) LIKE ?)")
		args = append(args, likeArg(f.Q), likeArg(f.Q))
	}
	order := " ORDER BY created_at DESC, id DESC"
	if f.Oldest {
		order = " ORDER BY created_at, id"
	}
	q := `SELECT ` + saleColumns + ` FROM sales WHERE ` + strings.Join(where, " AND ") + order
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}
	var rows []saleRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(q), args...); err != nil {
		return nil, translate("list sales", err)
	}
	out := make([]domain.Sale, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}
