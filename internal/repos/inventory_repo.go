package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"boutique/internal/domain"
)

// InventoryRepo moves product stock levels. All methods run inside the
// caller's transaction.
type InventoryRepo struct{}

func NewInventoryRepo() *InventoryRepo { return &InventoryRepo{} }

// Increment adds by units to the product's stock, stamping updated_at with at.
func (r *InventoryRepo) Increment(ctx context.Context, tx *sqlx.Tx, productID string, by int, at time.Time) error {
	if by <= 0 {
		return domain.ErrInvalidQuantity
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE products SET stock = stock + ?, updated_at = ? WHERE id = ?
	`), by, stamp(at), productID)
	if err != nil {
		return translate("increment stock", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("increment stock %s: %w", productID, domain.ErrNotFound)
	}
	return nil
}

// Decrement atomically subtracts by units if enough stock exists, so stock
// can never go negative even if the caller's earlier read is stale.
func (r *InventoryRepo) Decrement(ctx context.Context, tx *sqlx.Tx, productID string, by int, at time.Time) error {
	if by <= 0 {
		return domain.ErrInvalidQuantity
	}
	res, err := tx.ExecContext(ctx, tx.Rebind(`
		UPDATE products SET stock = stock - ?, updated_at = ?
		WHERE id = ? AND stock >= ?
	`), by, stamp(at), productID, by)
	if err != nil {
		return translate("decrement stock", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var available int
		if err := tx.GetContext(ctx, &available, tx.Rebind(`SELECT stock FROM products WHERE id = ?`), productID); err != nil {
			return translate("decrement stock", err)
		}
		return &domain.InsufficientStockError{ProductID: productID, Requested: by, Available: available}
	}
	return nil
}

// Stock reads the current level outside any lock.
func (r *InventoryRepo) Stock(ctx context.Context, q sqlx.ExtContext, productID string) (int, error) {
	var stock int
	if err := sqlx.GetContext(ctx, q, &stock, q.Rebind(`SELECT stock FROM products WHERE id = ?`), productID); err != nil {
		return 0, translate("read stock", err)
	}
	return stock, nil
}
