package shop

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// StockLedger is the single choke point for product quantity mutation.
// Implementations are bound to the caller's transaction so a rollback undoes
// every adjustment made through them.
type StockLedger interface {
	// TryConsume decrements available quantity by qty if and only if the
	// current quantity covers it.
	TryConsume(ctx context.Context, productID string, qty int) error
	// Release gives qty units back (line removed/reduced, order deleted).
	Release(ctx context.Context, productID string, qty int) error
	// AdjustByDelta applies a signed delta in one step; negative deltas are
	// subject to the same non-negative invariant as TryConsume.
	AdjustByDelta(ctx context.Context, productID string, delta int) error
}

// TxLedger mutates product stock inside an active pgx transaction.
// Every operation locks the product row first, so the quantity it checks is
// the quantity it decrements even under concurrent orders.
type TxLedger struct {
	Tx pgx.Tx
}

func (l *TxLedger) TryConsume(ctx context.Context, productID string, qty int) error {
	return l.AdjustByDelta(ctx, productID, -qty)
}

func (l *TxLedger) Release(ctx context.Context, productID string, qty int) error {
	return l.AdjustByDelta(ctx, productID, qty)
}

func (l *TxLedger) AdjustByDelta(ctx context.Context, productID string, delta int) error {
	var quantity int
	err := l.Tx.QueryRow(ctx,
		`SELECT quantity FROM products WHERE id=$1 FOR UPDATE`, productID).Scan(&quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return &ProductNotFoundError{ProductID: productID}
	}
	if err != nil {
		return err
	}

	next := quantity + delta
	if next < 0 {
		return &InsufficientStockError{
			ProductID: productID,
			Requested: -delta,
			Available: quantity,
		}
	}

	_, err = l.Tx.Exec(ctx,
		`UPDATE products SET quantity=$2, in_stock=$3, updated_at=now() WHERE id=$1`,
		productID, next, next > 0)
	return err
}
