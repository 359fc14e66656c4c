package shop

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// OrderRepo is the transaction coordinator for order mutations: one
// transaction per call, builder + ledger bound to it, commit or full rollback.
type OrderRepo struct {
	DB  *pgxpool.Pool
	Log *zap.Logger
}

// txStore resolves products and users inside the active transaction.
type txStore struct{ tx pgx.Tx }

func (s *txStore) FindProduct(ctx context.Context, id string) (*Product, error) {
	var p Product
	err := s.tx.QueryRow(ctx, `
		SELECT id, name, unique_number, quantity, in_stock, purchase_price, selling_price, category_id, created_at, updated_at
		FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.UniqueNumber, &p.Quantity, &p.InStock,
			&p.PurchasePrice, &p.SellingPrice, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &ProductNotFoundError{ProductID: id}
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *txStore) FindUser(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.tx.QueryRow(ctx,
		`SELECT id, first_name, last_name, email, phone FROM users WHERE id=$1`, id).
		Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &UserNotFoundError{UserID: id}
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *OrderRepo) builder(tx pgx.Tx) *Builder {
	store := &txStore{tx: tx}
	return &Builder{Products: store, Users: store, Ledger: &TxLedger{Tx: tx}}
}

// CreateOrderTx builds and persists a new order atomically. Stock consumed by
// the builder lives in the same transaction, so any failure undoes it all.
func (r *OrderRepo) CreateOrderTx(ctx context.Context, in OrderInput) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	order, err := r.builder(tx).BuildCreate(ctx, in)
	if err != nil {
		return nil, err
	}

	order.ID = uuid.NewString()
	if order.OrderDate.IsZero() {
		order.OrderDate = time.Now().UTC()
	}
	if err := r.insertOrder(ctx, tx, order); err != nil {
		r.Log.Error("create order: persist", zap.String("order_id", order.ID), zap.Error(err))
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		r.Log.Error("create order: commit", zap.String("order_id", order.ID), zap.Error(err))
		return nil, err
	}
	return order, nil
}

// UpdateOrderTx replaces the order's line set, reconciling stock by delta.
// The order row is locked first so concurrent updates of the same order
// serialize instead of reconciling against stale in-memory quantities.
func (r *OrderRepo) UpdateOrderTx(ctx context.Context, orderID string, in OrderInput) (*Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	existing, err := lockOrder(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	updated, err := r.builder(tx).BuildUpdate(ctx, existing, in)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE orders
		SET order_date=$2, notes=$3, customer_id=$4, user_id=$5,
		    total_amount=$6, total_discount=$7, updated_at=now()
		WHERE id=$1`,
		updated.ID, updated.OrderDate, updated.Notes, updated.CustomerID,
		updated.UserID, updated.TotalAmount, updated.TotalDiscount); err != nil {
		r.Log.Error("update order: persist header", zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}

	// rewrite the line set wholesale; the aggregate is one consistency unit
	if _, err := tx.Exec(ctx, `DELETE FROM order_lines WHERE order_id=$1`, orderID); err != nil {
		r.Log.Error("update order: clear lines", zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}
	if err := insertLines(ctx, tx, updated); err != nil {
		r.Log.Error("update order: persist lines", zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		r.Log.Error("update order: commit", zap.String("order_id", orderID), zap.Error(err))
		return nil, err
	}
	return updated, nil
}

// DeleteOrdersTx removes a batch of orders, releasing each line's stock.
// A missing order aborts the whole batch.
func (r *OrderRepo) DeleteOrdersTx(ctx context.Context, orderIDs []string) (int, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ledger := &TxLedger{Tx: tx}
	deleted := 0
	for _, orderID := range orderIDs {
		order, err := lockOrder(ctx, tx, orderID)
		if err != nil {
			return 0, err
		}
		if err := ReleaseOrderStock(ctx, ledger, order); err != nil {
			return 0, err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM order_lines WHERE order_id=$1`, orderID); err != nil {
			r.Log.Error("delete orders: lines", zap.String("order_id", orderID), zap.Error(err))
			return 0, err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM orders WHERE id=$1`, orderID); err != nil {
			r.Log.Error("delete orders: header", zap.String("order_id", orderID), zap.Error(err))
			return 0, err
		}
		deleted++
	}

	if err := tx.Commit(ctx); err != nil {
		r.Log.Error("delete orders: commit", zap.Int("count", len(orderIDs)), zap.Error(err))
		return 0, err
	}
	return deleted, nil
}

// lockOrder loads the order header FOR UPDATE plus its lines.
func lockOrder(ctx context.Context, tx pgx.Tx, orderID string) (*Order, error) {
	var o Order
	err := tx.QueryRow(ctx, `
		SELECT id, order_date, notes, customer_id, user_id, total_amount, total_discount, created_at, updated_at
		FROM orders WHERE id=$1 FOR UPDATE`, orderID).
		Scan(&o.ID, &o.OrderDate, &o.Notes, &o.CustomerID, &o.UserID,
			&o.TotalAmount, &o.TotalDiscount, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &OrderNotFoundError{OrderID: orderID}
	}
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT id, order_id, product_id, quantity, discount
		FROM order_lines WHERE order_id=$1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var l OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Quantity, &l.Discount); err != nil {
			return nil, err
		}
		o.Lines = append(o.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepo) insertOrder(ctx context.Context, tx pgx.Tx, order *Order) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO orders(id, order_date, notes, customer_id, user_id, total_amount, total_discount)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		order.ID, order.OrderDate, order.Notes, order.CustomerID, order.UserID,
		order.TotalAmount, order.TotalDiscount)
	if err != nil {
		return err
	}
	return insertLines(ctx, tx, order)
}

func insertLines(ctx context.Context, tx pgx.Tx, order *Order) error {
	for i := range order.Lines {
		l := &order.Lines[i]
		l.ID = uuid.NewString()
		l.OrderID = order.ID
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_lines(id, order_id, product_id, quantity, discount)
			VALUES ($1,$2,$3,$4,$5)`,
			l.ID, l.OrderID, l.ProductID, l.Quantity, l.Discount); err != nil {
			return err
		}
	}
	return nil
}
