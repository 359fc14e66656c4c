package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Read-side views. The projector never mutates state.

type CustomerRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type OrderLineDetail struct {
	ProductID    string          `json:"product_id"`
	ProductName  string          `json:"product_name"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Quantity     int             `json:"quantity"`
	Discount     decimal.Decimal `json:"discount"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type OrderDetail struct {
	ID            string            `json:"id"`
	OrderDate     time.Time         `json:"order_date"`
	Notes         string            `json:"notes,omitempty"`
	TotalAmount   decimal.Decimal   `json:"total_amount"`
	TotalDiscount decimal.Decimal   `json:"total_discount"`
	FinalAmount   decimal.Decimal   `json:"final_amount"`
	Customer      CustomerRef       `json:"customer"`
	User          *User             `json:"user,omitempty"`
	Lines         []OrderLineDetail `json:"lines"`
}

type OrderSummary struct {
	ID            string          `json:"id"`
	OrderDate     time.Time       `json:"order_date"`
	Notes         string          `json:"notes,omitempty"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	Customer      CustomerRef     `json:"customer"`
	UserID        string          `json:"user_id"`
}

type Pagination struct {
	PageNumber int `json:"page_number"`
	PageSize   int `json:"page_size"`
}

func (p Pagination) normalize() Pagination {
	if p.PageNumber < 1 {
		p.PageNumber = 1
	}
	if p.PageSize < 1 || p.PageSize > 200 {
		p.PageSize = 20
	}
	return p
}

type OrderQuery struct {
	Search    string
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	StartDate *time.Time
	EndDate   *time.Time
	SortField string
	SortDesc  bool
}

type PagedOrders struct {
	Items      []OrderSummary `json:"items"`
	TotalCount int            `json:"total_count"`
	PageNumber int            `json:"page_number"`
	PageSize   int            `json:"page_size"`
}

// Sortable fields are a closed set; anything else falls back to the default
// (order_date ascending) instead of reflecting over arbitrary names.
var orderSortColumns = map[string]string{
	"date":     "o.order_date",
	"total":    "o.total_amount",
	"discount": "o.total_discount",
	"customer": "c.name",
}

func listOrderBy(field string, desc bool) string {
	col, ok := orderSortColumns[strings.ToLower(field)]
	if !ok {
		return "o.order_date ASC"
	}
	if desc {
		return col + " DESC"
	}
	return col + " ASC"
}

// buildOrderFilters renders the WHERE clause for order listings. Search
// matches the customer name or any line's product name.
func buildOrderFilters(q OrderQuery) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if q.Search != "" {
		add(`(c.name ILIKE '%%'||$%d||'%%' OR EXISTS (
			SELECT 1 FROM order_lines ol
			JOIN products p ON p.id = ol.product_id
			WHERE ol.order_id = o.id AND p.name ILIKE '%%'||$%[1]d||'%%'))`, q.Search)
	}
	if q.MinAmount != nil {
		add(`o.total_amount >= $%d`, *q.MinAmount)
	}
	if q.MaxAmount != nil {
		add(`o.total_amount <= $%d`, *q.MaxAmount)
	}
	if q.StartDate != nil {
		add(`o.order_date >= $%d`, *q.StartDate)
	}
	if q.EndDate != nil {
		add(`o.order_date <= $%d`, *q.EndDate)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// GetOrderDetail joins the order with its customer, acting user and products.
// Line subtotals are recomputed from the product's current selling price.
func (r *OrderRepo) GetOrderDetail(ctx context.Context, orderID string) (*OrderDetail, error) {
	var (
		d      OrderDetail
		userID string
	)
	err := r.DB.QueryRow(ctx, `
		SELECT o.id, o.order_date, o.notes, o.total_amount, o.total_discount, o.user_id,
		       c.id, c.name, c.phone
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		WHERE o.id=$1`, orderID).
		Scan(&d.ID, &d.OrderDate, &d.Notes, &d.TotalAmount, &d.TotalDiscount, &userID,
			&d.Customer.ID, &d.Customer.Name, &d.Customer.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &OrderNotFoundError{OrderID: orderID}
	}
	if err != nil {
		return nil, err
	}
	d.FinalAmount = d.TotalAmount

	var u User
	err = r.DB.QueryRow(ctx,
		`SELECT id, first_name, last_name, email, phone FROM users WHERE id=$1`, userID).
		Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Phone)
	switch {
	case err == nil:
		d.User = &u
	case errors.Is(err, pgx.ErrNoRows):
		// acting user may have been removed from the identity store
	default:
		return nil, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT ol.product_id, p.name, p.selling_price, ol.quantity, ol.discount
		FROM order_lines ol
		JOIN products p ON p.id = ol.product_id
		WHERE ol.order_id=$1
		ORDER BY ol.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var l OrderLineDetail
		if err := rows.Scan(&l.ProductID, &l.ProductName, &l.SellingPrice, &l.Quantity, &l.Discount); err != nil {
			return nil, err
		}
		l.Subtotal = LineSubtotal(l.Quantity, l.SellingPrice, l.Discount)
		d.Lines = append(d.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListOrders returns a filtered, sorted page of order summaries.
func (r *OrderRepo) ListOrders(ctx context.Context, page Pagination, q OrderQuery) (*PagedOrders, error) {
	page = page.normalize()
	where, args := buildOrderFilters(q)

	var total int
	countSQL := `SELECT COUNT(*) FROM orders o JOIN customers c ON c.id = o.customer_id ` + where
	if err := r.DB.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, err
	}

	listSQL := fmt.Sprintf(`
		SELECT o.id, o.order_date, o.notes, o.total_amount, o.total_discount, o.user_id,
		       c.id, c.name, c.phone
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		where, listOrderBy(q.SortField, q.SortDesc), len(args)+1, len(args)+2)
	args = append(args, page.PageSize, (page.PageNumber-1)*page.PageSize)

	rows, err := r.DB.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := &PagedOrders{
		Items:      []OrderSummary{},
		TotalCount: total,
		PageNumber: page.PageNumber,
		PageSize:   page.PageSize,
	}
	for rows.Next() {
		var s OrderSummary
		if err := rows.Scan(&s.ID, &s.OrderDate, &s.Notes, &s.TotalAmount, &s.TotalDiscount,
			&s.UserID, &s.Customer.ID, &s.Customer.Name, &s.Customer.Phone); err != nil {
			return nil, err
		}
		out.Items = append(out.Items, s)
	}
	return out, rows.Err()
}

// CustomerOrders pages through one customer's orders, newest first.
func (r *OrderRepo) CustomerOrders(ctx context.Context, customerID string, page Pagination) (*PagedOrders, error) {
	page = page.normalize()

	var total int
	if err := r.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE customer_id=$1`, customerID).Scan(&total); err != nil {
		return nil, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT o.id, o.order_date, o.notes, o.total_amount, o.total_discount, o.user_id,
		       c.id, c.name, c.phone
		FROM orders o
		JOIN customers c ON c.id = o.customer_id
		WHERE o.customer_id=$1
		ORDER BY o.order_date DESC
		LIMIT $2 OFFSET $3`,
		customerID, page.PageSize, (page.PageNumber-1)*page.PageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := &PagedOrders{
		Items:      []OrderSummary{},
		TotalCount: total,
		PageNumber: page.PageNumber,
		PageSize:   page.PageSize,
	}
	for rows.Next() {
		var s OrderSummary
		if err := rows.Scan(&s.ID, &s.OrderDate, &s.Notes, &s.TotalAmount, &s.TotalDiscount,
			&s.UserID, &s.Customer.ID, &s.Customer.Name, &s.Customer.Phone); err != nil {
			return nil, err
		}
		out.Items = append(out.Items, s)
	}
	return out, rows.Err()
}

// OrderTotal recomputes the order's value from its lines and the products'
// current selling prices.
func (r *OrderRepo) OrderTotal(ctx context.Context, orderID string) (decimal.Decimal, error) {
	var exists bool
	if err := r.DB.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE id=$1)`, orderID).Scan(&exists); err != nil {
		return decimal.Zero, err
	}
	if !exists {
		return decimal.Zero, &OrderNotFoundError{OrderID: orderID}
	}

	rows, err := r.DB.Query(ctx, `
		SELECT ol.quantity, p.selling_price, ol.discount
		FROM order_lines ol
		JOIN products p ON p.id = ol.product_id
		WHERE ol.order_id=$1`, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var (
			qty             int
			price, discount decimal.Decimal
		)
		if err := rows.Scan(&qty, &price, &discount); err != nil {
			return decimal.Zero, err
		}
		total = total.Add(LineSubtotal(qty, price, discount))
	}
	return total, rows.Err()
}

// SumAllOrders returns the grand total across every order.
func (r *OrderRepo) SumAllOrders(ctx context.Context) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.DB.QueryRow(ctx,
		`SELECT COALESCE(SUM(total_amount), 0) FROM orders`).Scan(&sum)
	return sum, err
}
