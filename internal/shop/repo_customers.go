package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type CustomerRepo struct {
	DB *pgxpool.Pool
}

type CustomerInput struct {
	Name      string          `json:"name"`
	Phone     string          `json:"phone"`
	MoneyOwed decimal.Decimal `json:"money_owed"`
}

// CustomerView adds the total order amount projection to the base record.
type CustomerView struct {
	Customer
	TotalOrderAmount decimal.Decimal `json:"total_order_amount"`
}

type PagedCustomers struct {
	Items      []CustomerView `json:"items"`
	TotalCount int            `json:"total_count"`
	PageNumber int            `json:"page_number"`
	PageSize   int            `json:"page_size"`
}

func (r *CustomerRepo) CreateCustomer(ctx context.Context, in CustomerInput) (*Customer, error) {
	id := uuid.NewString()
	_, err := r.DB.Exec(ctx,
		`INSERT INTO customers(id, name, phone, money_owed) VALUES ($1,$2,$3,$4)`,
		id, in.Name, in.Phone, in.MoneyOwed)
	if err != nil {
		return nil, err
	}
	c, err := r.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	return &c.Customer, nil
}

func (r *CustomerRepo) GetCustomer(ctx context.Context, id string) (*CustomerView, error) {
	var v CustomerView
	err := r.DB.QueryRow(ctx, `
		SELECT c.id, c.name, c.phone, c.money_owed, c.created_at,
		       COALESCE((SELECT SUM(o.total_amount) FROM orders o WHERE o.customer_id = c.id), 0)
		FROM customers c
		WHERE c.id=$1`, id).
		Scan(&v.ID, &v.Name, &v.Phone, &v.MoneyOwed, &v.CreatedAt, &v.TotalOrderAmount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &CustomerNotFoundError{CustomerID: id}
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *CustomerRepo) ListCustomers(ctx context.Context, page Pagination, search string) (*PagedCustomers, error) {
	page = page.normalize()

	var (
		where string
		args  []any
	)
	if search != "" {
		args = append(args, search)
		where = fmt.Sprintf(`WHERE (c.name ILIKE '%%'||$%d||'%%' OR c.phone ILIKE '%%'||$%[1]d||'%%')`, len(args))
	}

	var total int
	if err := r.DB.QueryRow(ctx,
		strings.TrimSpace(`SELECT COUNT(*) FROM customers c `+where), args...).Scan(&total); err != nil {
		return nil, err
	}

	listSQL := fmt.Sprintf(`
		SELECT c.id, c.name, c.phone, c.money_owed, c.created_at,
		       COALESCE((SELECT SUM(o.total_amount) FROM orders o WHERE o.customer_id = c.id), 0)
		FROM customers c
		%s
		ORDER BY c.name ASC
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, page.PageSize, (page.PageNumber-1)*page.PageSize)

	rows, err := r.DB.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := &PagedCustomers{
		Items:      []CustomerView{},
		TotalCount: total,
		PageNumber: page.PageNumber,
		PageSize:   page.PageSize,
	}
	for rows.Next() {
		var v CustomerView
		if err := rows.Scan(&v.ID, &v.Name, &v.Phone, &v.MoneyOwed, &v.CreatedAt, &v.TotalOrderAmount); err != nil {
			return nil, err
		}
		out.Items = append(out.Items, v)
	}
	return out, rows.Err()
}
