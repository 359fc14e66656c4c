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

// CatalogRepo covers products and their categories. Product quantity is never
// written here; only the stock ledger mutates it.
type CatalogRepo struct {
	DB *pgxpool.Pool
}

type ProductInput struct {
	Name          string          `json:"name"`
	UniqueNumber  string          `json:"unique_number"`
	Quantity      int             `json:"quantity"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	CategoryID    string          `json:"category_id"`
}

type ProductQuery struct {
	Search     string
	CategoryID string
	SortField  string
	SortDesc   bool
}

type PagedProducts struct {
	Items      []Product `json:"items"`
	TotalCount int       `json:"total_count"`
	PageNumber int       `json:"page_number"`
	PageSize   int       `json:"page_size"`
}

var productSortColumns = map[string]string{
	"name":     "name",
	"price":    "selling_price",
	"quantity": "quantity",
}

func productOrderBy(field string, desc bool) string {
	col, ok := productSortColumns[strings.ToLower(field)]
	if !ok {
		return "name ASC"
	}
	if desc {
		return col + " DESC"
	}
	return col + " ASC"
}

const productColumns = `id, name, unique_number, quantity, in_stock, purchase_price, selling_price, category_id, created_at, updated_at`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.UniqueNumber, &p.Quantity, &p.InStock,
		&p.PurchasePrice, &p.SellingPrice, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *CatalogRepo) GetProduct(ctx context.Context, id string) (*Product, error) {
	p, err := scanProduct(r.DB.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &ProductNotFoundError{ProductID: id}
	}
	return p, err
}

func (r *CatalogRepo) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	id := uuid.NewString()
	_, err := r.DB.Exec(ctx, `
		INSERT INTO products(id, name, unique_number, quantity, in_stock, purchase_price, selling_price, category_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		id, in.Name, in.UniqueNumber, in.Quantity, in.Quantity > 0,
		in.PurchasePrice, in.SellingPrice, in.CategoryID)
	if err != nil {
		return nil, err
	}
	return r.GetProduct(ctx, id)
}

// UpdateProduct changes catalog fields only; stock stays under the ledger.
func (r *CatalogRepo) UpdateProduct(ctx context.Context, id string, in ProductInput) (*Product, error) {
	ct, err := r.DB.Exec(ctx, `
		UPDATE products
		SET name=$2, unique_number=$3, purchase_price=$4, selling_price=$5, category_id=$6, updated_at=now()
		WHERE id=$1`,
		id, in.Name, in.UniqueNumber, in.PurchasePrice, in.SellingPrice, in.CategoryID)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		return nil, &ProductNotFoundError{ProductID: id}
	}
	return r.GetProduct(ctx, id)
}

// DeleteProduct refuses to remove a product that historical orders reference.
func (r *CatalogRepo) DeleteProduct(ctx context.Context, id string) error {
	var referenced bool
	if err := r.DB.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM order_lines WHERE product_id=$1)`, id).Scan(&referenced); err != nil {
		return err
	}
	if referenced {
		return &ProductReferencedError{ProductID: id}
	}
	ct, err := r.DB.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return &ProductNotFoundError{ProductID: id}
	}
	return nil
}

func (r *CatalogRepo) ListProducts(ctx context.Context, page Pagination, q ProductQuery) (*PagedProducts, error) {
	page = page.normalize()

	var (
		clauses []string
		args    []any
	)
	if q.Search != "" {
		args = append(args, q.Search)
		clauses = append(clauses, fmt.Sprintf(
			`(name ILIKE '%%'||$%d||'%%' OR unique_number ILIKE '%%'||$%[1]d||'%%')`, len(args)))
	}
	if q.CategoryID != "" {
		args = append(args, q.CategoryID)
		clauses = append(clauses, fmt.Sprintf(`category_id = $%d`, len(args)))
	}
	where := ""
	if len(clauses) > 0 {
		where = "WHERE " + strings.Join(clauses, " AND ")
	}

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM products `+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	listSQL := fmt.Sprintf(`SELECT %s FROM products %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		productColumns, where, productOrderBy(q.SortField, q.SortDesc), len(args)+1, len(args)+2)
	args = append(args, page.PageSize, (page.PageNumber-1)*page.PageSize)

	rows, err := r.DB.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := &PagedProducts{
		Items:      []Product{},
		TotalCount: total,
		PageNumber: page.PageNumber,
		PageSize:   page.PageSize,
	}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.UniqueNumber, &p.Quantity, &p.InStock,
			&p.PurchasePrice, &p.SellingPrice, &p.CategoryID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out.Items = append(out.Items, p)
	}
	return out, rows.Err()
}

func (r *CatalogRepo) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CatalogRepo) CreateCategory(ctx context.Context, name string) (*Category, error) {
	c := Category{ID: uuid.NewString(), Name: name}
	if _, err := r.DB.Exec(ctx,
		`INSERT INTO categories(id, name) VALUES ($1,$2)`, c.ID, c.Name); err != nil {
		return nil, err
	}
	return &c, nil
}
