package shop

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PurchaseRepo records stock bought from merchants.
type PurchaseRepo struct {
	DB  *pgxpool.Pool
	Log *zap.Logger
}

type PurchaseItemInput struct {
	ProductName  string          `json:"product_name"`
	Quantity     int             `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
}

type PurchaseInput struct {
	MerchantID string              `json:"merchant_id"`
	OrderDate  time.Time           `json:"order_date"`
	Notes      string              `json:"notes,omitempty"`
	Items      []PurchaseItemInput `json:"items"`
}

// BuildPurchase validates the input and computes item and header totals.
// Empty item lists are rejected, matching the sales-order policy.
func BuildPurchase(in PurchaseInput) (*Purchase, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyPurchase
	}

	p := &Purchase{
		MerchantID: in.MerchantID,
		OrderDate:  in.OrderDate,
		Notes:      in.Notes,
	}
	if p.OrderDate.IsZero() {
		p.OrderDate = time.Now().UTC()
	}

	for _, it := range in.Items {
		if it.Quantity < 1 {
			return nil, &InvalidLineError{ProductID: it.ProductName, Reason: "quantity must be at least 1"}
		}
		total := it.PricePerUnit.Mul(decimal.NewFromInt(int64(it.Quantity)))
		p.Items = append(p.Items, PurchaseItem{
			ProductName:  it.ProductName,
			Quantity:     it.Quantity,
			PricePerUnit: it.PricePerUnit,
			TotalPrice:   total,
		})
		p.TotalAmount = p.TotalAmount.Add(total)
	}
	return p, nil
}

func (r *PurchaseRepo) CreatePurchaseTx(ctx context.Context, in PurchaseInput) (*Purchase, error) {
	purchase, err := BuildPurchase(in)
	if err != nil {
		return nil, err
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	purchase.ID = uuid.NewString()
	if _, err := tx.Exec(ctx, `
		INSERT INTO purchases(id, merchant_id, order_date, notes, total_amount)
		VALUES ($1,$2,$3,$4,$5)`,
		purchase.ID, purchase.MerchantID, purchase.OrderDate, purchase.Notes, purchase.TotalAmount); err != nil {
		r.Log.Error("create purchase: persist header", zap.String("purchase_id", purchase.ID), zap.Error(err))
		return nil, err
	}

	for i := range purchase.Items {
		it := &purchase.Items[i]
		it.ID = uuid.NewString()
		it.PurchaseID = purchase.ID
		if _, err := tx.Exec(ctx, `
			INSERT INTO purchase_items(id, purchase_id, product_name, quantity, price_per_unit, total_price)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			it.ID, it.PurchaseID, it.ProductName, it.Quantity, it.PricePerUnit, it.TotalPrice); err != nil {
			r.Log.Error("create purchase: persist item", zap.String("purchase_id", purchase.ID), zap.Error(err))
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		r.Log.Error("create purchase: commit", zap.String("purchase_id", purchase.ID), zap.Error(err))
		return nil, err
	}
	return purchase, nil
}

func (r *PurchaseRepo) GetPurchase(ctx context.Context, id string) (*Purchase, error) {
	var p Purchase
	err := r.DB.QueryRow(ctx, `
		SELECT id, merchant_id, order_date, notes, total_amount
		FROM purchases WHERE id=$1`, id).
		Scan(&p.ID, &p.MerchantID, &p.OrderDate, &p.Notes, &p.TotalAmount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &PurchaseNotFoundError{PurchaseID: id}
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT id, purchase_id, product_name, quantity, price_per_unit, total_price
		FROM purchase_items WHERE purchase_id=$1 ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it PurchaseItem
		if err := rows.Scan(&it.ID, &it.PurchaseID, &it.ProductName, &it.Quantity,
			&it.PricePerUnit, &it.TotalPrice); err != nil {
			return nil, err
		}
		p.Items = append(p.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PurchaseRepo) CreateMerchant(ctx context.Context, name, phone string) (*Merchant, error) {
	m := Merchant{ID: uuid.NewString(), Name: name, Phone: phone}
	if _, err := r.DB.Exec(ctx,
		`INSERT INTO merchants(id, name, phone) VALUES ($1,$2,$3)`, m.ID, m.Name, m.Phone); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PurchaseRepo) ListMerchants(ctx context.Context) ([]Merchant, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, name, phone FROM merchants ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Merchant
	for rows.Next() {
		var m Merchant
		if err := rows.Scan(&m.ID, &m.Name, &m.Phone); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type PagedPurchases struct {
	Items      []Purchase `json:"items"`
	TotalCount int        `json:"total_count"`
	PageNumber int        `json:"page_number"`
	PageSize   int        `json:"page_size"`
}

func (r *PurchaseRepo) ListPurchases(ctx context.Context, page Pagination) (*PagedPurchases, error) {
	page = page.normalize()

	var total int
	if err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM purchases`).Scan(&total); err != nil {
		return nil, err
	}

	rows, err := r.DB.Query(ctx, `
		SELECT id, merchant_id, order_date, notes, total_amount
		FROM purchases
		ORDER BY order_date DESC
		LIMIT $1 OFFSET $2`, page.PageSize, (page.PageNumber-1)*page.PageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := &PagedPurchases{
		Items:      []Purchase{},
		TotalCount: total,
		PageNumber: page.PageNumber,
		PageSize:   page.PageSize,
	}
	for rows.Next() {
		var p Purchase
		if err := rows.Scan(&p.ID, &p.MerchantID, &p.OrderDate, &p.Notes, &p.TotalAmount); err != nil {
			return nil, err
		}
		out.Items = append(out.Items, p)
	}
	return out, rows.Err()
}
