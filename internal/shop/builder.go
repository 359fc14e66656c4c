package shop

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type ProductFinder interface {
	FindProduct(ctx context.Context, id string) (*Product, error)
}

type UserFinder interface {
	FindUser(ctx context.Context, id string) (*User, error)
}

type LineInput struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Discount  decimal.Decimal `json:"discount"`
}

type OrderInput struct {
	CustomerID string      `json:"customer_id"`
	UserID     string      `json:"user_id"`
	OrderDate  time.Time   `json:"order_date"`
	Notes      string      `json:"notes,omitempty"`
	Lines      []LineInput `json:"lines"`
}

// Builder assembles an order aggregate from a request. All collaborators are
// bound to the coordinator's transaction; the builder itself holds no state
// across calls and never commits.
type Builder struct {
	Products ProductFinder
	Users    UserFinder
	Ledger   StockLedger
}

func validateLine(in LineInput) error {
	if in.Quantity < 1 {
		return &InvalidLineError{ProductID: in.ProductID, Reason: "quantity must be at least 1"}
	}
	if in.Discount.IsNegative() || in.Discount.GreaterThan(hundred) {
		return &InvalidLineError{ProductID: in.ProductID, Reason: "discount must be between 0 and 100"}
	}
	return nil
}

// validateLines also rejects the same product appearing twice; one line per
// product is what makes update reconciliation well-defined.
func validateLines(lines []LineInput) error {
	seen := make(map[string]struct{}, len(lines))
	for _, li := range lines {
		if err := validateLine(li); err != nil {
			return err
		}
		if _, dup := seen[li.ProductID]; dup {
			return &InvalidLineError{ProductID: li.ProductID, Reason: "product appears more than once"}
		}
		seen[li.ProductID] = struct{}{}
	}
	return nil
}

// BuildCreate resolves every referenced record, consumes stock per line and
// returns a fully priced order. On any error the caller must roll back the
// transaction; stock consumed for earlier lines is undone by that rollback.
func (b *Builder) BuildCreate(ctx context.Context, in OrderInput) (*Order, error) {
	if len(in.Lines) == 0 {
		return nil, ErrEmptyOrder
	}
	if err := validateLines(in.Lines); err != nil {
		return nil, err
	}
	if _, err := b.Users.FindUser(ctx, in.UserID); err != nil {
		return nil, err
	}

	order := &Order{
		OrderDate:  in.OrderDate,
		Notes:      in.Notes,
		CustomerID: in.CustomerID,
		UserID:     in.UserID,
	}

	figures := make([]LineFigures, 0, len(in.Lines))
	for _, li := range in.Lines {
		product, err := b.Products.FindProduct(ctx, li.ProductID)
		if err != nil {
			return nil, err
		}
		if err := b.Ledger.TryConsume(ctx, li.ProductID, li.Quantity); err != nil {
			return nil, err
		}
		order.Lines = append(order.Lines, OrderLine{
			ProductID: li.ProductID,
			Quantity:  li.Quantity,
			Discount:  li.Discount,
		})
		figures = append(figures, LineFigures{
			Quantity:  li.Quantity,
			UnitPrice: product.SellingPrice,
			Discount:  li.Discount,
		})
	}

	order.TotalAmount, order.TotalDiscount = OrderTotals(figures)
	return order, nil
}

// BuildUpdate reconciles an existing order against a new line list:
// lines for products already on the order are adjusted in place (stock moves
// by the quantity delta), lines for new products consume stock, and lines for
// products no longer requested release their full quantity. Totals are
// recomputed from current product prices for every surviving line.
func (b *Builder) BuildUpdate(ctx context.Context, existing *Order, in OrderInput) (*Order, error) {
	if len(in.Lines) == 0 {
		return nil, ErrEmptyOrder
	}
	if err := validateLines(in.Lines); err != nil {
		return nil, err
	}
	if _, err := b.Users.FindUser(ctx, in.UserID); err != nil {
		return nil, err
	}

	previous := make(map[string]OrderLine, len(existing.Lines))
	for _, l := range existing.Lines {
		previous[l.ProductID] = l
	}

	// an update that carries no date keeps the original placement date
	orderDate := in.OrderDate
	if orderDate.IsZero() {
		orderDate = existing.OrderDate
	}

	updated := &Order{
		ID:         existing.ID,
		OrderDate:  orderDate,
		Notes:      in.Notes,
		CustomerID: in.CustomerID,
		UserID:     in.UserID,
		CreatedAt:  existing.CreatedAt,
	}

	figures := make([]LineFigures, 0, len(in.Lines))
	for _, li := range in.Lines {
		product, err := b.Products.FindProduct(ctx, li.ProductID)
		if err != nil {
			return nil, err
		}

		if prev, ok := previous[li.ProductID]; ok {
			// stock delta = old - new: positive releases, negative consumes
			if delta := prev.Quantity - li.Quantity; delta != 0 {
				if err := b.Ledger.AdjustByDelta(ctx, li.ProductID, delta); err != nil {
					return nil, err
				}
			}
			delete(previous, li.ProductID)
		} else {
			if err := b.Ledger.TryConsume(ctx, li.ProductID, li.Quantity); err != nil {
				return nil, err
			}
		}

		updated.Lines = append(updated.Lines, OrderLine{
			OrderID:   existing.ID,
			ProductID: li.ProductID,
			Quantity:  li.Quantity,
			Discount:  li.Discount,
		})
		figures = append(figures, LineFigures{
			Quantity:  li.Quantity,
			UnitPrice: product.SellingPrice,
			Discount:  li.Discount,
		})
	}

	// whatever is left was dropped from the order: give the stock back,
	// walking the original line order so lock acquisition stays deterministic
	for _, l := range existing.Lines {
		if _, dropped := previous[l.ProductID]; dropped {
			if err := b.Ledger.Release(ctx, l.ProductID, l.Quantity); err != nil {
				return nil, err
			}
		}
	}

	updated.TotalAmount, updated.TotalDiscount = OrderTotals(figures)
	return updated, nil
}

// ReleaseOrderStock gives every line's quantity back to the shelf, walking
// lines in stored order so lock acquisition stays deterministic. Used when an
// order is removed outright.
func ReleaseOrderStock(ctx context.Context, ledger StockLedger, order *Order) error {
	for _, l := range order.Lines {
		if err := ledger.Release(ctx, l.ProductID, l.Quantity); err != nil {
			return err
		}
	}
	return nil
}
