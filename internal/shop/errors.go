package shop

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyOrder    = errors.New("order must contain at least one line")
	ErrEmptyPurchase = errors.New("purchase must contain at least one item")
)

type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: %s", e.ProductID)
}

type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

type UserNotFoundError struct {
	UserID string
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

type OrderNotFoundError struct {
	OrderID string
}

func (e *OrderNotFoundError) Error() string {
	return fmt.Sprintf("order not found: %s", e.OrderID)
}

type CustomerNotFoundError struct {
	CustomerID string
}

func (e *CustomerNotFoundError) Error() string {
	return fmt.Sprintf("customer not found: %s", e.CustomerID)
}

type PurchaseNotFoundError struct {
	PurchaseID string
}

func (e *PurchaseNotFoundError) Error() string {
	return fmt.Sprintf("purchase not found: %s", e.PurchaseID)
}

type InvalidLineError struct {
	ProductID string
	Reason    string
}

func (e *InvalidLineError) Error() string {
	return fmt.Sprintf("invalid line for product %s: %s", e.ProductID, e.Reason)
}

type ProductReferencedError struct {
	ProductID string
}

func (e *ProductReferencedError) Error() string {
	return fmt.Sprintf("product %s is referenced by existing orders", e.ProductID)
}

// IsBusinessError reports whether err is one of the typed business failures,
// as opposed to an unexpected persistence error.
func IsBusinessError(err error) bool {
	var (
		pnf *ProductNotFoundError
		ins *InsufficientStockError
		unf *UserNotFoundError
		onf *OrderNotFoundError
		cnf *CustomerNotFoundError
		puf *PurchaseNotFoundError
		inv *InvalidLineError
		ref *ProductReferencedError
	)
	return errors.As(err, &pnf) || errors.As(err, &ins) || errors.As(err, &unf) ||
		errors.As(err, &onf) || errors.As(err, &cnf) || errors.As(err, &puf) ||
		errors.As(err, &inv) || errors.As(err, &ref) ||
		errors.Is(err, ErrEmptyOrder) || errors.Is(err, ErrEmptyPurchase)
}
