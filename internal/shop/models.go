package shop

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	UniqueNumber  string          `json:"unique_number"`
	Quantity      int             `json:"quantity"`
	InStock       bool            `json:"in_stock"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	CategoryID    string          `json:"category_id"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type Customer struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Phone     string          `json:"phone"`
	MoneyOwed decimal.Decimal `json:"money_owed"`
	CreatedAt time.Time       `json:"created_at"`
}

type Merchant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// User is the acting-user record; identity management itself lives elsewhere,
// this core only reads it.
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

type Order struct {
	ID            string          `json:"id"`
	OrderDate     time.Time       `json:"order_date"`
	Notes         string          `json:"notes,omitempty"`
	CustomerID    string          `json:"customer_id"`
	UserID        string          `json:"user_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	Lines         []OrderLine     `json:"lines"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// OrderLine is owned by its Order. Unit price is not persisted here:
// it is read from the product at build time and again at projection time.
type OrderLine struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Discount  decimal.Decimal `json:"discount"` // percent, 0..100
}

type Purchase struct {
	ID          string          `json:"id"`
	MerchantID  string          `json:"merchant_id"`
	OrderDate   time.Time       `json:"order_date"`
	Notes       string          `json:"notes,omitempty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Items       []PurchaseItem  `json:"items"`
}

type PurchaseItem struct {
	ID           string          `json:"id"`
	PurchaseID   string          `json:"purchase_id"`
	ProductName  string          `json:"product_name"`
	Quantity     int             `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}
