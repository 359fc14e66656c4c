package invoice

import (
	"testing"

	"github.com/ariefcatur/go-shop-backoffice.git/internal/shop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestFromDetail(t *testing.T) {
	detail := &shop.OrderDetail{
		ID:            "order-1",
		TotalAmount:   dec("22.5"),
		TotalDiscount: dec("2.5"),
		Customer:      shop.CustomerRef{ID: "cust-1", Name: "Aminah"},
		User:          &shop.User{ID: "user-1", FirstName: "Sita", LastName: "Rahma"},
		Lines: []shop.OrderLineDetail{
			{ProductID: "prod-a", ProductName: "Widget", SellingPrice: dec("10"), Quantity: 2, Discount: dec("0"), Subtotal: dec("20")},
			{ProductID: "prod-b", ProductName: "Gadget", SellingPrice: dec("5"), Quantity: 1, Discount: dec("50"), Subtotal: dec("2.5")},
		},
	}

	doc := FromDetail(detail)
	assert.Equal(t, "order-1", doc.OrderID)
	assert.Equal(t, "Aminah", doc.CustomerName)
	assert.Equal(t, "Sita Rahma", doc.UserName)
	require.Len(t, doc.Items, 2)
	assert.Equal(t, "Widget", doc.Items[0].ProductName)
	assert.True(t, doc.Items[1].Subtotal.Equal(dec("2.5")))
	assert.True(t, doc.FinalAmount.Equal(dec("22.5")))
}

func TestFromDetailMissingUser(t *testing.T) {
	doc := FromDetail(&shop.OrderDetail{ID: "order-2", Customer: shop.CustomerRef{Name: "Budi"}})
	assert.Equal(t, "Unknown User", doc.UserName)
	assert.Empty(t, doc.Items)
}
