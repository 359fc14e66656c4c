package shop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPurchaseTotals(t *testing.T) {
	p, err := BuildPurchase(PurchaseInput{
		MerchantID: "merch-1",
		Items: []PurchaseItemInput{
			{ProductName: "Flour 25kg", Quantity: 4, PricePerUnit: dec("12.50")},
			{ProductName: "Sugar 10kg", Quantity: 2, PricePerUnit: dec("7.25")},
		},
	})
	require.NoError(t, err)

	require.Len(t, p.Items, 2)
	assert.True(t, p.Items[0].TotalPrice.Equal(dec("50")))
	assert.True(t, p.Items[1].TotalPrice.Equal(dec("14.5")))
	assert.True(t, p.TotalAmount.Equal(dec("64.5")), "total = %s", p.TotalAmount)
	assert.False(t, p.OrderDate.IsZero())
}

func TestBuildPurchaseEmptyRejected(t *testing.T) {
	_, err := BuildPurchase(PurchaseInput{MerchantID: "merch-1"})
	assert.ErrorIs(t, err, ErrEmptyPurchase)
}

func TestBuildPurchaseZeroQuantityRejected(t *testing.T) {
	_, err := BuildPurchase(PurchaseInput{
		MerchantID: "merch-1",
		Items:      []PurchaseItemInput{{ProductName: "Flour", Quantity: 0, PricePerUnit: dec("1")}},
	})
	var inv *InvalidLineError
	assert.ErrorAs(t, err, &inv)
}
