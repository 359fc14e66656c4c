package shop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore keeps products, users and stock in memory so the builder can be
// exercised without a database. Stock mutation goes through the same
// non-negative check the transactional ledger enforces.
type fakeStore struct {
	products map[string]*Product
	users    map[string]*User
}

func (f *fakeStore) FindProduct(_ context.Context, id string) (*Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, &ProductNotFoundError{ProductID: id}
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) FindUser(_ context.Context, id string) (*User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, &UserNotFoundError{UserID: id}
	}
	return u, nil
}

func (f *fakeStore) TryConsume(ctx context.Context, productID string, qty int) error {
	return f.AdjustByDelta(ctx, productID, -qty)
}

func (f *fakeStore) Release(ctx context.Context, productID string, qty int) error {
	return f.AdjustByDelta(ctx, productID, qty)
}

func (f *fakeStore) AdjustByDelta(_ context.Context, productID string, delta int) error {
	p, ok := f.products[productID]
	if !ok {
		return &ProductNotFoundError{ProductID: productID}
	}
	next := p.Quantity + delta
	if next < 0 {
		return &InsufficientStockError{ProductID: productID, Requested: -delta, Available: p.Quantity}
	}
	p.Quantity = next
	p.InStock = next > 0
	return nil
}

func newFixture() (*fakeStore, *Builder) {
	store := &fakeStore{
		products: map[string]*Product{
			"prod-a": {ID: "prod-a", Name: "Widget", Quantity: 8, InStock: true, SellingPrice: dec("10")},
			"prod-b": {ID: "prod-b", Name: "Gadget", Quantity: 5, InStock: true, SellingPrice: dec("5")},
		},
		users: map[string]*User{
			"user-1": {ID: "user-1", FirstName: "Sita", LastName: "Rahma"},
		},
	}
	return store, &Builder{Products: store, Users: store, Ledger: store}
}

func baseInput(lines ...LineInput) OrderInput {
	return OrderInput{
		CustomerID: "cust-1",
		UserID:     "user-1",
		OrderDate:  time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Lines:      lines,
	}
}

func TestBuildCreateComputesTotalsAndConsumesStock(t *testing.T) {
	store, b := newFixture()

	order, err := b.BuildCreate(context.Background(), baseInput(
		LineInput{ProductID: "prod-a", Quantity: 2, Discount: dec("0")},
		LineInput{ProductID: "prod-b", Quantity: 1, Discount: dec("50")},
	))
	require.NoError(t, err)

	assert.True(t, order.TotalAmount.Equal(dec("22.5")), "total = %s", order.TotalAmount)
	assert.True(t, order.TotalDiscount.Equal(dec("2.5")), "discount = %s", order.TotalDiscount)
	require.Len(t, order.Lines, 2)

	assert.Equal(t, 6, store.products["prod-a"].Quantity)
	assert.Equal(t, 4, store.products["prod-b"].Quantity)
}

func TestBuildCreateEmptyLinesRejected(t *testing.T) {
	_, b := newFixture()
	_, err := b.BuildCreate(context.Background(), baseInput())
	assert.ErrorIs(t, err, ErrEmptyOrder)
}

func TestBuildCreateUnknownUser(t *testing.T) {
	_, b := newFixture()
	in := baseInput(LineInput{ProductID: "prod-a", Quantity: 1})
	in.UserID = "ghost"

	_, err := b.BuildCreate(context.Background(), in)
	var unf *UserNotFoundError
	require.ErrorAs(t, err, &unf)
	assert.Equal(t, "ghost", unf.UserID)
}

func TestBuildCreateUnknownProduct(t *testing.T) {
	_, b := newFixture()
	_, err := b.BuildCreate(context.Background(), baseInput(
		LineInput{ProductID: "prod-x", Quantity: 1},
	))
	var pnf *ProductNotFoundError
	require.ErrorAs(t, err, &pnf)
	assert.Equal(t, "prod-x", pnf.ProductID)
}

func TestBuildCreateInsufficientStock(t *testing.T) {
	store, b := newFixture()
	store.products["prod-b"].Quantity = 1

	_, err := b.BuildCreate(context.Background(), baseInput(
		LineInput{ProductID: "prod-b", Quantity: 2},
	))
	var ins *InsufficientStockError
	require.ErrorAs(t, err, &ins)
	assert.Equal(t, "prod-b", ins.ProductID)
	assert.Equal(t, 2, ins.Requested)
	assert.Equal(t, 1, ins.Available)
}

func TestBuildCreateDiscountOutOfRange(t *testing.T) {
	_, b := newFixture()
	_, err := b.BuildCreate(context.Background(), baseInput(
		LineInput{ProductID: "prod-a", Quantity: 1, Discount: dec("101")},
	))
	var inv *InvalidLineError
	assert.ErrorAs(t, err, &inv)

	_, err = b.BuildCreate(context.Background(), baseInput(
		LineInput{ProductID: "prod-a", Quantity: 1, Discount: dec("-1")},
	))
	assert.ErrorAs(t, err, &inv)
}

func TestBuildCreateDuplicateProductRejected(t *testing.T) {
	store, b := newFixture()
	_, err := b.BuildCreate(context.Background(), baseInput(
		LineInput{ProductID: "prod-a", Quantity: 1},
		LineInput{ProductID: "prod-a", Quantity: 2},
	))
	var inv *InvalidLineError
	require.ErrorAs(t, err, &inv)
	assert.Equal(t, 8, store.products["prod-a"].Quantity, "validation runs before any stock moves")
}

func TestBuildCreateZeroQuantityRejected(t *testing.T) {
	_, b := newFixture()
	_, err := b.BuildCreate(context.Background(), baseInput(
		LineInput{ProductID: "prod-a", Quantity: 0},
	))
	var inv *InvalidLineError
	assert.ErrorAs(t, err, &inv)
}

func existingOrder(lines ...OrderLine) *Order {
	return &Order{
		ID:         "order-1",
		CustomerID: "cust-1",
		UserID:     "user-1",
		Lines:      lines,
	}
}

func TestBuildUpdateQuantityIncreaseConsumesDelta(t *testing.T) {
	store, b := newFixture()
	// order already holds 2 units of prod-a; 8 more on the shelf
	order := existingOrder(OrderLine{ID: "l1", OrderID: "order-1", ProductID: "prod-a", Quantity: 2})

	updated, err := b.BuildUpdate(context.Background(), order, baseInput(
		LineInput{ProductID: "prod-a", Quantity: 5},
	))
	require.NoError(t, err)
	assert.Equal(t, 5, store.products["prod-a"].Quantity, "delta of 3 consumed")
	assert.True(t, updated.TotalAmount.Equal(dec("50")))
}

func TestBuildUpdateQuantityDecreaseReleasesDelta(t *testing.T) {
	store, b := newFixture()
	order := existingOrder(OrderLine{ID: "l1", OrderID: "order-1", ProductID: "prod-a", Quantity: 2})

	_, err := b.BuildUpdate(context.Background(), order, baseInput(
		LineInput{ProductID: "prod-a", Quantity: 1},
	))
	require.NoError(t, err)
	assert.Equal(t, 9, store.products["prod-a"].Quantity, "one unit released")
}

func TestBuildUpdateInsufficientStockForDelta(t *testing.T) {
	store, b := newFixture()
	store.products["prod-a"].Quantity = 2
	order := existingOrder(OrderLine{ID: "l1", OrderID: "order-1", ProductID: "prod-a", Quantity: 2})

	_, err := b.BuildUpdate(context.Background(), order, baseInput(
		LineInput{ProductID: "prod-a", Quantity: 5},
	))
	var ins *InsufficientStockError
	require.ErrorAs(t, err, &ins)
	assert.Equal(t, 3, ins.Requested)
	assert.Equal(t, 2, ins.Available)
}

func TestBuildUpdateDroppedLineReleasesStock(t *testing.T) {
	store, b := newFixture()
	order := existingOrder(
		OrderLine{ID: "l1", OrderID: "order-1", ProductID: "prod-a", Quantity: 2},
		OrderLine{ID: "l2", OrderID: "order-1", ProductID: "prod-b", Quantity: 3},
	)

	updated, err := b.BuildUpdate(context.Background(), order, baseInput(
		LineInput{ProductID: "prod-a", Quantity: 2},
	))
	require.NoError(t, err)
	require.Len(t, updated.Lines, 1)
	assert.Equal(t, "prod-a", updated.Lines[0].ProductID)
	assert.Equal(t, 8, store.products["prod-b"].Quantity, "dropped line fully released")
	assert.Equal(t, 8, store.products["prod-a"].Quantity, "unchanged line moves no stock")
}

func TestBuildUpdateNewLineConsumesStock(t *testing.T) {
	store, b := newFixture()
	order := existingOrder(OrderLine{ID: "l1", OrderID: "order-1", ProductID: "prod-a", Quantity: 2})

	updated, err := b.BuildUpdate(context.Background(), order, baseInput(
		LineInput{ProductID: "prod-a", Quantity: 2},
		LineInput{ProductID: "prod-b", Quantity: 4, Discount: dec("25")},
	))
	require.NoError(t, err)
	assert.Equal(t, 1, store.products["prod-b"].Quantity)

	// 2*10 + 4*5*0.75 = 35, discount 4*5*0.25 = 5
	assert.True(t, updated.TotalAmount.Equal(dec("35")), "total = %s", updated.TotalAmount)
	assert.True(t, updated.TotalDiscount.Equal(dec("5")))
}

func TestBuildUpdateEmptyLinesRejected(t *testing.T) {
	_, b := newFixture()
	order := existingOrder(OrderLine{ID: "l1", OrderID: "order-1", ProductID: "prod-a", Quantity: 2})
	_, err := b.BuildUpdate(context.Background(), order, baseInput())
	assert.True(t, errors.Is(err, ErrEmptyOrder))
}

func TestBuildUpdateKeepsDateWhenOmitted(t *testing.T) {
	_, b := newFixture()
	placed := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	order := existingOrder(OrderLine{ID: "l1", OrderID: "order-1", ProductID: "prod-a", Quantity: 2})
	order.OrderDate = placed

	in := baseInput(LineInput{ProductID: "prod-a", Quantity: 2})
	in.OrderDate = time.Time{}

	updated, err := b.BuildUpdate(context.Background(), order, in)
	require.NoError(t, err)
	assert.True(t, updated.OrderDate.Equal(placed), "placement date kept, got %s", updated.OrderDate)
}

func TestBuildUpdateExplicitDateWins(t *testing.T) {
	_, b := newFixture()
	order := existingOrder(OrderLine{ID: "l1", OrderID: "order-1", ProductID: "prod-a", Quantity: 2})
	order.OrderDate = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	moved := time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)
	in := baseInput(LineInput{ProductID: "prod-a", Quantity: 2})
	in.OrderDate = moved

	updated, err := b.BuildUpdate(context.Background(), order, in)
	require.NoError(t, err)
	assert.True(t, updated.OrderDate.Equal(moved))
}

func TestReleaseOrderStockRestoresQuantities(t *testing.T) {
	store, _ := newFixture()
	order := existingOrder(
		OrderLine{ID: "l1", OrderID: "order-1", ProductID: "prod-a", Quantity: 3},
		OrderLine{ID: "l2", OrderID: "order-1", ProductID: "prod-b", Quantity: 1},
	)

	require.NoError(t, ReleaseOrderStock(context.Background(), store, order))
	assert.Equal(t, 11, store.products["prod-a"].Quantity, "quantity up by exactly the line's 3")
	assert.Equal(t, 6, store.products["prod-b"].Quantity)
}

func TestReleaseOrderStockUnknownProduct(t *testing.T) {
	store, _ := newFixture()
	order := existingOrder(OrderLine{ID: "l1", OrderID: "order-1", ProductID: "prod-x", Quantity: 3})

	err := ReleaseOrderStock(context.Background(), store, order)
	var pnf *ProductNotFoundError
	require.ErrorAs(t, err, &pnf)
	assert.Equal(t, "prod-x", pnf.ProductID)
}

func TestBuildUpdateTotalsUseCurrentPrice(t *testing.T) {
	store, b := newFixture()
	// price changed since the order was placed
	store.products["prod-a"].SellingPrice = dec("12")
	order := existingOrder(OrderLine{ID: "l1", OrderID: "order-1", ProductID: "prod-a", Quantity: 2})

	updated, err := b.BuildUpdate(context.Background(), order, baseInput(
		LineInput{ProductID: "prod-a", Quantity: 2},
	))
	require.NoError(t, err)
	assert.True(t, updated.TotalAmount.Equal(dec("24")))
}
