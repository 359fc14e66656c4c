package shop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListOrderBy(t *testing.T) {
	assert.Equal(t, "o.order_date ASC", listOrderBy("date", false))
	assert.Equal(t, "o.total_amount DESC", listOrderBy("total", true))
	assert.Equal(t, "c.name ASC", listOrderBy("Customer", false))

	// unrecognized fields fall back to the default, never reflect
	assert.Equal(t, "o.order_date ASC", listOrderBy("drop table orders", true))
	assert.Equal(t, "o.order_date ASC", listOrderBy("", false))
}

func TestProductOrderBy(t *testing.T) {
	assert.Equal(t, "selling_price DESC", productOrderBy("price", true))
	assert.Equal(t, "name ASC", productOrderBy("bogus", false))
}

func TestBuildOrderFiltersEmpty(t *testing.T) {
	where, args := buildOrderFilters(OrderQuery{})
	assert.Empty(t, where)
	assert.Nil(t, args)
}

func TestBuildOrderFiltersAll(t *testing.T) {
	min := dec("10")
	max := dec("100")
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)

	where, args := buildOrderFilters(OrderQuery{
		Search:    "widget",
		MinAmount: &min,
		MaxAmount: &max,
		StartDate: &start,
		EndDate:   &end,
	})

	require.Len(t, args, 5)
	assert.Contains(t, where, "WHERE ")
	assert.Contains(t, where, "$1")
	assert.Contains(t, where, "o.total_amount >= $2")
	assert.Contains(t, where, "o.total_amount <= $3")
	assert.Contains(t, where, "o.order_date >= $4")
	assert.Contains(t, where, "o.order_date <= $5")
	assert.Equal(t, "widget", args[0])
}

func TestBuildOrderFiltersSearchMatchesProductsToo(t *testing.T) {
	where, args := buildOrderFilters(OrderQuery{Search: "sugar"})
	require.Len(t, args, 1)
	assert.Contains(t, where, "c.name ILIKE")
	assert.Contains(t, where, "p.name ILIKE")
}

func TestPaginationNormalize(t *testing.T) {
	p := Pagination{}.normalize()
	assert.Equal(t, 1, p.PageNumber)
	assert.Equal(t, 20, p.PageSize)

	p = Pagination{PageNumber: 3, PageSize: 50}.normalize()
	assert.Equal(t, 3, p.PageNumber)
	assert.Equal(t, 50, p.PageSize)

	p = Pagination{PageNumber: -1, PageSize: 10_000}.normalize()
	assert.Equal(t, 1, p.PageNumber)
	assert.Equal(t, 20, p.PageSize)
}
