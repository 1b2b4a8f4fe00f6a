package stats

import (
	"testing"
	"time"

	"github.com/rawnaqshop/dashboard-service/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)
}

func orderAt(id int64, status string, amount float64, created time.Time) model.Order {
	return model.Order{ID: id, Status: status, TotalAmount: amount, CreatedAt: created}
}

func TestCompute_OrderAndRevenueCounters(t *testing.T) {
	now := fixedNow()
	snap := &model.Snapshot{
		Orders: []model.Order{
			orderAt(1, model.OrderStatusCompleted, 100, now.AddDate(0, 0, -10)),
			orderAt(2, model.OrderStatusPending, 50, now.AddDate(0, 0, -10)),
			orderAt(3, model.OrderStatusCompleted, 200, now.AddDate(0, 0, -10)),
		},
	}

	s := Compute(snap, Options{Now: now})

	assert.Equal(t, 3, s.TotalOrders)
	assert.Equal(t, 1, s.PendingOrders)
	assert.Equal(t, 2, s.CompletedOrders)
	assert.Equal(t, 0, s.CancelledOrders)
	assert.True(t, s.TotalRevenue.Equal(decimal.NewFromInt(300)), "got %s", s.TotalRevenue)
	assert.True(t, s.PendingRevenue.Equal(decimal.NewFromInt(50)))
	// Average spans all orders regardless of status: 350 / 3.
	want := decimal.NewFromInt(350).Div(decimal.NewFromInt(3))
	assert.True(t, s.AverageOrderValue.Equal(want))
}

func TestCompute_DeliveredCountsAsRevenue(t *testing.T) {
	now := fixedNow()
	snap := &model.Snapshot{
		Orders: []model.Order{
			orderAt(1, model.OrderStatusDelivered, 80, now.AddDate(0, 0, -3)),
			orderAt(2, model.OrderStatusCancelled, 999, now.AddDate(0, 0, -3)),
		},
	}

	s := Compute(snap, Options{Now: now})

	assert.Equal(t, 1, s.CompletedOrders)
	assert.Equal(t, 1, s.CancelledOrders)
	assert.True(t, s.TotalRevenue.Equal(decimal.NewFromInt(80)))
}

func TestCompute_StockCounters(t *testing.T) {
	snap := &model.Snapshot{
		Products: []model.Product{
			{ID: 1, IsActive: true, Variants: []model.ProductVariant{
				{ID: 10, StockQuantity: 3, CostPrice: 2},
				{ID: 11, StockQuantity: 10, CostPrice: 1},
			}},
			{ID: 2, IsActive: true, Variants: []model.ProductVariant{
				{ID: 20, StockQuantity: 0, CostPrice: 4},
			}},
			{ID: 3, IsActive: false},
		},
	}

	s := Compute(snap, Options{LowStockThreshold: 5, Now: fixedNow()})

	assert.Equal(t, 3, s.TotalProducts)
	assert.Equal(t, 2, s.ActiveProducts)
	assert.Equal(t, 3, s.TotalVariants)
	// Product 1 has one variant under threshold; product 2 is both low and out.
	assert.Equal(t, 2, s.LowStockProducts)
	assert.Equal(t, 1, s.OutOfStock)
	// 3*2 + 10*1 + 0*4 = 16
	assert.True(t, s.InventoryValue.Equal(decimal.NewFromInt(16)), "got %s", s.InventoryValue)
}

func TestCompute_TimeWindowsUseLocation(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Baghdad")
	require.NoError(t, err)

	// 22:00 UTC June 14 is already June 15 in Baghdad (UTC+3).
	lateYesterday := time.Date(2025, 6, 14, 22, 0, 0, 0, time.UTC)
	now := time.Date(2025, 6, 15, 4, 0, 0, 0, time.UTC)

	snap := &model.Snapshot{
		Orders: []model.Order{
			orderAt(1, model.OrderStatusCompleted, 100, lateYesterday),
			orderAt(2, model.OrderStatusCompleted, 40, now.AddDate(0, -1, 0)),
		},
	}

	utc := Compute(snap, Options{Now: now, Location: time.UTC})
	assert.Equal(t, 0, utc.TodayOrders)

	baghdad := Compute(snap, Options{Now: now, Location: loc})
	assert.Equal(t, 1, baghdad.TodayOrders)
	assert.True(t, baghdad.TodayRevenue.Equal(decimal.NewFromInt(100)))
	assert.True(t, baghdad.MonthlyRevenue.Equal(decimal.NewFromInt(100)))
}

func TestCompute_ProfitBuckets(t *testing.T) {
	now := fixedNow()
	snap := &model.Snapshot{
		Profits: []model.Profit{
			{ID: 1, Status: model.ProfitStatusCompleted, ProfitAmount: 30, CreatedAt: now.AddDate(0, 0, -1)},
			{ID: 2, Status: model.ProfitStatusCompleted, ProfitAmount: 20, CreatedAt: now.AddDate(0, -2, 0)},
			{ID: 3, Status: model.ProfitStatusPending, ProfitAmount: 15, CreatedAt: now},
		},
	}

	s := Compute(snap, Options{Now: now})

	assert.True(t, s.TotalProfits.Equal(decimal.NewFromInt(50)))
	assert.True(t, s.PendingProfits.Equal(decimal.NewFromInt(15)))
	assert.True(t, s.MonthlyProfits.Equal(decimal.NewFromInt(30)))
}

func TestCompute_IsIdempotent(t *testing.T) {
	now := fixedNow()
	snap := &model.Snapshot{
		Products: []model.Product{{ID: 1, IsActive: true, Variants: []model.ProductVariant{{ID: 10, StockQuantity: 7, CostPrice: 3}}}},
		Orders:   []model.Order{orderAt(1, model.OrderStatusCompleted, 120, now)},
		Profits:  []model.Profit{{ID: 1, Status: model.ProfitStatusPending, ProfitAmount: 10, CreatedAt: now}},
	}

	first := Compute(snap, Options{Now: now})
	second := Compute(snap, Options{Now: now})
	assert.Equal(t, first, second)
}

func TestTopProducts(t *testing.T) {
	v10, v20 := int64(10), int64(20)
	snap := &model.Snapshot{
		Products: []model.Product{
			{ID: 1, Name: "shirt", Variants: []model.ProductVariant{{ID: 10, ProductID: 1}}},
			{ID: 2, Name: "jacket", Variants: []model.ProductVariant{{ID: 20, ProductID: 2}}},
			{ID: 3, Name: "never sold"},
		},
		Orders: []model.Order{
			{ID: 1, Items: []model.OrderItem{
				{ProductVariantID: &v10, Quantity: 2},
				{ProductVariantID: &v20, Quantity: 5},
			}},
			{ID: 2, Items: []model.OrderItem{{ProductVariantID: &v10, Quantity: 1}}},
		},
	}

	top := TopProducts(snap, 5)
	require.Len(t, top, 2)
	assert.Equal(t, "jacket", top[0].Product.Name)
	assert.Equal(t, 5, top[0].Sold)
	assert.Equal(t, "shirt", top[1].Product.Name)
	assert.Equal(t, 3, top[1].Sold)

	assert.Len(t, TopProducts(snap, 1), 1)
}

func TestTopCustomers(t *testing.T) {
	c1, c2 := int64(1), int64(2)
	snap := &model.Snapshot{
		Customers: []model.Customer{
			{ID: 1, Name: "amira"},
			{ID: 2, Name: "karim"},
			{ID: 3, Name: "no orders"},
		},
		Orders: []model.Order{
			{ID: 1, CustomerID: &c1, TotalAmount: 100},
			{ID: 2, CustomerID: &c2, TotalAmount: 250},
			{ID: 3, CustomerID: &c1, TotalAmount: 75},
		},
	}

	top := TopCustomers(snap, 5)
	require.Len(t, top, 2)
	assert.Equal(t, "karim", top[0].Customer.Name)
	assert.True(t, top[0].Total.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, "amira", top[1].Customer.Name)
	assert.True(t, top[1].Total.Equal(decimal.NewFromInt(175)))
}
