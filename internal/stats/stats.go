// Package stats derives the dashboard summary figures from a snapshot. Every
// function here is a pure derivation: the snapshot is never mutated, and the
// same snapshot with the same clock yields the same result.
package stats

import (
	"sort"
	"time"

	"github.com/rawnaqshop/dashboard-service/internal/model"
	"github.com/shopspring/decimal"
)

const DefaultLowStockThreshold = 5

// Options pin down the two inputs that would otherwise be ambient: the clock
// and the zone the today/this-month windows are evaluated in.
type Options struct {
	LowStockThreshold int
	Location          *time.Location
	Now               time.Time
}

func (o Options) normalized() Options {
	if o.LowStockThreshold <= 0 {
		o.LowStockThreshold = DefaultLowStockThreshold
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
	return o
}

type Summary struct {
	TotalProducts    int `json:"total_products"`
	ActiveProducts   int `json:"active_products"`
	TotalVariants    int `json:"total_variants"`
	LowStockProducts int `json:"low_stock_products"`
	OutOfStock       int `json:"out_of_stock_products"`

	TotalOrders     int `json:"total_orders"`
	PendingOrders   int `json:"pending_orders"`
	CompletedOrders int `json:"completed_orders"`
	CancelledOrders int `json:"cancelled_orders"`

	TotalCustomers int `json:"total_customers"`

	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	PendingRevenue    decimal.Decimal `json:"pending_revenue"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	TotalProfits      decimal.Decimal `json:"total_profits"`
	PendingProfits    decimal.Decimal `json:"pending_profits"`
	InventoryValue    decimal.Decimal `json:"inventory_value"`

	TodayOrders    int             `json:"today_orders"`
	TodayRevenue   decimal.Decimal `json:"today_revenue"`
	MonthlyRevenue decimal.Decimal `json:"monthly_revenue"`
	MonthlyProfits decimal.Decimal `json:"monthly_profits"`
}

func Compute(snap *model.Snapshot, opts Options) Summary {
	opts = opts.normalized()
	now := opts.Now.In(opts.Location)

	s := Summary{
		TotalProducts:     len(snap.Products),
		TotalOrders:       len(snap.Orders),
		TotalCustomers:    len(snap.Customers),
		TotalRevenue:      decimal.Zero,
		PendingRevenue:    decimal.Zero,
		AverageOrderValue: decimal.Zero,
		TotalProfits:      decimal.Zero,
		PendingProfits:    decimal.Zero,
		InventoryValue:    decimal.Zero,
		TodayRevenue:      decimal.Zero,
		MonthlyRevenue:    decimal.Zero,
		MonthlyProfits:    decimal.Zero,
	}

	for i := range snap.Products {
		p := &snap.Products[i]
		if p.IsActive {
			s.ActiveProducts++
		}
		s.TotalVariants += len(p.Variants)

		low, out := false, len(p.Variants) > 0
		for j := range p.Variants {
			v := &p.Variants[j]
			if v.StockQuantity < opts.LowStockThreshold {
				low = true
			}
			if v.StockQuantity > 0 {
				out = false
			}
			s.InventoryValue = s.InventoryValue.Add(
				decimal.NewFromInt(int64(v.StockQuantity)).Mul(decimal.NewFromFloat(v.CostPrice)))
		}
		if low {
			s.LowStockProducts++
		}
		if out {
			s.OutOfStock++
		}
	}

	orderTotal := decimal.Zero
	for i := range snap.Orders {
		o := &snap.Orders[i]
		amount := decimal.NewFromFloat(o.TotalAmount)
		orderTotal = orderTotal.Add(amount)

		switch {
		case o.Status == model.OrderStatusPending:
			s.PendingOrders++
			s.PendingRevenue = s.PendingRevenue.Add(amount)
		case o.Status == model.OrderStatusCancelled:
			s.CancelledOrders++
		case model.OrderRevenueCounts(o.Status):
			s.CompletedOrders++
			s.TotalRevenue = s.TotalRevenue.Add(amount)
		}

		created := o.CreatedAt.In(opts.Location)
		if sameDay(created, now) {
			s.TodayOrders++
			if model.OrderRevenueCounts(o.Status) {
				s.TodayRevenue = s.TodayRevenue.Add(amount)
			}
		}
		if sameMonth(created, now) && model.OrderRevenueCounts(o.Status) {
			s.MonthlyRevenue = s.MonthlyRevenue.Add(amount)
		}
	}
	if len(snap.Orders) > 0 {
		s.AverageOrderValue = orderTotal.Div(decimal.NewFromInt(int64(len(snap.Orders))))
	}

	for i := range snap.Profits {
		pr := &snap.Profits[i]
		amount := decimal.NewFromFloat(pr.ProfitAmount)
		switch pr.Status {
		case model.ProfitStatusCompleted:
			s.TotalProfits = s.TotalProfits.Add(amount)
			if sameMonth(pr.CreatedAt.In(opts.Location), now) {
				s.MonthlyProfits = s.MonthlyProfits.Add(amount)
			}
		case model.ProfitStatusPending:
			s.PendingProfits = s.PendingProfits.Add(amount)
		}
	}

	return s
}

type ProductSales struct {
	Product model.Product `json:"product"`
	Sold    int           `json:"sold"`
}

// TopProducts ranks products by units sold across all order items.
func TopProducts(snap *model.Snapshot, limit int) []ProductSales {
	variantProduct := make(map[int64]int64)
	for i := range snap.Products {
		for j := range snap.Products[i].Variants {
			variantProduct[snap.Products[i].Variants[j].ID] = snap.Products[i].ID
		}
	}

	sold := make(map[int64]int)
	for i := range snap.Orders {
		for _, item := range snap.Orders[i].Items {
			if item.ProductVariantID == nil {
				continue
			}
			if productID, ok := variantProduct[*item.ProductVariantID]; ok {
				sold[productID] += item.Quantity
			}
		}
	}

	out := make([]ProductSales, 0, len(sold))
	for i := range snap.Products {
		if n := sold[snap.Products[i].ID]; n > 0 {
			out = append(out, ProductSales{Product: snap.Products[i], Sold: n})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sold > out[j].Sold })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type CustomerSpend struct {
	Customer model.Customer  `json:"customer"`
	Total    decimal.Decimal `json:"total"`
}

// TopCustomers ranks customers by total order amount.
func TopCustomers(snap *model.Snapshot, limit int) []CustomerSpend {
	totals := make(map[int64]decimal.Decimal)
	for i := range snap.Orders {
		o := &snap.Orders[i]
		if o.CustomerID == nil {
			continue
		}
		totals[*o.CustomerID] = totals[*o.CustomerID].Add(decimal.NewFromFloat(o.TotalAmount))
	}

	out := make([]CustomerSpend, 0, len(totals))
	for i := range snap.Customers {
		if total, ok := totals[snap.Customers[i].ID]; ok && total.IsPositive() {
			out = append(out, CustomerSpend{Customer: snap.Customers[i], Total: total})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total.GreaterThan(out[j].Total) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func sameMonth(a, b time.Time) bool {
	ay, am, _ := a.Date()
	by, bm, _ := b.Date()
	return ay == by && am == bm
}
