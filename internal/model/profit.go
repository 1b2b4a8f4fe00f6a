package model

import "time"

const (
	ProfitStatusPending   = "pending"
	ProfitStatusCompleted = "completed"
)

// Profit is the per-order-item profit split between the selling employee and
// the manager share. Settlement flips status to completed and stamps SettledAt.
type Profit struct {
	ID               int64      `db:"id" json:"id"`
	OrderID          *int64     `db:"order_id" json:"order_id"`
	ProductVariantID *int64     `db:"product_variant_id" json:"product_variant_id"`
	EmployeeID       *string    `db:"employee_id" json:"employee_id"`
	ProfitAmount     float64    `db:"profit_amount" json:"profit_amount"`
	EmployeeProfit   float64    `db:"employee_profit" json:"employee_profit"`
	ManagerProfit    float64    `db:"manager_profit" json:"manager_profit"`
	Status           string     `db:"status" json:"status"`
	SettledAt        *time.Time `db:"settled_at" json:"settled_at"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`

	EmployeeName *string `db:"employee_name" json:"employee_name"` // Joined data
	OrderNumber  *string `db:"order_number" json:"order_number"`
}
