package model

import "time"

type Customer struct {
	ID            int64      `db:"id" json:"id"`
	Name          string     `db:"name" json:"name"`
	Phone         string     `db:"phone" json:"phone"`
	Email         *string    `db:"email" json:"email"`
	Address       *string    `db:"address" json:"address"`
	City          *string    `db:"city" json:"city"`
	Province      *string    `db:"province" json:"province"`
	LoyaltyPoints int        `db:"loyalty_points" json:"loyalty_points"`
	LoyaltyTier   *string    `db:"loyalty_tier" json:"loyalty_tier"`
	TotalOrders   int        `db:"total_orders" json:"total_orders"`
	TotalSpent    float64    `db:"total_spent" json:"total_spent"`
	LastOrderDate *time.Time `db:"last_order_date" json:"last_order_date"`
	IsActive      bool       `db:"is_active" json:"is_active"`
	CreatedBy     *string    `db:"created_by" json:"created_by"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}
