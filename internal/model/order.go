package model

import "time"

// Order statuses as stored by the remote side.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// OrderRevenueCounts reports whether an order contributes to revenue totals.
func OrderRevenueCounts(status string) bool {
	return status == OrderStatusCompleted || status == OrderStatusDelivered
}

type Order struct {
	ID               int64     `db:"id" json:"id"`
	OrderNumber      string    `db:"order_number" json:"order_number"`
	QRID             string    `db:"qr_id" json:"qr_id"`
	CustomerID       *int64    `db:"customer_id" json:"customer_id"`
	CustomerName     string    `db:"customer_name" json:"customer_name"`
	CustomerPhone    string    `db:"customer_phone" json:"customer_phone"`
	CustomerAddress  *string   `db:"customer_address" json:"customer_address"`
	CustomerCity     *string   `db:"customer_city" json:"customer_city"`
	CustomerProvince *string   `db:"customer_province" json:"customer_province"`
	Status           string    `db:"status" json:"status"`
	PaymentStatus    *string   `db:"payment_status" json:"payment_status"`
	Subtotal         float64   `db:"subtotal" json:"subtotal"`
	Discount         float64   `db:"discount" json:"discount"`
	DeliveryFee      float64   `db:"delivery_fee" json:"delivery_fee"`
	TotalAmount      float64   `db:"total_amount" json:"total_amount"`
	Notes            *string   `db:"notes" json:"notes"`
	TrackingNumber   *string   `db:"tracking_number" json:"tracking_number"`
	IsArchived       bool      `db:"is_archived" json:"is_archived"`
	CreatedBy        *string   `db:"created_by" json:"created_by"`
	AssignedTo       *string   `db:"assigned_to" json:"assigned_to"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`

	Items []OrderItem `db:"-" json:"items"` // Not in DB table directly
}

type OrderItem struct {
	ID               int64     `db:"id" json:"id"`
	OrderID          int64     `db:"order_id" json:"order_id"`
	ProductVariantID *int64    `db:"product_variant_id" json:"product_variant_id"`
	ProductName      string    `db:"product_name" json:"product_name"`
	SKU              string    `db:"sku" json:"sku"`
	ColorName        *string   `db:"color_name" json:"color_name"`
	SizeName         *string   `db:"size_name" json:"size_name"`
	Quantity         int       `db:"quantity" json:"quantity"`
	UnitPrice        float64   `db:"unit_price" json:"unit_price"`
	CostPrice        float64   `db:"cost_price" json:"cost_price"`
	TotalPrice       float64   `db:"total_price" json:"total_price"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}
