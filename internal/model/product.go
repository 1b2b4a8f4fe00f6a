package model

import "time"

type Product struct {
	ID          int64     `db:"id" json:"id"`
	CategoryID  *int64    `db:"category_id" json:"category_id"` // Nullable
	SKU         *string   `db:"sku" json:"sku"`
	Barcode     *string   `db:"barcode" json:"barcode"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description"`
	BasePrice   float64   `db:"base_price" json:"base_price"`
	CostPrice   *float64  `db:"cost_price" json:"cost_price"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedBy   *string   `db:"created_by" json:"created_by"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	Variants     []ProductVariant `db:"-" json:"variants"`      // Not in DB table directly
	CategoryName *string          `db:"category_name" json:"category_name"` // Joined data
}

type ProductVariant struct {
	ID               int64     `db:"id" json:"id"`
	ProductID        int64     `db:"product_id" json:"product_id"`
	ColorID          *int64    `db:"color_id" json:"color_id"`
	SizeID           *int64    `db:"size_id" json:"size_id"`
	SKU              string    `db:"sku" json:"sku"`
	Barcode          *string   `db:"barcode" json:"barcode"`
	Price            float64   `db:"price" json:"price"`
	CostPrice        float64   `db:"cost_price" json:"cost_price"`
	StockQuantity    int       `db:"stock_quantity" json:"stock_quantity"`
	ReservedQuantity int       `db:"reserved_quantity" json:"reserved_quantity"`
	IsActive         bool      `db:"is_active" json:"is_active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`

	ColorName *string `db:"color_name" json:"color_name"` // Joined data
	ColorHex  *string `db:"color_hex" json:"color_hex"`
	SizeName  *string `db:"size_name" json:"size_name"`
}

// Available is the sellable quantity after reservations.
func (v *ProductVariant) Available() int {
	return v.StockQuantity - v.ReservedQuantity
}

type InventoryMovement struct {
	ID               string    `db:"id" json:"id"`
	ProductVariantID int64     `db:"product_variant_id" json:"product_variant_id"`
	MovementType     string    `db:"movement_type" json:"movement_type"`
	QuantityChange   int       `db:"quantity_change" json:"quantity_change"`
	QuantityBefore   int       `db:"quantity_before" json:"quantity_before"`
	QuantityAfter    int       `db:"quantity_after" json:"quantity_after"`
	ReferenceType    *string   `db:"reference_type" json:"reference_type"`
	ReferenceID      *string   `db:"reference_id" json:"reference_id"`
	Notes            string    `db:"notes" json:"notes"`
	CreatedBy        *string   `db:"created_by" json:"created_by"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}
