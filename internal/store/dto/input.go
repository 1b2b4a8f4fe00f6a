package dto

type CreateProductInput struct {
	Name        string               `json:"name" binding:"required"`
	SKU         *string              `json:"sku"`
	Barcode     *string              `json:"barcode"`
	Description *string              `json:"description"`
	CategoryID  *int64               `json:"category_id"`
	BasePrice   float64              `json:"base_price"`
	CostPrice   *float64             `json:"cost_price"`
	CreatedBy   *string              `json:"created_by"`
	Variants    []CreateVariantInput `json:"variants"`
}

type CreateVariantInput struct {
	SKU           string  `json:"sku" binding:"required"`
	Barcode       *string `json:"barcode"`
	ColorID       *int64  `json:"color_id"`
	SizeID        *int64  `json:"size_id"`
	Price         float64 `json:"price"`
	CostPrice     float64 `json:"cost_price"`
	StockQuantity int     `json:"stock_quantity"`
}

// Update inputs carry pointers so absent fields leave the column untouched.
type UpdateProductInput struct {
	Name        *string  `json:"name"`
	SKU         *string  `json:"sku"`
	Barcode     *string  `json:"barcode"`
	Description *string  `json:"description"`
	CategoryID  *int64   `json:"category_id"`
	BasePrice   *float64 `json:"base_price"`
	CostPrice   *float64 `json:"cost_price"`
	IsActive    *bool    `json:"is_active"`
}

type CreateOrderInput struct {
	CustomerID       *int64                 `json:"customer_id"`
	CustomerName     string                 `json:"customer_name" binding:"required"`
	CustomerPhone    string                 `json:"customer_phone" binding:"required"`
	CustomerAddress  *string                `json:"customer_address"`
	CustomerCity     *string                `json:"customer_city"`
	CustomerProvince *string                `json:"customer_province"`
	Subtotal         float64                `json:"subtotal"`
	Discount         float64                `json:"discount"`
	DeliveryFee      float64                `json:"delivery_fee"`
	TotalAmount      float64                `json:"total_amount"`
	Notes            *string                `json:"notes"`
	CreatedBy        *string                `json:"created_by"`
	Items            []CreateOrderItemInput `json:"items" binding:"required"`
}

type CreateOrderItemInput struct {
	ProductVariantID *int64  `json:"product_variant_id"`
	ProductName      string  `json:"product_name" binding:"required"`
	SKU              string  `json:"sku"`
	ColorName        *string `json:"color_name"`
	SizeName         *string `json:"size_name"`
	Quantity         int     `json:"quantity" binding:"required"`
	UnitPrice        float64 `json:"unit_price"`
	CostPrice        float64 `json:"cost_price"`
	TotalPrice       float64 `json:"total_price"`
}

type UpdateOrderInput struct {
	Status         *string  `json:"status"`
	PaymentStatus  *string  `json:"payment_status"`
	TrackingNumber *string  `json:"tracking_number"`
	Notes          *string  `json:"notes"`
	IsArchived     *bool    `json:"is_archived"`
	AssignedTo     *string  `json:"assigned_to"`
	Discount       *float64 `json:"discount"`
	TotalAmount    *float64 `json:"total_amount"`
}

type CreateCustomerInput struct {
	Name      string  `json:"name" binding:"required"`
	Phone     string  `json:"phone" binding:"required"`
	Email     *string `json:"email"`
	Address   *string `json:"address"`
	City      *string `json:"city"`
	Province  *string `json:"province"`
	CreatedBy *string `json:"created_by"`
}

type UpdateCustomerInput struct {
	Name          *string `json:"name"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email"`
	Address       *string `json:"address"`
	City          *string `json:"city"`
	Province      *string `json:"province"`
	LoyaltyPoints *int    `json:"loyalty_points"`
	LoyaltyTier   *string `json:"loyalty_tier"`
	IsActive      *bool   `json:"is_active"`
}

type AdjustStockInput struct {
	ProductVariantID int64   `json:"product_variant_id" binding:"required"`
	QuantityChange   int     `json:"quantity_change" binding:"required"`
	ReservedChange   int     `json:"reserved_change"`
	Reason           string  `json:"reason"`
	ReferenceType    *string `json:"reference_type"` // 'manual_adjustment', 'sale', 'return'
	ReferenceID      *string `json:"reference_id"`
	UserID           string  `json:"user_id"`
}
