package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rawnaqshop/dashboard-service/internal/model"
	"github.com/rawnaqshop/dashboard-service/internal/store/dto"
)

type PGStore struct {
	DB *sqlx.DB
}

func NewPGStore(db *sqlx.DB) *PGStore {
	return &PGStore{DB: db}
}

func (r *PGStore) Departments(ctx context.Context) ([]model.Department, error) {
	var rows []model.Department
	query := `SELECT * FROM departments ORDER BY display_order`
	if err := r.DB.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PGStore) Categories(ctx context.Context) ([]model.Category, error) {
	var rows []model.Category
	query := `
        SELECT c.*, d.name AS department_name
        FROM categories c
        LEFT JOIN departments d ON d.id = c.department_id
        ORDER BY c.display_order
    `
	if err := r.DB.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PGStore) Colors(ctx context.Context) ([]model.Color, error) {
	var rows []model.Color
	query := `SELECT id, name, hex_code, display_order, is_active FROM colors ORDER BY display_order`
	if err := r.DB.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PGStore) Sizes(ctx context.Context) ([]model.Size, error) {
	var rows []model.Size
	query := `SELECT id, name, size_category, display_order, is_active FROM sizes ORDER BY display_order`
	if err := r.DB.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	return rows, nil
}

const variantColumns = `
    v.*, col.name AS color_name, col.hex_code AS color_hex, s.name AS size_name
`

// Products returns active products with their variants expanded, the same
// nested shape a dashboard screen consumes.
func (r *PGStore) Products(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	query := `
        SELECT p.*, c.name AS category_name
        FROM products p
        LEFT JOIN categories c ON c.id = p.category_id
        WHERE p.is_active = true
        ORDER BY p.created_at DESC
    `
	if err := r.DB.SelectContext(ctx, &products, query); err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return products, nil
	}

	var variants []model.ProductVariant
	variantQuery := fmt.Sprintf(`
        SELECT %s
        FROM product_variants v
        LEFT JOIN colors col ON col.id = v.color_id
        LEFT JOIN sizes s ON s.id = v.size_id
        WHERE v.product_id IN (SELECT id FROM products WHERE is_active = true)
        ORDER BY v.product_id, s.display_order
    `, variantColumns)
	if err := r.DB.SelectContext(ctx, &variants, variantQuery); err != nil {
		return nil, err
	}

	byProduct := make(map[int64][]model.ProductVariant, len(products))
	for _, v := range variants {
		byProduct[v.ProductID] = append(byProduct[v.ProductID], v)
	}
	for i := range products {
		products[i].Variants = byProduct[products[i].ID]
	}
	return products, nil
}

func (r *PGStore) Customers(ctx context.Context) ([]model.Customer, error) {
	var rows []model.Customer
	query := `SELECT * FROM customers ORDER BY created_at DESC`
	if err := r.DB.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PGStore) Orders(ctx context.Context) ([]model.Order, error) {
	var orders []model.Order
	query := `SELECT * FROM orders ORDER BY created_at DESC`
	if err := r.DB.SelectContext(ctx, &orders, query); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	var items []model.OrderItem
	itemQuery := `SELECT * FROM order_items ORDER BY order_id, id`
	if err := r.DB.SelectContext(ctx, &items, itemQuery); err != nil {
		return nil, err
	}

	byOrder := make(map[int64][]model.OrderItem, len(orders))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
	}
	return orders, nil
}

func (r *PGStore) Profits(ctx context.Context) ([]model.Profit, error) {
	var rows []model.Profit
	query := `
        SELECT pr.*, p.full_name AS employee_name, o.order_number
        FROM profits pr
        LEFT JOIN profiles p ON p.id = pr.employee_id
        LEFT JOIN orders o ON o.id = pr.order_id
        ORDER BY pr.created_at DESC
    `
	if err := r.DB.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PGStore) Profiles(ctx context.Context) ([]model.Profile, error) {
	var rows []model.Profile
	query := `SELECT * FROM profiles ORDER BY full_name`
	if err := r.DB.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PGStore) ProductByID(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	query := `
        SELECT p.*, c.name AS category_name
        FROM products p
        LEFT JOIN categories c ON c.id = p.category_id
        WHERE p.id = $1
        LIMIT 1
    `
	err := r.DB.GetContext(ctx, &product, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	variantQuery := fmt.Sprintf(`
        SELECT %s
        FROM product_variants v
        LEFT JOIN colors col ON col.id = v.color_id
        LEFT JOIN sizes s ON s.id = v.size_id
        WHERE v.product_id = $1
        ORDER BY s.display_order
    `, variantColumns)
	if err := r.DB.SelectContext(ctx, &product.Variants, variantQuery, id); err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *PGStore) VariantByID(ctx context.Context, id int64) (*model.ProductVariant, error) {
	var variant model.ProductVariant
	query := fmt.Sprintf(`
        SELECT %s
        FROM product_variants v
        LEFT JOIN colors col ON col.id = v.color_id
        LEFT JOIN sizes s ON s.id = v.size_id
        WHERE v.id = $1
        LIMIT 1
    `, variantColumns)
	err := r.DB.GetContext(ctx, &variant, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &variant, nil
}

func (r *PGStore) OrderByID(ctx context.Context, id int64) (*model.Order, error) {
	var order model.Order
	query := `SELECT * FROM orders WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &order, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	itemQuery := `SELECT * FROM order_items WHERE order_id = $1 ORDER BY id`
	if err := r.DB.SelectContext(ctx, &order.Items, itemQuery, id); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *PGStore) CustomerByID(ctx context.Context, id int64) (*model.Customer, error) {
	var customer model.Customer
	query := `SELECT * FROM customers WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &customer, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

func (r *PGStore) ProfileByID(ctx context.Context, id string) (*model.Profile, error) {
	var profile model.Profile
	query := `SELECT * FROM profiles WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &profile, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *PGStore) InsertProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var id int64
	query := `
        INSERT INTO products (
            category_id, sku, barcode, name, description,
            base_price, cost_price, is_active, created_by, created_at, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, true, $8, now(), now())
        RETURNING id
    `
	err = tx.QueryRowxContext(ctx, query,
		input.CategoryID, input.SKU, input.Barcode, input.Name, input.Description,
		input.BasePrice, input.CostPrice, input.CreatedBy,
	).Scan(&id)
	if err != nil {
		return nil, err
	}

	variantQuery := `
        INSERT INTO product_variants (
            product_id, color_id, size_id, sku, barcode, price, cost_price,
            stock_quantity, reserved_quantity, is_active, created_at, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, true, now(), now())
    `
	for _, v := range input.Variants {
		if _, err := tx.ExecContext(ctx, variantQuery,
			id, v.ColorID, v.SizeID, v.SKU, v.Barcode, v.Price, v.CostPrice, v.StockQuantity,
		); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return r.ProductByID(ctx, id)
}

func (r *PGStore) UpdateProduct(ctx context.Context, id int64, input *dto.UpdateProductInput) error {
	sets := []string{}
	args := map[string]interface{}{"id": id}

	if input.Name != nil {
		sets = append(sets, "name = :name")
		args["name"] = *input.Name
	}
	if input.SKU != nil {
		sets = append(sets, "sku = :sku")
		args["sku"] = *input.SKU
	}
	if input.Barcode != nil {
		sets = append(sets, "barcode = :barcode")
		args["barcode"] = *input.Barcode
	}
	if input.Description != nil {
		sets = append(sets, "description = :description")
		args["description"] = *input.Description
	}
	if input.CategoryID != nil {
		sets = append(sets, "category_id = :category_id")
		args["category_id"] = *input.CategoryID
	}
	if input.BasePrice != nil {
		sets = append(sets, "base_price = :base_price")
		args["base_price"] = *input.BasePrice
	}
	if input.CostPrice != nil {
		sets = append(sets, "cost_price = :cost_price")
		args["cost_price"] = *input.CostPrice
	}
	if input.IsActive != nil {
		sets = append(sets, "is_active = :is_active")
		args["is_active"] = *input.IsActive
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = now()")

	query := fmt.Sprintf("UPDATE products SET %s WHERE id = :id", strings.Join(sets, ", "))
	res, err := r.DB.NamedExecContext(ctx, query, args)
	if err != nil {
		return err
	}
	return requireRow(res, "product", id)
}

func (r *PGStore) InsertOrder(ctx context.Context, input *dto.CreateOrderInput) (*model.Order, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	order := model.Order{
		OrderNumber:      generateOrderNumber(),
		QRID:             uuid.New().String(),
		CustomerID:       input.CustomerID,
		CustomerName:     input.CustomerName,
		CustomerPhone:    input.CustomerPhone,
		CustomerAddress:  input.CustomerAddress,
		CustomerCity:     input.CustomerCity,
		CustomerProvince: input.CustomerProvince,
		Status:           model.OrderStatusPending,
		Subtotal:         input.Subtotal,
		Discount:         input.Discount,
		DeliveryFee:      input.DeliveryFee,
		TotalAmount:      input.TotalAmount,
		Notes:            input.Notes,
		CreatedBy:        input.CreatedBy,
	}

	query := `
        INSERT INTO orders (
            order_number, qr_id, customer_id, customer_name, customer_phone,
            customer_address, customer_city, customer_province, status,
            subtotal, discount, delivery_fee, total_amount, notes,
            is_archived, created_by, created_at, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, false, $15, now(), now())
        RETURNING id, created_at, updated_at
    `
	err = tx.QueryRowxContext(ctx, query,
		order.OrderNumber, order.QRID, order.CustomerID, order.CustomerName, order.CustomerPhone,
		order.CustomerAddress, order.CustomerCity, order.CustomerProvince, order.Status,
		order.Subtotal, order.Discount, order.DeliveryFee, order.TotalAmount, order.Notes,
		order.CreatedBy,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return nil, err
	}

	itemQuery := `
        INSERT INTO order_items (
            order_id, product_variant_id, product_name, sku, color_name, size_name,
            quantity, unit_price, cost_price, total_price, created_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
        RETURNING id, created_at
    `
	for _, in := range input.Items {
		item := model.OrderItem{
			OrderID:          order.ID,
			ProductVariantID: in.ProductVariantID,
			ProductName:      in.ProductName,
			SKU:              in.SKU,
			ColorName:        in.ColorName,
			SizeName:         in.SizeName,
			Quantity:         in.Quantity,
			UnitPrice:        in.UnitPrice,
			CostPrice:        in.CostPrice,
			TotalPrice:       in.TotalPrice,
		}
		err = tx.QueryRowxContext(ctx, itemQuery,
			item.OrderID, item.ProductVariantID, item.ProductName, item.SKU, item.ColorName,
			item.SizeName, item.Quantity, item.UnitPrice, item.CostPrice, item.TotalPrice,
		).Scan(&item.ID, &item.CreatedAt)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}

	// Aggregate counters on the customer row live server-side with the order.
	if order.CustomerID != nil {
		counterQuery := `
            UPDATE customers
            SET total_orders = total_orders + 1,
                total_spent = total_spent + $1,
                last_order_date = now(),
                updated_at = now()
            WHERE id = $2
        `
		if _, err := tx.ExecContext(ctx, counterQuery, order.TotalAmount, *order.CustomerID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *PGStore) UpdateOrder(ctx context.Context, id int64, input *dto.UpdateOrderInput) error {
	sets := []string{}
	args := map[string]interface{}{"id": id}

	if input.Status != nil {
		sets = append(sets, "status = :status")
		args["status"] = *input.Status
	}
	if input.PaymentStatus != nil {
		sets = append(sets, "payment_status = :payment_status")
		args["payment_status"] = *input.PaymentStatus
	}
	if input.TrackingNumber != nil {
		sets = append(sets, "tracking_number = :tracking_number")
		args["tracking_number"] = *input.TrackingNumber
	}
	if input.Notes != nil {
		sets = append(sets, "notes = :notes")
		args["notes"] = *input.Notes
	}
	if input.IsArchived != nil {
		sets = append(sets, "is_archived = :is_archived")
		args["is_archived"] = *input.IsArchived
	}
	if input.AssignedTo != nil {
		sets = append(sets, "assigned_to = :assigned_to")
		args["assigned_to"] = *input.AssignedTo
	}
	if input.Discount != nil {
		sets = append(sets, "discount = :discount")
		args["discount"] = *input.Discount
	}
	if input.TotalAmount != nil {
		sets = append(sets, "total_amount = :total_amount")
		args["total_amount"] = *input.TotalAmount
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = now()")

	query := fmt.Sprintf("UPDATE orders SET %s WHERE id = :id", strings.Join(sets, ", "))
	res, err := r.DB.NamedExecContext(ctx, query, args)
	if err != nil {
		return err
	}
	return requireRow(res, "order", id)
}

func (r *PGStore) InsertCustomer(ctx context.Context, input *dto.CreateCustomerInput) (*model.Customer, error) {
	customer := model.Customer{
		Name:      input.Name,
		Phone:     input.Phone,
		Email:     input.Email,
		Address:   input.Address,
		City:      input.City,
		Province:  input.Province,
		IsActive:  true,
		CreatedBy: input.CreatedBy,
	}
	query := `
        INSERT INTO customers (
            name, phone, email, address, city, province,
            loyalty_points, total_orders, total_spent, is_active, created_by,
            created_at, updated_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, 0, 0, 0, true, $7, now(), now())
        RETURNING id, created_at, updated_at
    `
	err := r.DB.QueryRowxContext(ctx, query,
		customer.Name, customer.Phone, customer.Email, customer.Address,
		customer.City, customer.Province, customer.CreatedBy,
	).Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *PGStore) UpdateCustomer(ctx context.Context, id int64, input *dto.UpdateCustomerInput) error {
	sets := []string{}
	args := map[string]interface{}{"id": id}

	if input.Name != nil {
		sets = append(sets, "name = :name")
		args["name"] = *input.Name
	}
	if input.Phone != nil {
		sets = append(sets, "phone = :phone")
		args["phone"] = *input.Phone
	}
	if input.Email != nil {
		sets = append(sets, "email = :email")
		args["email"] = *input.Email
	}
	if input.Address != nil {
		sets = append(sets, "address = :address")
		args["address"] = *input.Address
	}
	if input.City != nil {
		sets = append(sets, "city = :city")
		args["city"] = *input.City
	}
	if input.Province != nil {
		sets = append(sets, "province = :province")
		args["province"] = *input.Province
	}
	if input.LoyaltyPoints != nil {
		sets = append(sets, "loyalty_points = :loyalty_points")
		args["loyalty_points"] = *input.LoyaltyPoints
	}
	if input.LoyaltyTier != nil {
		sets = append(sets, "loyalty_tier = :loyalty_tier")
		args["loyalty_tier"] = *input.LoyaltyTier
	}
	if input.IsActive != nil {
		sets = append(sets, "is_active = :is_active")
		args["is_active"] = *input.IsActive
	}
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = now()")

	query := fmt.Sprintf("UPDATE customers SET %s WHERE id = :id", strings.Join(sets, ", "))
	res, err := r.DB.NamedExecContext(ctx, query, args)
	if err != nil {
		return err
	}
	return requireRow(res, "customer", id)
}

func (r *PGStore) UpsertSetting(ctx context.Context, key string, value json.RawMessage) error {
	query := `
        INSERT INTO settings (id, key, value, created_at, updated_at)
        VALUES ($1, $2, $3, now(), now())
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
    `
	_, err := r.DB.ExecContext(ctx, query, uuid.New().String(), key, []byte(value))
	return err
}

// AdjustVariantStock writes the new quantities and the movement log in one
// transaction, mirroring how the remote side keeps the audit trail consistent
// with the stock row.
func (r *PGStore) AdjustVariantStock(ctx context.Context, variant *model.ProductVariant, movement *model.InventoryMovement) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	updateQuery := `
        UPDATE product_variants
        SET stock_quantity = $1, reserved_quantity = $2, updated_at = now()
        WHERE id = $3
    `
	res, err := tx.ExecContext(ctx, updateQuery, variant.StockQuantity, variant.ReservedQuantity, variant.ID)
	if err != nil {
		return err
	}
	if err := requireRow(res, "variant", variant.ID); err != nil {
		return err
	}

	movementQuery := `
        INSERT INTO inventory_movements (
            id, product_variant_id, movement_type, quantity_change,
            quantity_before, quantity_after, reference_type, reference_id,
            notes, created_by, created_at
        )
        VALUES (
            :id, :product_variant_id, :movement_type, :quantity_change,
            :quantity_before, :quantity_after, :reference_type, :reference_id,
            :notes, :created_by, :created_at
        )
    `
	if _, err := tx.NamedExecContext(ctx, movementQuery, movement); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *PGStore) InsertNotification(ctx context.Context, n *model.Notification) error {
	query := `
        INSERT INTO notifications (id, user_id, title, message, type, is_read, created_at)
        VALUES (:id, :user_id, :title, :message, :type, :is_read, :created_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, n)
	return err
}

func requireRow(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d not found", entity, id)
	}
	return nil
}

func generateOrderNumber() string {
	// ORD-YYMMDD-XXXX, unique enough per day for the dashboard's volume; the
	// column carries a unique constraint as the real guard.
	suffix := strings.ToUpper(uuid.New().String()[:4])
	return fmt.Sprintf("ORD-%s-%s", time.Now().Format("060102"), suffix)
}
