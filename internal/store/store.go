// Package store is the access layer for the remote relational store. The
// Store interface mirrors the table-scoped surface of the hosted backend's
// client SDK: bulk reads with server-side sorting and nested-relation
// expansion, plus single-row writes. The snapshot provider is its only
// consumer; nothing above this package builds SQL.
package store

import (
	"context"
	"encoding/json"

	"github.com/rawnaqshop/dashboard-service/internal/model"
	"github.com/rawnaqshop/dashboard-service/internal/store/dto"
)

type Store interface {
	// Bulk reads, one per logical entity of the snapshot.
	Departments(ctx context.Context) ([]model.Department, error)
	Categories(ctx context.Context) ([]model.Category, error)
	Colors(ctx context.Context) ([]model.Color, error)
	Sizes(ctx context.Context) ([]model.Size, error)
	Products(ctx context.Context) ([]model.Product, error)
	Customers(ctx context.Context) ([]model.Customer, error)
	Orders(ctx context.Context) ([]model.Order, error)
	Profits(ctx context.Context) ([]model.Profit, error)
	Profiles(ctx context.Context) ([]model.Profile, error)

	// Single-row reads used to hydrate optimistic patches.
	ProductByID(ctx context.Context, id int64) (*model.Product, error)
	VariantByID(ctx context.Context, id int64) (*model.ProductVariant, error)
	OrderByID(ctx context.Context, id int64) (*model.Order, error)
	CustomerByID(ctx context.Context, id int64) (*model.Customer, error)
	ProfileByID(ctx context.Context, id string) (*model.Profile, error)

	// Single-row writes.
	InsertProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, id int64, input *dto.UpdateProductInput) error
	InsertOrder(ctx context.Context, input *dto.CreateOrderInput) (*model.Order, error)
	UpdateOrder(ctx context.Context, id int64, input *dto.UpdateOrderInput) error
	InsertCustomer(ctx context.Context, input *dto.CreateCustomerInput) (*model.Customer, error)
	UpdateCustomer(ctx context.Context, id int64, input *dto.UpdateCustomerInput) error
	UpsertSetting(ctx context.Context, key string, value json.RawMessage) error
	AdjustVariantStock(ctx context.Context, variant *model.ProductVariant, movement *model.InventoryMovement) error
	InsertNotification(ctx context.Context, n *model.Notification) error
}
