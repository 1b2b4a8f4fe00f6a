// Package access centralizes role-based row filtering. Filter is the single
// place permitted-rows logic lives; it runs once at the cache-read boundary
// instead of being re-implemented per consumer.
package access

import "github.com/rawnaqshop/dashboard-service/internal/model"

type Role string

const (
	RoleAdmin             Role = "admin"
	RoleDepartmentManager Role = "department_manager"
	RoleEmployee          Role = "employee"
	RoleSalesEmployee     Role = "sales_employee"
	RoleWarehouseEmployee Role = "warehouse_employee"
	RoleCashier           Role = "cashier"
)

type Permission string

const (
	PermManageProducts  Permission = "manage_products"
	PermManageOrders    Permission = "manage_orders"
	PermManageInventory Permission = "manage_inventory"
	PermManageEmployees Permission = "manage_employees"
	PermViewReports     Permission = "view_reports"
	PermViewFinances    Permission = "view_finances"
	PermViewAllData     Permission = "view_all_data"
)

var rolePermissions = map[Role][]Permission{
	RoleAdmin: {
		PermManageProducts, PermManageOrders, PermManageInventory,
		PermManageEmployees, PermViewReports, PermViewFinances, PermViewAllData,
	},
	RoleDepartmentManager: {
		PermManageProducts, PermManageOrders, PermManageInventory,
		PermViewReports, PermViewAllData,
	},
	RoleSalesEmployee:     {PermManageOrders},
	RoleCashier:           {PermManageOrders},
	RoleWarehouseEmployee: {PermManageInventory},
	RoleEmployee:          {},
}

// Viewer identifies the caller a read or write happens on behalf of. The zero
// Viewer is an anonymous caller with no permissions and no owned rows.
type Viewer struct {
	UserID string
	Role   Role
}

func (v Viewer) Can(p Permission) bool {
	for _, perm := range rolePermissions[v.Role] {
		if perm == p {
			return true
		}
	}
	return false
}

func (v Viewer) ViewAll() bool {
	return v.Can(PermViewAllData)
}

// Filter returns the rows the viewer may see. Viewers with view_all_data get
// the snapshot unchanged; everyone else sees rows they created (orders also
// rows assigned to them, profits their own share). Catalog dimensions and the
// employee directory pass through for all viewers.
func Filter(snap *model.Snapshot, v Viewer) *model.Snapshot {
	if snap == nil {
		return nil
	}
	if v.ViewAll() {
		return snap
	}

	out := snap.Clone()

	products := make([]model.Product, 0, len(snap.Products))
	for _, p := range snap.Products {
		if ownedBy(p.CreatedBy, v.UserID) {
			products = append(products, p)
		}
	}
	out.Products = products

	orders := make([]model.Order, 0, len(snap.Orders))
	for _, o := range snap.Orders {
		if ownedBy(o.CreatedBy, v.UserID) || ownedBy(o.AssignedTo, v.UserID) {
			orders = append(orders, o)
		}
	}
	out.Orders = orders

	customers := make([]model.Customer, 0, len(snap.Customers))
	for _, c := range snap.Customers {
		if ownedBy(c.CreatedBy, v.UserID) {
			customers = append(customers, c)
		}
	}
	out.Customers = customers

	profits := make([]model.Profit, 0, len(snap.Profits))
	for _, p := range snap.Profits {
		if ownedBy(p.EmployeeID, v.UserID) {
			profits = append(profits, p)
		}
	}
	out.Profits = profits

	return out
}

func ownedBy(owner *string, userID string) bool {
	return owner != nil && userID != "" && *owner == userID
}
