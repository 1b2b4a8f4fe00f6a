package model

import "time"

type Department struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Description  *string   `db:"description" json:"description"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

type Category struct {
	ID           int64     `db:"id" json:"id"`
	DepartmentID *int64    `db:"department_id" json:"department_id"` // Nullable
	Name         string    `db:"name" json:"name"`
	Description  *string   `db:"description" json:"description"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	DepartmentName *string `db:"department_name" json:"department_name"` // Joined data
}

type Color struct {
	ID           int64   `db:"id" json:"id"`
	Name         string  `db:"name" json:"name"`
	HexCode      *string `db:"hex_code" json:"hex_code"`
	DisplayOrder int     `db:"display_order" json:"display_order"`
	IsActive     bool    `db:"is_active" json:"is_active"`
}

type Size struct {
	ID           int64   `db:"id" json:"id"`
	Name         string  `db:"name" json:"name"`
	SizeCategory *string `db:"size_category" json:"size_category"`
	DisplayOrder int     `db:"display_order" json:"display_order"`
	IsActive     bool    `db:"is_active" json:"is_active"`
}
