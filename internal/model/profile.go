package model

import "time"

type Profile struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	FullName     string    `db:"full_name" json:"full_name"`
	Email        *string   `db:"email" json:"email"`
	Role         string    `db:"role" json:"role"`
	EmployeeCode *string   `db:"employee_code" json:"employee_code"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
