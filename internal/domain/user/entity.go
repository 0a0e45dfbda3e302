package user

import "time"

type User struct {
	ID           string
	CompanyID    string
	EmployeeID   *string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Role string

const (
	RoleHR       Role = "hr"
	RoleEmployee Role = "employee"
)
