package model

import (
	"errors"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin           Role = "admin"
	RoleTechnician      Role = "technician"
	RoleCustomer        Role = "customer"
	RoleBusinessPartner Role = "business_partner"
	RoleSupplierAdmin   Role = "supplier_admin"
	RoleSupplierStaff   Role = "supplier_staff"
)

const supplierRolePrefix = "supplier_"

// IsSupplier reports whether the role belongs to a parts supplier account.
func (r Role) IsSupplier() bool {
	return strings.HasPrefix(string(r), supplierRolePrefix)
}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTechnician, RoleCustomer, RoleBusinessPartner:
		return true
	}
	return r.IsSupplier() && len(r) > len(supplierRolePrefix)
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	FullName     string    `json:"full_name"`
	SupplierName string    `json:"supplier_name,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

type UserCreateRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Role         Role   `json:"role"`
	FullName     string `json:"full_name"`
	SupplierName string `json:"supplier_name"`
}

func (p UserCreateRequest) Validate() error {
	if p.Username == "" {
		return errors.New("username is required")
	}
	if len(p.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if !p.Role.Valid() {
		return errors.New("role is invalid")
	}
	if p.Role.IsSupplier() && p.SupplierName == "" {
		return errors.New("supplier_name is required for supplier roles")
	}
	return nil
}

type UserFilter struct {
	Role   *Role
	Active *bool
	Limit  int
	Offset int
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      *User     `json:"user"`
}
