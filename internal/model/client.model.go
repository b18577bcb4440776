package model

import (
	"errors"
	"time"
)

type Client struct {
	ID                int64     `json:"id"`
	FullName          string    `json:"full_name"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone"`
	Address           string    `json:"address"`
	City              string    `json:"city"`
	PostalCode        string    `json:"postal_code"`
	CompanyName       string    `json:"company_name"`
	UserID            *int64    `json:"user_id,omitempty"`
	BusinessPartnerID *int64    `json:"business_partner_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

type ClientCreateRequest struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	City        string `json:"city"`
	PostalCode  string `json:"postal_code"`
	CompanyName string `json:"company_name"`
	UserID      *int64 `json:"user_id"`
}

func (p ClientCreateRequest) Validate() error {
	if p.FullName == "" {
		return errors.New("full_name is required")
	}
	if p.Phone == "" {
		return errors.New("phone is required")
	}
	return nil
}

type ClientFilter struct {
	UserID            *int64
	BusinessPartnerID *int64
	Search            string
	Limit             int
	Offset            int
}
