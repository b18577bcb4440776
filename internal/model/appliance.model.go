package model

import (
	"errors"
	"time"
)

type ApplianceCategory struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Manufacturer struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Appliance struct {
	ID             int64      `json:"id"`
	ClientID       int64      `json:"client_id"`
	CategoryID     int64      `json:"category_id"`
	ManufacturerID int64      `json:"manufacturer_id"`
	Model          string     `json:"model"`
	SerialNumber   string     `json:"serial_number"`
	PurchaseDate   *time.Time `json:"purchase_date,omitempty"`
	Notes          string     `json:"notes"`
	CreatedAt      time.Time  `json:"created_at"`

	Category     *ApplianceCategory `json:"category,omitempty"`
	Manufacturer *Manufacturer      `json:"manufacturer,omitempty"`
}

type ApplianceCreateRequest struct {
	ClientID       int64      `json:"client_id"`
	CategoryID     int64      `json:"category_id"`
	ManufacturerID int64      `json:"manufacturer_id"`
	Model          string     `json:"model"`
	SerialNumber   string     `json:"serial_number"`
	PurchaseDate   *time.Time `json:"purchase_date"`
	Notes          string     `json:"notes"`
}

func (p ApplianceCreateRequest) Validate() error {
	if p.ClientID == 0 {
		return errors.New("client_id is required")
	}
	if p.CategoryID == 0 {
		return errors.New("category_id is required")
	}
	if p.ManufacturerID == 0 {
		return errors.New("manufacturer_id is required")
	}
	return nil
}

type ApplianceFilter struct {
	ClientID          *int64
	ClientUserID      *int64
	BusinessPartnerID *int64
	Limit             int
	Offset            int
}
