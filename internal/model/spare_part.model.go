package model

import (
	"errors"
	"time"
)

type Availability string

const (
	AvailabilityAvailable    Availability = "available"
	AvailabilityOutOfStock   Availability = "out_of_stock"
	AvailabilityOnOrder      Availability = "on_order"
	AvailabilityDiscontinued Availability = "discontinued"
)

func (a Availability) Valid() bool {
	switch a {
	case AvailabilityAvailable, AvailabilityOutOfStock, AvailabilityOnOrder, AvailabilityDiscontinued:
		return true
	}
	return false
}

type SourceType string

const (
	SourceManual  SourceType = "manual"
	SourceScraped SourceType = "scraped"
	SourceImport  SourceType = "import"
)

type SparePart struct {
	ID               int64        `json:"id"`
	PartNumber       string       `json:"part_number"`
	PartName         string       `json:"part_name"`
	Description      string       `json:"description"`
	Category         string       `json:"category"`
	Manufacturer     string       `json:"manufacturer"`
	CompatibleModels string       `json:"compatible_models"`
	PurchasePrice    *float64     `json:"purchase_price,omitempty"`
	SellingPrice     *float64     `json:"selling_price,omitempty"`
	Currency         string       `json:"currency"`
	Availability     Availability `json:"availability"`
	StockQuantity    int          `json:"stock_quantity"`
	MinStockLevel    int          `json:"min_stock_level"`
	SupplierName     string       `json:"supplier_name"`
	SupplierURL      string       `json:"supplier_url"`
	ImageURL         string       `json:"image_url"`
	SourceType       SourceType   `json:"source_type"`
	LastScrapedAt    *time.Time   `json:"last_scraped_at,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// LowStock reports whether the stock fell to or below the minimum level.
func (p *SparePart) LowStock() bool {
	return p.MinStockLevel > 0 && p.StockQuantity <= p.MinStockLevel
}

func (p *SparePart) Validate() error {
	if p.PartNumber == "" {
		return errors.New("part_number is required")
	}
	if p.PartName == "" {
		return errors.New("part_name is required")
	}
	if p.Availability != "" && !p.Availability.Valid() {
		return errors.New("availability is invalid")
	}
	if p.StockQuantity < 0 {
		return errors.New("stock_quantity must not be negative")
	}
	return nil
}

type SparePartFilter struct {
	Query        string
	Category     string
	Manufacturer string
	Availability Availability
	SupplierName string
	Limit        int
	Offset       int
}

type StockUpdateRequest struct {
	StockQuantity int           `json:"stock_quantity"`
	Availability  *Availability `json:"availability"`
}

func (p StockUpdateRequest) Validate() error {
	if p.StockQuantity < 0 {
		return errors.New("stock_quantity must not be negative")
	}
	if p.Availability != nil && !p.Availability.Valid() {
		return errors.New("availability is invalid")
	}
	return nil
}
