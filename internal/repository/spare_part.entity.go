package repository

import (
	"time"

	"github.com/nimasrn/repair-desk/internal/model"
)

type SparePartEntity struct {
	ID               int64      `db:"id"                gorm:"primaryKey;autoIncrement;column:id"`
	PartNumber       string     `db:"part_number"       gorm:"column:part_number;not null;uniqueIndex"`
	PartName         string     `db:"part_name"         gorm:"column:part_name;not null;index:idx_spare_parts_name_manufacturer"`
	Description      string     `db:"description"       gorm:"column:description;not null;default:''"`
	Category         string     `db:"category"          gorm:"column:category;not null;default:''"`
	Manufacturer     string     `db:"manufacturer"      gorm:"column:manufacturer;not null;default:'';index:idx_spare_parts_name_manufacturer"`
	CompatibleModels string     `db:"compatible_models" gorm:"column:compatible_models;not null;default:''"`
	PurchasePrice    *float64   `db:"purchase_price"    gorm:"column:purchase_price"`
	SellingPrice     *float64   `db:"selling_price"     gorm:"column:selling_price"`
	Currency         string     `db:"currency"          gorm:"column:currency;not null;default:EUR"`
	Availability     string     `db:"availability"      gorm:"column:availability;not null;default:available"`
	StockQuantity    int        `db:"stock_quantity"    gorm:"column:stock_quantity;not null;default:0"`
	MinStockLevel    int        `db:"min_stock_level"   gorm:"column:min_stock_level;not null;default:0"`
	SupplierName     string     `db:"supplier_name"     gorm:"column:supplier_name;not null;default:'';index"`
	SupplierURL      string     `db:"supplier_url"      gorm:"column:supplier_url;not null;default:''"`
	ImageURL         string     `db:"image_url"         gorm:"column:image_url;not null;default:''"`
	SourceType       string     `db:"source_type"       gorm:"column:source_type;not null;default:manual"`
	LastScrapedAt    *time.Time `db:"last_scraped_at"   gorm:"column:last_scraped_at"`
	CreatedAt        time.Time  `db:"created_at"        gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time  `db:"updated_at"        gorm:"column:updated_at;autoUpdateTime"`
}

func (SparePartEntity) TableName() string {
	return "spare_parts_catalog"
}

func toSparePartEntity(m *model.SparePart) *SparePartEntity {
	if m == nil {
		return nil
	}
	return &SparePartEntity{
		ID:               m.ID,
		PartNumber:       m.PartNumber,
		PartName:         m.PartName,
		Description:      m.Description,
		Category:         m.Category,
		Manufacturer:     m.Manufacturer,
		CompatibleModels: m.CompatibleModels,
		PurchasePrice:    m.PurchasePrice,
		SellingPrice:     m.SellingPrice,
		Currency:         m.Currency,
		Availability:     string(m.Availability),
		StockQuantity:    m.StockQuantity,
		MinStockLevel:    m.MinStockLevel,
		SupplierName:     m.SupplierName,
		SupplierURL:      m.SupplierURL,
		ImageURL:         m.ImageURL,
		SourceType:       string(m.SourceType),
		LastScrapedAt:    m.LastScrapedAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func toSparePartModel(e *SparePartEntity) *model.SparePart {
	if e == nil {
		return nil
	}
	return &model.SparePart{
		ID:               e.ID,
		PartNumber:       e.PartNumber,
		PartName:         e.PartName,
		Description:      e.Description,
		Category:         e.Category,
		Manufacturer:     e.Manufacturer,
		CompatibleModels: e.CompatibleModels,
		PurchasePrice:    e.PurchasePrice,
		SellingPrice:     e.SellingPrice,
		Currency:         e.Currency,
		Availability:     model.Availability(e.Availability),
		StockQuantity:    e.StockQuantity,
		MinStockLevel:    e.MinStockLevel,
		SupplierName:     e.SupplierName,
		SupplierURL:      e.SupplierURL,
		ImageURL:         e.ImageURL,
		SourceType:       model.SourceType(e.SourceType),
		LastScrapedAt:    e.LastScrapedAt,
		CreatedAt:        e.CreatedAt,
		UpdatedAt:        e.UpdatedAt,
	}
}

func toSparePartModels(entities []*SparePartEntity) []*model.SparePart {
	if entities == nil {
		return nil
	}
	models := make([]*model.SparePart, len(entities))
	for i, e := range entities {
		models[i] = toSparePartModel(e)
	}
	return models
}
