package repository

import (
	"context"
	"errors"
	"time"

	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SparePartRepository struct {
	*pg.DB
}

func NewSparePartRepository(db *pg.DB) *SparePartRepository {
	return &SparePartRepository{
		db,
	}
}

func (r *SparePartRepository) Create(ctx context.Context, p *model.SparePart) (*model.SparePart, error) {
	entity := toSparePartEntity(p)
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return toSparePartModel(entity), nil
}

func (r *SparePartRepository) GetByID(ctx context.Context, id int64) (*model.SparePart, error) {
	var entity SparePartEntity
	if err := r.Read(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSparePartNotFound
		}
		return nil, err
	}
	return toSparePartModel(&entity), nil
}

func (r *SparePartRepository) FindByPartNumber(ctx context.Context, partNumber string) (*model.SparePart, error) {
	var entity SparePartEntity
	if err := r.Read(ctx).Where("part_number = ?", partNumber).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSparePartNotFound
		}
		return nil, err
	}
	return toSparePartModel(&entity), nil
}

func (r *SparePartRepository) FindByNameAndManufacturer(ctx context.Context, name, manufacturer string) (*model.SparePart, error) {
	var entity SparePartEntity
	err := r.Read(ctx).
		Where("LOWER(part_name) = LOWER(?) AND LOWER(manufacturer) = LOWER(?)", name, manufacturer).
		Order("id ASC").
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSparePartNotFound
		}
		return nil, err
	}
	return toSparePartModel(&entity), nil
}

func (r *SparePartRepository) List(ctx context.Context, f model.SparePartFilter) ([]*model.SparePart, int64, error) {
	q := r.Read(ctx).Model(&SparePartEntity{})
	if f.Query != "" {
		p := likePattern(f.Query)
		q = q.Where("(LOWER(part_name) LIKE ? OR LOWER(part_number) LIKE ? OR LOWER(compatible_models) LIKE ?)", p, p, p)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Manufacturer != "" {
		q = q.Where("LOWER(manufacturer) = LOWER(?)", f.Manufacturer)
	}
	if f.Availability != "" {
		q = q.Where("availability = ?", string(f.Availability))
	}
	if f.SupplierName != "" {
		q = q.Where("supplier_name = ?", f.SupplierName)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := paginate(f.Limit, f.Offset)
	var entities []*SparePartEntity
	if err := q.Order("part_name ASC, id ASC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}
	return toSparePartModels(entities), total, nil
}

func (r *SparePartRepository) Update(ctx context.Context, p *model.SparePart) (*model.SparePart, error) {
	result := r.Write(ctx).Model(&SparePartEntity{}).Where("id = ?", p.ID).Updates(sparePartColumns(toSparePartEntity(p)))
	if result.Error != nil {
		if isUniqueViolation(result.Error) {
			return nil, ErrDuplicate
		}
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrSparePartNotFound
	}
	return r.GetByID(ctx, p.ID)
}

func (r *SparePartRepository) UpdateStock(ctx context.Context, id int64, quantity int, availability model.Availability) (*model.SparePart, error) {
	result := r.Write(ctx).Model(&SparePartEntity{}).Where("id = ?", id).Updates(map[string]interface{}{
		"stock_quantity": quantity,
		"availability":   string(availability),
		"updated_at":     time.Now(),
	})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrSparePartNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *SparePartRepository) Delete(ctx context.Context, id int64) error {
	result := r.Write(ctx).Where("id = ?", id).Delete(&SparePartEntity{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSparePartNotFound
	}
	return nil
}

// Upsert stores a scraped part. An existing row is matched by part number,
// then by name and manufacturer; otherwise the part is inserted with
// ON CONFLICT (part_number) DO UPDATE so concurrent runs cannot duplicate it.
// The boolean reports whether a new row was created.
func (r *SparePartRepository) Upsert(ctx context.Context, p *model.SparePart) (*model.SparePart, bool, error) {
	existing, err := r.FindByPartNumber(ctx, p.PartNumber)
	if errors.Is(err, ErrSparePartNotFound) && p.PartName != "" && p.Manufacturer != "" {
		existing, err = r.FindByNameAndManufacturer(ctx, p.PartName, p.Manufacturer)
	}
	if err != nil && !errors.Is(err, ErrSparePartNotFound) {
		return nil, false, err
	}

	if existing != nil {
		p.ID = existing.ID
		if p.PartNumber != existing.PartNumber {
			// keep the stored part number, it is referenced by suppliers
			p.PartNumber = existing.PartNumber
		}
		if p.StockQuantity == 0 {
			p.StockQuantity = existing.StockQuantity
		}
		if p.MinStockLevel == 0 {
			p.MinStockLevel = existing.MinStockLevel
		}
		if p.PurchasePrice == nil {
			p.PurchasePrice = existing.PurchasePrice
		}
		updated, err := r.Update(ctx, p)
		return updated, false, err
	}

	entity := toSparePartEntity(p)
	err = r.Write(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "part_number"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"part_name", "description", "category", "manufacturer", "compatible_models",
			"selling_price", "currency", "availability", "supplier_name", "supplier_url",
			"image_url", "source_type", "last_scraped_at", "updated_at",
		}),
	}).Create(entity).Error
	if err != nil {
		return nil, false, err
	}
	return toSparePartModel(entity), true, nil
}

func sparePartColumns(e *SparePartEntity) map[string]interface{} {
	return map[string]interface{}{
		"part_number":       e.PartNumber,
		"part_name":         e.PartName,
		"description":       e.Description,
		"category":          e.Category,
		"manufacturer":      e.Manufacturer,
		"compatible_models": e.CompatibleModels,
		"purchase_price":    e.PurchasePrice,
		"selling_price":     e.SellingPrice,
		"currency":          e.Currency,
		"availability":      e.Availability,
		"stock_quantity":    e.StockQuantity,
		"min_stock_level":   e.MinStockLevel,
		"supplier_name":     e.SupplierName,
		"supplier_url":      e.SupplierURL,
		"image_url":         e.ImageURL,
		"source_type":       e.SourceType,
		"last_scraped_at":   e.LastScrapedAt,
		"updated_at":        time.Now(),
	}
}
