package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/pkg/logger"
)

// CatalogIndex is the optional full-text index of the catalog.
type CatalogIndex interface {
	Index(ctx context.Context, p *model.SparePart) error
	Remove(ctx context.Context, id int64) error
	Search(ctx context.Context, f model.SparePartFilter) ([]int64, int64, error)
}

type CatalogService struct {
	partRepo         SparePartRepository
	notificationRepo NotificationRepository
	index            CatalogIndex
}

// NewCatalogService wires the catalog; index may be nil, searches then run
// against the database.
func NewCatalogService(partRepo SparePartRepository, notificationRepo NotificationRepository, index CatalogIndex) *CatalogService {
	return &CatalogService{
		partRepo:         partRepo,
		notificationRepo: notificationRepo,
		index:            index,
	}
}

func canReadCatalog(actor *model.Actor) bool {
	return actor.Is(model.RoleAdmin, model.RoleTechnician) || (actor != nil && actor.Role.IsSupplier())
}

// Search lists catalog entries. Suppliers only see their own entries.
func (s *CatalogService) Search(ctx context.Context, actor *model.Actor, f model.SparePartFilter) ([]*model.SparePart, int64, error) {
	if !canReadCatalog(actor) {
		return nil, 0, ErrForbidden
	}
	if actor.Role.IsSupplier() {
		f.SupplierName = actor.SupplierName
	}
	f.Query = strings.TrimSpace(f.Query)

	if s.index != nil && f.Query != "" {
		parts, total, err := s.searchIndex(ctx, f)
		if err == nil {
			return parts, total, nil
		}
		logger.Warn("catalog index search failed, falling back to database", "error", err)
	}
	return s.partRepo.List(ctx, f)
}

func (s *CatalogService) searchIndex(ctx context.Context, f model.SparePartFilter) ([]*model.SparePart, int64, error) {
	ids, total, err := s.index.Search(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	parts := make([]*model.SparePart, 0, len(ids))
	for _, id := range ids {
		p, err := s.partRepo.GetByID(ctx, id)
		if err != nil {
			// index lags behind deletes
			logger.Debug("indexed part missing from database", "id", id, "error", err)
			continue
		}
		parts = append(parts, p)
	}
	return parts, total, nil
}

func (s *CatalogService) Get(ctx context.Context, actor *model.Actor, id int64) (*model.SparePart, error) {
	if !canReadCatalog(actor) {
		return nil, ErrForbidden
	}
	p, err := s.partRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role.IsSupplier() && p.SupplierName != actor.SupplierName {
		return nil, ErrForbidden
	}
	return p, nil
}

func (s *CatalogService) Create(ctx context.Context, actor *model.Actor, p *model.SparePart) (*model.SparePart, error) {
	if !actor.Is(model.RoleAdmin) && (actor == nil || !actor.Role.IsSupplier()) {
		return nil, ErrForbidden
	}
	normalizePart(p)
	if actor.Role.IsSupplier() {
		p.SupplierName = actor.SupplierName
	}
	if p.SourceType == "" {
		p.SourceType = model.SourceManual
	}
	if err := p.Validate(); err != nil {
		return nil, invalid(err)
	}
	created, err := s.partRepo.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	s.reindex(ctx, created)
	return created, nil
}

func (s *CatalogService) Update(ctx context.Context, actor *model.Actor, id int64, p *model.SparePart) (*model.SparePart, error) {
	existing, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	normalizePart(p)
	p.ID = id
	if actor.Role.IsSupplier() || p.SupplierName == "" {
		p.SupplierName = existing.SupplierName
	}
	if p.SourceType == "" {
		p.SourceType = existing.SourceType
	}
	if err := p.Validate(); err != nil {
		return nil, invalid(err)
	}
	updated, err := s.partRepo.Update(ctx, p)
	if err != nil {
		return nil, err
	}
	s.reindex(ctx, updated)
	return updated, nil
}

// UpdateStock sets the quantity. Without an explicit availability a zero
// quantity means out of stock and a positive one means available. Dropping
// to the minimum level raises an admin notification.
func (s *CatalogService) UpdateStock(ctx context.Context, actor *model.Actor, id int64, p model.StockUpdateRequest) (*model.SparePart, error) {
	if err := p.Validate(); err != nil {
		return nil, invalid(err)
	}
	existing, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	availability := existing.Availability
	switch {
	case p.Availability != nil:
		availability = *p.Availability
	case p.StockQuantity == 0 && availability == model.AvailabilityAvailable:
		availability = model.AvailabilityOutOfStock
	case p.StockQuantity > 0 && availability == model.AvailabilityOutOfStock:
		availability = model.AvailabilityAvailable
	}

	updated, err := s.partRepo.UpdateStock(ctx, id, p.StockQuantity, availability)
	if err != nil {
		return nil, err
	}
	s.reindex(ctx, updated)

	if updated.LowStock() && !existing.LowStock() && s.notificationRepo != nil {
		n := &model.Notification{
			Type:     "low_stock",
			Title:    "Low stock",
			Message:  fmt.Sprintf("%s (%s): %d left, minimum %d", updated.PartName, updated.PartNumber, updated.StockQuantity, updated.MinStockLevel),
			Priority: model.PriorityHigh,
		}
		if err := s.notificationRepo.CreateBatch(ctx, []*model.Notification{n}); err != nil {
			logger.Error("failed to write low stock notification", "part_id", id, "error", err)
		}
	}
	return updated, nil
}

func (s *CatalogService) Delete(ctx context.Context, actor *model.Actor, id int64) error {
	if !actor.Is(model.RoleAdmin) {
		return ErrForbidden
	}
	if err := s.partRepo.Delete(ctx, id); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.Remove(ctx, id); err != nil {
			logger.Warn("failed to remove part from index", "id", id, "error", err)
		}
	}
	return nil
}

// Upsert stores a scraped part and keeps the index in sync. The boolean
// reports whether a new row was inserted.
func (s *CatalogService) Upsert(ctx context.Context, p *model.SparePart) (*model.SparePart, bool, error) {
	normalizePart(p)
	if p.SourceType == "" {
		p.SourceType = model.SourceScraped
	}
	if p.LastScrapedAt == nil && p.SourceType == model.SourceScraped {
		now := time.Now().UTC()
		p.LastScrapedAt = &now
	}
	if err := p.Validate(); err != nil {
		return nil, false, invalid(err)
	}
	stored, created, err := s.partRepo.Upsert(ctx, p)
	if err != nil {
		return nil, false, err
	}
	s.reindex(ctx, stored)
	return stored, created, nil
}

func (s *CatalogService) owned(ctx context.Context, actor *model.Actor, id int64) (*model.SparePart, error) {
	if !actor.Is(model.RoleAdmin) && (actor == nil || !actor.Role.IsSupplier()) {
		return nil, ErrForbidden
	}
	existing, err := s.partRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role.IsSupplier() && existing.SupplierName != actor.SupplierName {
		return nil, ErrForbidden
	}
	return existing, nil
}

func (s *CatalogService) reindex(ctx context.Context, p *model.SparePart) {
	if s.index == nil || p == nil {
		return
	}
	if err := s.index.Index(ctx, p); err != nil {
		logger.Warn("failed to index part", "id", p.ID, "part_number", p.PartNumber, "error", err)
	}
}

func normalizePart(p *model.SparePart) {
	p.PartNumber = strings.TrimSpace(p.PartNumber)
	p.PartName = strings.TrimSpace(p.PartName)
	p.Manufacturer = strings.TrimSpace(p.Manufacturer)
	if p.Currency == "" {
		p.Currency = "EUR"
	}
	if p.Availability == "" {
		p.Availability = model.AvailabilityAvailable
	}
}
