package repository

import (
	"context"
	"time"

	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OutboxRepository struct {
	*pg.DB
}

func NewOutboxRepository(db *pg.DB) *OutboxRepository {
	return &OutboxRepository{
		db,
	}
}

func (r *OutboxRepository) CreateBatch(ctx context.Context, entries []*model.OutboxEntry) error {
	if len(entries) == 0 {
		return nil
	}
	entities := make([]*OutboxEntity, len(entries))
	for i, e := range entries {
		entities[i] = toOutboxEntity(e)
	}
	if err := r.Write(ctx).Create(&entities).Error; err != nil {
		return err
	}
	for i, e := range entities {
		entries[i].ID = e.ID
	}
	return nil
}

// ClaimPending locks up to limit pending rows, oldest first. Must run inside
// a transaction; rows locked by another relay are skipped.
func (r *OutboxRepository) ClaimPending(ctx context.Context, limit int) ([]*model.OutboxEntry, error) {
	var entities []*OutboxEntity
	err := r.Write(ctx).
		Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
		Where("status = ?", string(model.OutboxPending)).
		Order("id ASC").
		Limit(limit).
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toOutboxModels(entities), nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now()
	return r.Write(ctx).Model(&OutboxEntity{}).Where("id IN ?", ids).Updates(map[string]interface{}{
		"status":       string(model.OutboxPublished),
		"published_at": now,
		"attempts":     gorm.Expr("attempts + 1"),
	}).Error
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id int64, cause string) error {
	return r.Write(ctx).Model(&OutboxEntity{}).Where("id = ?", id).Updates(map[string]interface{}{
		"attempts":   gorm.Expr("attempts + 1"),
		"last_error": cause,
	}).Error
}

func (r *OutboxRepository) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := r.Read(ctx).Model(&OutboxEntity{}).Where("status = ?", string(model.OutboxPending)).Count(&n).Error
	return n, err
}

// PurgePublished removes published rows older than the cutoff.
func (r *OutboxRepository) PurgePublished(ctx context.Context, olderThan time.Time) (int64, error) {
	result := r.Write(ctx).
		Where("status = ? AND published_at < ?", string(model.OutboxPublished), olderThan).
		Delete(&OutboxEntity{})
	return result.RowsAffected, result.Error
}

type DeliveryRepository struct {
	*pg.DB
}

func NewDeliveryRepository(db *pg.DB) *DeliveryRepository {
	return &DeliveryRepository{
		db,
	}
}

func (r *DeliveryRepository) Create(ctx context.Context, d *model.Delivery) (*model.Delivery, error) {
	entity := toDeliveryEntity(d)
	if err := r.Write(ctx).Create(entity).Error; err != nil {
		return nil, err
	}
	return toDeliveryModel(entity), nil
}

func (r *DeliveryRepository) ListByJob(ctx context.Context, jobID string) ([]*model.Delivery, error) {
	var entities []*DeliveryEntity
	if err := r.Read(ctx).Where("job_id = ?", jobID).Order("id ASC").Find(&entities).Error; err != nil {
		return nil, err
	}
	out := make([]*model.Delivery, len(entities))
	for i, e := range entities {
		out[i] = toDeliveryModel(e)
	}
	return out, nil
}
