package repository

import (
	"context"
	"errors"

	"github.com/nimasrn/repair-desk/internal/model"
	"github.com/nimasrn/repair-desk/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificationRepository struct {
	*pg.DB
}

func NewNotificationRepository(db *pg.DB) *NotificationRepository {
	return &NotificationRepository{
		db,
	}
}

func (r *NotificationRepository) CreateBatch(ctx context.Context, notifications []*model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	entities := make([]*NotificationEntity, len(notifications))
	for i, n := range notifications {
		entities[i] = toNotificationEntity(n)
		if entities[i].Priority == "" {
			entities[i].Priority = string(model.PriorityNormal)
		}
	}
	if err := r.Write(ctx).Create(&entities).Error; err != nil {
		return err
	}
	for i, e := range entities {
		notifications[i].ID = e.ID
		notifications[i].CreatedAt = e.CreatedAt
	}
	return nil
}

const notificationColumns = "n.id, n.user_id, n.type, n.title, n.message, n.related_service_id, n.priority, n.created_at"

// visibleTo scopes a query to the rows the user may see. Admin-wide rows
// (user_id NULL) carry their read state per admin in notification_receipts.
func visibleTo(q *gorm.DB, userID int64, includeAdmin bool) *gorm.DB {
	q = q.Table("notifications AS n")
	if !includeAdmin {
		return q.Where("n.user_id = ?", userID)
	}
	return q.Joins("LEFT JOIN notification_receipts r ON r.notification_id = n.id AND r.user_id = ?", userID).
		Where("(n.user_id = ? OR (n.user_id IS NULL AND COALESCE(r.dismissed, ?) = ?))", userID, false, false)
}

func readColumn(includeAdmin bool) string {
	if includeAdmin {
		return "COALESCE(r.is_read, n.is_read)"
	}
	return "n.is_read"
}

func (r *NotificationRepository) List(ctx context.Context, f model.NotificationFilter) ([]*model.Notification, int64, error) {
	query := func() *gorm.DB {
		q := visibleTo(r.Read(ctx), f.UserID, f.IncludeAdmin)
		if f.UnreadOnly {
			q = q.Where(readColumn(f.IncludeAdmin)+" = ?", false)
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := paginate(f.Limit, f.Offset)
	var entities []*NotificationEntity
	err := query().Select(notificationColumns + ", " + readColumn(f.IncludeAdmin) + " AS is_read").
		Order("n.created_at DESC, n.id DESC").
		Limit(limit).Offset(offset).
		Find(&entities).Error
	if err != nil {
		return nil, 0, err
	}
	return toNotificationModels(entities), total, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64, includeAdmin bool) (int64, error) {
	var n int64
	err := visibleTo(r.Read(ctx), userID, includeAdmin).
		Where(readColumn(includeAdmin)+" = ?", false).
		Count(&n).Error
	return n, err
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID int64, includeAdmin bool) error {
	result := r.Write(ctx).Model(&NotificationEntity{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	if !includeAdmin {
		return ErrNotificationNotFound
	}
	return r.saveReceipt(ctx, id, userID, false)
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID int64, includeAdmin bool) (int64, error) {
	var marked int64
	err := r.WithinTransaction(ctx, func(ctx context.Context) error {
		result := r.Write(ctx).Model(&NotificationEntity{}).
			Where("user_id = ? AND is_read = ?", userID, false).
			Update("is_read", true)
		if result.Error != nil {
			return result.Error
		}
		marked = result.RowsAffected
		if !includeAdmin {
			return nil
		}

		result = r.Write(ctx).Model(&NotificationReceiptEntity{}).
			Where("user_id = ? AND is_read = ? AND dismissed = ?", userID, false, false).
			Update("is_read", true)
		if result.Error != nil {
			return result.Error
		}
		marked += result.RowsAffected

		result = r.Write(ctx).Exec(`INSERT INTO notification_receipts (notification_id, user_id, is_read, dismissed)
SELECT n.id, ?, ?, ? FROM notifications n
WHERE n.user_id IS NULL AND NOT EXISTS (
	SELECT 1 FROM notification_receipts r WHERE r.notification_id = n.id AND r.user_id = ?)`,
			userID, true, false, userID)
		if result.Error != nil {
			return result.Error
		}
		marked += result.RowsAffected
		return nil
	})
	return marked, err
}

func (r *NotificationRepository) Delete(ctx context.Context, id, userID int64, includeAdmin bool) error {
	result := r.Write(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&NotificationEntity{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	if !includeAdmin {
		return ErrNotificationNotFound
	}
	return r.saveReceipt(ctx, id, userID, true)
}

// saveReceipt marks an admin-wide row read, or dismissed, for one admin.
func (r *NotificationRepository) saveReceipt(ctx context.Context, id, userID int64, dismiss bool) error {
	var visible int64
	err := visibleTo(r.Read(ctx), userID, true).
		Where("n.id = ? AND n.user_id IS NULL", id).
		Count(&visible).Error
	if err != nil {
		return err
	}
	if visible == 0 {
		return ErrNotificationNotFound
	}

	receipt := &NotificationReceiptEntity{NotificationID: id, UserID: userID, IsRead: true, Dismissed: dismiss}
	update := []string{"is_read"}
	if dismiss {
		update = append(update, "dismissed")
	}
	return r.Write(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "notification_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(update),
	}).Create(receipt).Error
}

func (r *NotificationRepository) GetByID(ctx context.Context, id int64) (*model.Notification, error) {
	var entity NotificationEntity
	if err := r.Read(ctx).Where("id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return toNotificationModel(&entity), nil
}
