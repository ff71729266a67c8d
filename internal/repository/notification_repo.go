package repository

import (
	"context"
	"time"

	"credito/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationRepository is the outbox table port. Rows are written inside the
// transaction of the transition that triggered them and drained by the
// dispatcher worker.
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListUndelivered(ctx context.Context, limit int) ([]model.Notification, error)
	MarkDelivered(ctx context.Context, id uuid.UUID) error
	ListForUser(ctx context.Context, userID uuid.UUID, role string, page, limit int) ([]model.Notification, int64, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return GetDB(ctx, r.db).Create(n).Error
}

func (r *notificationRepository) ListUndelivered(ctx context.Context, limit int) ([]model.Notification, error) {
	var notifications []model.Notification
	err := GetDB(ctx, r.db).
		Where("delivered = ?", false).
		Order("created_at asc").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepository) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return GetDB(ctx, r.db).Model(&model.Notification{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"delivered": true, "delivered_at": &now}).Error
}

// ListForUser returns notifications addressed to the user directly or to their role group.
func (r *notificationRepository) ListForUser(ctx context.Context, userID uuid.UUID, role string, page, limit int) ([]model.Notification, int64, error) {
	var notifications []model.Notification
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Notification{}).Where("target_user_id = ? OR target_role = ?", userID, role)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := db.Where("target_user_id = ? OR target_role = ?", userID, role).
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	now := time.Now()
	return GetDB(ctx, r.db).Model(&model.Notification{}).
		Where("id = ?", id).
		Update("read_at", &now).Error
}
