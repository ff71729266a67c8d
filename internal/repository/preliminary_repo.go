package repository

import (
	"context"
	"errors"

	"credito/internal/model"
	"credito/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PreliminaryRepository is the persistence port for first-stage applications.
type PreliminaryRepository interface {
	Create(ctx context.Context, app *model.PreliminaryApplication) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.PreliminaryApplication, error)
	Update(ctx context.Context, app *model.PreliminaryApplication) error
	ListByState(ctx context.Context, state string, page, limit int) ([]model.PreliminaryApplication, int64, error)
	ListByClientDNI(ctx context.Context, dni string) ([]model.PreliminaryApplication, error)
}

type preliminaryRepository struct {
	db *gorm.DB
}

func NewPreliminaryRepository(db *gorm.DB) PreliminaryRepository {
	return &preliminaryRepository{db: db}
}

func (r *preliminaryRepository) Create(ctx context.Context, app *model.PreliminaryApplication) error {
	return GetDB(ctx, r.db).Create(app).Error
}

func (r *preliminaryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PreliminaryApplication, error) {
	var app model.PreliminaryApplication
	if err := GetDB(ctx, r.db).First(&app, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("preliminary application %s not found", id)
		}
		return nil, err
	}
	return &app, nil
}

func (r *preliminaryRepository) Update(ctx context.Context, app *model.PreliminaryApplication) error {
	return GetDB(ctx, r.db).Save(app).Error
}

func (r *preliminaryRepository) ListByState(ctx context.Context, state string, page, limit int) ([]model.PreliminaryApplication, int64, error) {
	var apps []model.PreliminaryApplication
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.PreliminaryApplication{})
	if state != "" {
		query = query.Where("state = ?", state)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetch := db.Preload("Merchant")
	if state != "" {
		fetch = fetch.Where("state = ?", state)
	}
	if err := fetch.Order("created_at DESC").Offset(offset).Limit(limit).Find(&apps).Error; err != nil {
		return nil, 0, err
	}

	return apps, total, nil
}

func (r *preliminaryRepository) ListByClientDNI(ctx context.Context, dni string) ([]model.PreliminaryApplication, error) {
	var apps []model.PreliminaryApplication
	if err := GetDB(ctx, r.db).Where("client_dni = ?", dni).Order("created_at DESC").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}
