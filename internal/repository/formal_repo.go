package repository

import (
	"context"
	"errors"

	"credito/internal/model"
	"credito/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FormalRepository is the persistence port for second-stage applications.
// Approval and rejection use dedicated column-scoped updates so a reviewer
// decision never clobbers applicant fields edited concurrently.
type FormalRepository interface {
	Create(ctx context.Context, app *model.FormalApplication) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.FormalApplication, error)
	Update(ctx context.Context, app *model.FormalApplication) error
	UpdateApproval(ctx context.Context, app *model.FormalApplication) error
	UpdateRejection(ctx context.Context, app *model.FormalApplication) error
	ListByState(ctx context.Context, state string, page, limit int) ([]model.FormalApplication, int64, error)
	ListByParentID(ctx context.Context, preliminaryID uuid.UUID) ([]model.FormalApplication, error)
	ListByClientDNI(ctx context.Context, dni string) ([]model.FormalApplication, error)
	LinkContract(ctx context.Context, preliminaryID, contractID uuid.UUID) error
}

type formalRepository struct {
	db *gorm.DB
}

func NewFormalRepository(db *gorm.DB) FormalRepository {
	return &formalRepository{db: db}
}

func (r *formalRepository) Create(ctx context.Context, app *model.FormalApplication) error {
	if err := GetDB(ctx, r.db).Create(app).Error; err != nil {
		// The unique index on preliminary_application_id is the authoritative
		// duplicate guard; the service pre-check only short-circuits.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Wrap(apperrors.KindConflict, err,
				"a formal application already exists for preliminary application %s", app.PreliminaryApplicationID)
		}
		return err
	}
	return nil
}

func (r *formalRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.FormalApplication, error) {
	var app model.FormalApplication
	if err := GetDB(ctx, r.db).First(&app, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("formal application %s not found", id)
		}
		return nil, err
	}
	return &app, nil
}

func (r *formalRepository) Update(ctx context.Context, app *model.FormalApplication) error {
	return GetDB(ctx, r.db).Save(app).Error
}

// UpdateApproval persists only the columns an approval decision touches.
func (r *formalRepository) UpdateApproval(ctx context.Context, app *model.FormalApplication) error {
	return GetDB(ctx, r.db).Model(app).
		Select("state", "analyst_approver_id", "admin_approver_id", "card_number", "account_number", "comments", "updated_at").
		Updates(app).Error
}

// UpdateRejection persists only the columns a rejection decision touches.
func (r *formalRepository) UpdateRejection(ctx context.Context, app *model.FormalApplication) error {
	return GetDB(ctx, r.db).Model(app).
		Select("state", "analyst_approver_id", "admin_approver_id", "comments", "updated_at").
		Updates(app).Error
}

func (r *formalRepository) ListByState(ctx context.Context, state string, page, limit int) ([]model.FormalApplication, int64, error) {
	var apps []model.FormalApplication
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.FormalApplication{})
	if state != "" {
		query = query.Where("state = ?", state)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetch := db.Preload("PreliminaryApplication")
	if state != "" {
		fetch = fetch.Where("state = ?", state)
	}
	if err := fetch.Order("created_at DESC").Offset(offset).Limit(limit).Find(&apps).Error; err != nil {
		return nil, 0, err
	}

	return apps, total, nil
}

func (r *formalRepository) ListByParentID(ctx context.Context, preliminaryID uuid.UUID) ([]model.FormalApplication, error) {
	var apps []model.FormalApplication
	if err := GetDB(ctx, r.db).Where("preliminary_application_id = ?", preliminaryID).Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *formalRepository) ListByClientDNI(ctx context.Context, dni string) ([]model.FormalApplication, error) {
	var apps []model.FormalApplication
	if err := GetDB(ctx, r.db).Where("dni = ?", dni).Order("created_at DESC").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// LinkContract stamps the generated contract onto the formal application
// belonging to the given preliminary application, making the contract
// reachable from the root of the chain.
func (r *formalRepository) LinkContract(ctx context.Context, preliminaryID, contractID uuid.UUID) error {
	res := GetDB(ctx, r.db).Model(&model.FormalApplication{}).
		Where("preliminary_application_id = ?", preliminaryID).
		Update("contract_id", contractID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.NotFound("no formal application for preliminary application %s", preliminaryID)
	}
	return nil
}
