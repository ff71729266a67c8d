package repository

import (
	"context"
	"errors"

	"credito/internal/model"
	"credito/pkg/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContractRepository is the persistence port for generated contracts.
type ContractRepository interface {
	Create(ctx context.Context, contract *model.Contract) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Contract, error)
	Update(ctx context.Context, contract *model.Contract) error
	ListByFormalApplicationID(ctx context.Context, formalID uuid.UUID) ([]model.Contract, error)
}

type contractRepository struct {
	db *gorm.DB
}

func NewContractRepository(db *gorm.DB) ContractRepository {
	return &contractRepository{db: db}
}

func (r *contractRepository) Create(ctx context.Context, contract *model.Contract) error {
	if err := GetDB(ctx, r.db).Create(contract).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.Wrap(apperrors.KindConflict, err,
				"a contract already exists for formal application %s", contract.FormalApplicationID)
		}
		return err
	}
	return nil
}

func (r *contractRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	var contract model.Contract
	if err := GetDB(ctx, r.db).First(&contract, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("contract %s not found", id)
		}
		return nil, err
	}
	return &contract, nil
}

func (r *contractRepository) Update(ctx context.Context, contract *model.Contract) error {
	return GetDB(ctx, r.db).Save(contract).Error
}

func (r *contractRepository) ListByFormalApplicationID(ctx context.Context, formalID uuid.UUID) ([]model.Contract, error) {
	var contracts []model.Contract
	if err := GetDB(ctx, r.db).Where("formal_application_id = ?", formalID).Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}
