package database

import (
	"context"
	"fmt"

	"credito/internal/model"

	"gorm.io/gorm"
)

// SeedRolesAndPermissions creates the default permissions and roles if not
// already present. Safe to run on every startup.
func SeedRolesAndPermissions(ctx context.Context, db *gorm.DB) error {
	defaultPermissions := []model.Permission{
		{Code: model.CapFormalCreate, Name: "Crear solicitud formal", Group: "solicitudes"},
		{Code: model.CapFormalReview, Name: "Aprobar / Rechazar solicitud formal", Group: "solicitudes"},
		{Code: model.CapContractRead, Name: "Ver contratos", Group: "contratos"},
		{Code: model.CapAuditRead, Name: "Ver historial de auditoría", Group: "auditoria"},
		{Code: model.CapUsersRead, Name: "Ver usuarios", Group: "usuarios"},
		{Code: model.CapUsersWrite, Name: "Gestionar usuarios", Group: "usuarios"},
	}

	// Upsert permissions
	for i := range defaultPermissions {
		p := &defaultPermissions[i]
		var existing model.Permission
		result := db.WithContext(ctx).Where("code = ?", p.Code).First(&existing)
		if result.Error != nil {
			if err := db.WithContext(ctx).Create(p).Error; err != nil {
				return fmt.Errorf("failed to seed permission '%s': %w", p.Code, err)
			}
		} else {
			p.ID = existing.ID
			db.WithContext(ctx).Exec(
				`UPDATE permissions SET name = ?, "group" = ? WHERE id = ?`,
				p.Name, p.Group, existing.ID,
			)
		}
	}

	permByCode := make(map[string]model.Permission, len(defaultPermissions))
	for _, p := range defaultPermissions {
		permByCode[p.Code] = p
	}

	roleDefinitions := map[string]struct {
		Description string
		PermCodes   []string
	}{
		model.RoleAdmin: {
			Description: "Administrador del sistema",
			PermCodes: []string{
				model.CapFormalCreate, model.CapFormalReview,
				model.CapContractRead, model.CapAuditRead,
				model.CapUsersRead, model.CapUsersWrite,
			},
		},
		model.RoleAnalyst: {
			Description: "Analista de crédito",
			PermCodes: []string{
				model.CapFormalReview, model.CapContractRead, model.CapAuditRead,
			},
		},
		model.RoleMerchant: {
			Description: "Comerciante adherido",
			PermCodes: []string{
				model.CapFormalCreate, model.CapContractRead,
			},
		},
		model.RoleClient: {
			Description: "Cliente solicitante",
			PermCodes:   []string{},
		},
	}

	for roleName, def := range roleDefinitions {
		var role model.Role
		result := db.WithContext(ctx).Where("name = ?", roleName).First(&role)
		if result.Error != nil {
			role = model.Role{
				Name:        roleName,
				Description: def.Description,
				IsSystem:    true,
			}
			if err := db.WithContext(ctx).Create(&role).Error; err != nil {
				return fmt.Errorf("failed to seed role '%s': %w", roleName, err)
			}
		}

		perms := make([]model.Permission, 0, len(def.PermCodes))
		for _, code := range def.PermCodes {
			if p, ok := permByCode[code]; ok {
				perms = append(perms, p)
			}
		}
		if err := db.WithContext(ctx).Model(&role).Association("Permissions").Replace(perms); err != nil {
			return fmt.Errorf("failed to assign permissions to role '%s': %w", roleName, err)
		}
	}

	return nil
}
