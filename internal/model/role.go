package model

import (
	"time"

	"github.com/google/uuid"
)

// Capability codes checked by the core before sensitive operations.
const (
	CapFormalCreate = "solicitud_formal.crear"
	CapFormalReview = "solicitud_formal.revisar"
	CapContractRead = "contratos.leer"
	CapAuditRead    = "auditoria.leer"
	CapUsersRead    = "usuarios.leer"
	CapUsersWrite   = "usuarios.escribir"
)

// Role maps a role tag to its granted permissions.
type Role struct {
	ID          uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	IsSystem    bool         `gorm:"default:false" json:"is_system"` // Prevent deletion of built-in roles
	Permissions []Permission `gorm:"many2many:role_permissions;" json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Permission represents a single capability that can be assigned to roles
type Permission struct {
	ID    uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code  string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"code"` // e.g. "solicitud_formal.crear"
	Name  string    `gorm:"type:varchar(255);not null" json:"name"`
	Group string    `gorm:"type:varchar(50);not null;index" json:"group"` // "solicitudes", "contratos", "usuarios"...
}
