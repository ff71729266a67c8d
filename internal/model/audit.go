package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ActionCreatePreliminary = "CREATE_PRELIMINARY_APPLICATION"
	ActionBureauCheck       = "BUREAU_CHECK"
	ActionCreateFormal      = "CREATE_FORMAL_APPLICATION"
	ActionApproveFormal     = "APPROVE_FORMAL_APPLICATION"
	ActionRejectFormal      = "REJECT_FORMAL_APPLICATION"
	ActionUpdateFormal      = "UPDATE_FORMAL_APPLICATION"
	ActionGenerateContract  = "GENERATE_CONTRACT"
	ActionDownloadContract  = "DOWNLOAD_CONTRACT"
)

// Entity type labels for audit entries
const (
	EntityPreliminary = "preliminary_application"
	EntityFormal      = "formal_application"
	EntityContract    = "contract"
)

// AuditLog tracks Who, What, and When for every lifecycle transition, and for
// rejected attempts (missing entity, invalid state, invalid input). Entries
// additionally carry the root preliminary application id so the full history
// of one credit request can be read in one query.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated step
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityType string     `gorm:"type:varchar(50);not null;index" json:"entity_type"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`

	// Root preliminary application this entry belongs to, when known
	RootApplicationID *uuid.UUID `gorm:"type:uuid;index" json:"root_application_id,omitempty"`

	Details   string    `gorm:"type:jsonb" json:"details"` // Serialized JSON payload of the action
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
