package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification type constants
const (
	NotifyPreliminaryResult = "PRELIMINARY_RESULT"
	NotifyFormalCreated     = "FORMAL_CREATED"
	NotifyFormalResult      = "FORMAL_RESULT"
	NotifyContractReady     = "CONTRACT_READY"
	NotifyError             = "ERROR"
)

// Notification is an outbox row: it is persisted together with the transition
// that triggered it and delivered asynchronously by the dispatcher worker.
// Exactly one of TargetUserID / TargetRole is set — role targets fan out to
// every connected member of that role (e.g. all analysts).
type Notification struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	TargetUserID *uuid.UUID `gorm:"type:uuid;index" json:"target_user_id,omitempty"`
	TargetRole   string     `gorm:"type:varchar(50);index" json:"target_role,omitempty"`
	Type         string     `gorm:"type:varchar(50);not null" json:"type"`
	Message      string     `gorm:"type:text;not null" json:"message"`
	Metadata     string     `gorm:"type:jsonb" json:"metadata,omitempty"` // Serialized JSON payload

	Delivered   bool       `gorm:"not null;default:false;index" json:"delivered"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	ReadAt      *time.Time `json:"read_at,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
