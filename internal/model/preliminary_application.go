package model

import (
	"time"

	"github.com/google/uuid"
)

// Application state constants shared by both application stages.
// Transitions only ever leave "pendiente"; terminal states never change.
const (
	StatePending  = "pendiente"
	StateApproved = "aprobada"
	StateRejected = "rechazada"
)

// IsTerminalState reports whether an application state admits no further transition.
func IsTerminalState(state string) bool {
	return state == StateApproved || state == StateRejected
}

// PreliminaryApplication is the first-stage credit request a merchant submits
// for a client. It is resolved by an automated credit bureau check and is never
// deleted — reaching a terminal state closes it.
type PreliminaryApplication struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	State      string    `gorm:"type:varchar(20);not null;default:'pendiente';index" json:"state"`
	ClientDNI  string    `gorm:"type:varchar(20);not null;index" json:"client_dni"`
	ClientCUIL string    `gorm:"type:varchar(20);not null" json:"client_cuil"`

	// Optional income proof supplied with the request (free-form payload)
	IncomeProof string `gorm:"type:text" json:"income_proof,omitempty"`

	MerchantID uuid.UUID `gorm:"type:uuid;not null;index" json:"merchant_id"`
	Merchant   *User     `gorm:"foreignKey:MerchantID" json:"merchant,omitempty"`

	// Bureau check result — populated by the bureau step
	BureauScore     int        `gorm:"default:0" json:"bureau_score"`
	BureauCheckedAt *time.Time `json:"bureau_checked_at,omitempty"`

	// Back-link set once a contract is generated down the chain
	ContractID *uuid.UUID `gorm:"type:uuid" json:"contract_id,omitempty"`

	// Append-only comment log
	Comments []string `gorm:"serializer:json;type:jsonb" json:"comments"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppendComment adds an entry to the append-only comment log.
func (p *PreliminaryApplication) AppendComment(comment string) {
	p.Comments = append(p.Comments, comment)
}
