package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Contract state constants. The state column is free-form; these are the
// values the system itself writes. A contract counts as active credit unless
// it is cancelled or fully paid off.
const (
	ContractStateGenerated = "generado"
	ContractStateCancelled = "anulado"
	ContractStateFinished  = "finalizado"
)

// ContractStateIsActive reports whether a contract in the given state blocks
// the client from opening a new credit line.
func ContractStateIsActive(state string) bool {
	return state != ContractStateCancelled && state != ContractStateFinished
}

// Contract is the binding artifact produced once a formal application is
// approved. At most one exists per formal application (unique index).
type Contract struct {
	ID     uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Amount decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	State  string          `gorm:"type:varchar(30);not null;default:'generado';index" json:"state"`

	FormalApplicationID uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex" json:"formal_application_id"`
	FormalApplication   *FormalApplication `gorm:"foreignKey:FormalApplicationID" json:"formal_application,omitempty"`

	ClientID uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	Client   *User     `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	// Copied from the approved formal application
	CardNumber    string `gorm:"type:varchar(30);not null" json:"card_number"`
	AccountNumber string `gorm:"type:varchar(30);not null" json:"account_number"`

	// Cached rendered contract sheet (optional)
	Document []byte `gorm:"type:bytea" json:"-"`

	GeneratedAt time.Time `gorm:"autoCreateTime;index" json:"generated_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
