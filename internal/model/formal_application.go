package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RequiredReferences is the exact number of personal references a formal
// application must carry.
const RequiredReferences = 2

// MinRejectCommentLen is the minimum trimmed length of a rejection comment.
const MinRejectCommentLen = 10

// Reference is a personal contact supplied by the applicant. It has no
// independent lifecycle; the list is persisted in order as part of the
// formal application (order matters for display only).
type Reference struct {
	FullName     string `json:"full_name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
}

// FormalApplication is the second-stage, document-backed credit request. At
// most one exists per preliminary application — the unique index on
// PreliminaryApplicationID is the authoritative guard, the service pre-check
// is an optimization.
type FormalApplication struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`

	PreliminaryApplicationID uuid.UUID               `gorm:"type:uuid;not null;uniqueIndex" json:"preliminary_application_id"`
	PreliminaryApplication   *PreliminaryApplication `gorm:"foreignKey:PreliminaryApplicationID" json:"preliminary_application,omitempty"`

	MerchantID uuid.UUID `gorm:"type:uuid;not null;index" json:"merchant_id"`

	// Applicant personal and employment data
	FullName         string          `gorm:"type:varchar(255);not null" json:"full_name"`
	DNI              string          `gorm:"type:varchar(20);not null;index" json:"dni"`
	Address          string          `gorm:"type:varchar(255)" json:"address"`
	Phone            string          `gorm:"type:varchar(20)" json:"phone"`
	Email            string          `gorm:"type:varchar(255)" json:"email"`
	EmployerName     string          `gorm:"type:varchar(255)" json:"employer_name"`
	EmployerPhone    string          `gorm:"type:varchar(20)" json:"employer_phone"`
	MonthlyIncome    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"monthly_income"`
	EmploymentMonths int             `gorm:"default:0" json:"employment_months"`

	// Exactly two references, persisted in the order they were supplied
	References []Reference `gorm:"serializer:json;type:jsonb" json:"references"`

	State string `gorm:"type:varchar(20);not null;default:'pendiente';index" json:"state"`

	// Approver identity — exactly one of the two is set on approval/rejection,
	// chosen by the reviewer's role
	AnalystApproverID *uuid.UUID `gorm:"type:uuid" json:"analyst_approver_id,omitempty"`
	AdminApproverID   *uuid.UUID `gorm:"type:uuid" json:"admin_approver_id,omitempty"`

	// Assigned on approval only
	CardNumber    string `gorm:"type:varchar(30)" json:"card_number,omitempty"`
	AccountNumber string `gorm:"type:varchar(30)" json:"account_number,omitempty"`

	// Back-link set when the contract is generated
	ContractID *uuid.UUID `gorm:"type:uuid" json:"contract_id,omitempty"`

	// Append-only comment log; entry 0 is the initial comment from creation
	Comments []string `gorm:"serializer:json;type:jsonb" json:"comments"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppendComment adds an entry to the append-only comment log.
func (f *FormalApplication) AppendComment(comment string) {
	f.Comments = append(f.Comments, comment)
}

// SetApprover records the reviewer into the field matching their role,
// clearing the other so the pair stays mutually exclusive.
func (f *FormalApplication) SetApprover(approverID uuid.UUID, isAdmin bool) {
	if isAdmin {
		f.AdminApproverID = &approverID
		f.AnalystApproverID = nil
		return
	}
	f.AnalystApproverID = &approverID
	f.AdminApproverID = nil
}
