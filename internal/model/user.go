package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role tag constants — a single User record carries one of these instead of
// separate Administrator/Analyst/Merchant entities.
const (
	RoleAdmin    = "administrador"
	RoleAnalyst  = "analista"
	RoleMerchant = "comerciante"
	RoleClient   = "cliente"
)

// User represents any actor in the system: administrators and analysts review
// formal applications, merchants submit applications on behalf of clients, and
// clients are the credit holders themselves.
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Username string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	Email    string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Phone    string    `gorm:"type:varchar(20)" json:"phone"`
	Password string    `gorm:"type:varchar(255);not null" json:"-"` // Omit password from JSON requests/responses
	Role     string    `gorm:"type:varchar(50);not null;index" json:"role"`

	// Client payload — only meaningful when Role is "cliente"
	DNI     string `gorm:"type:varchar(20);index" json:"dni,omitempty"`  // national id
	CUIL    string `gorm:"type:varchar(20)" json:"cuil,omitempty"`       // tax id
	Address string `gorm:"type:varchar(255)" json:"address,omitempty"`

	// Merchant payload — only meaningful when Role is "comerciante"
	BusinessName string `gorm:"type:varchar(255)" json:"business_name,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}

// IsReviewer reports whether the user may approve or reject formal applications.
func (u *User) IsReviewer() bool {
	return u.Role == RoleAdmin || u.Role == RoleAnalyst
}

// RefreshToken stores long-lived tokens allowing users to request new access tokens
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
