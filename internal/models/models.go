package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Account is a row of the users table. Only administrator accounts are
// written by this tool, but the table is shared with the application that
// owns the schema.
type Account struct {
	ID              uint       `gorm:"primarykey" json:"id"`
	PublicID        string     `gorm:"uniqueIndex;size:36" json:"public_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Email           string     `gorm:"uniqueIndex;not null" json:"email"`
	FullName        string     `gorm:"not null" json:"full_name"`
	PasswordHash    string     `gorm:"column:hashed_password;not null" json:"-"`
	Role            string     `gorm:"not null;default:user" json:"role"`
	IsActive        bool       `json:"is_active"`
	PasswordResetAt *time.Time `json:"password_reset_at,omitempty"`
}

func (Account) TableName() string {
	return "users"
}

func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.PublicID == "" {
		a.PublicID = uuid.NewString()
	}
	return nil
}

func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// NormalizeEmail is the canonical form used for both lookups and inserts.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
