package users

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin Role = "ADMIN"
	// RoleAgent sells and checks in tickets at a counter.
	RoleAgent Role = "AGENT"
)

// User is an operator account. Passengers do not log in.
type User struct {
	ID          uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid;default:uuid_generate_v4()"`
	FirstName   string     `json:"first_name" gorm:"not null"`
	LastName    string     `json:"last_name" gorm:"not null"`
	Password    string     `json:"-" gorm:"not null"`
	Role        Role       `json:"role" gorm:"not null;default:'AGENT'"`
	Email       string     `json:"email" gorm:"uniqueIndex;not null"`
	CompanyID   *uuid.UUID `json:"company_id,omitempty" gorm:"type:uuid;index"`
	Active      bool       `json:"active" gorm:"not null;default:true"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// DisplayName is printed on tickets the operator issued.
func (u *User) DisplayName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

func IsValidRole(role string) bool {
	switch Role(role) {
	case RoleAdmin, RoleAgent:
		return true
	default:
		return false
	}
}
