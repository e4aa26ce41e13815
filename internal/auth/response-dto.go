package auth

import (
	"time"

	"busline/internal/users"
)

type AuthResponse struct {
	Operator OperatorResponse `json:"operator"`
	TokenPair
}

// OperatorResponse is a users.User without the password hash.
type OperatorResponse struct {
	ID          string     `json:"id"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       string     `json:"email"`
	Role        users.Role `json:"role"`
	CompanyID   string     `json:"company_id,omitempty"`
	Active      bool       `json:"active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toOperatorResponse(u *users.User) OperatorResponse {
	resp := OperatorResponse{
		ID:          u.ID.String(),
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Role:        u.Role,
		Active:      u.Active,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
	if u.CompanyID != nil {
		resp.CompanyID = u.CompanyID.String()
	}
	return resp
}
