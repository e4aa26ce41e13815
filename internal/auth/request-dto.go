package auth

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// RegisterRequest opens an operator account. Role defaults to AGENT; agents belong to a company.
type RegisterRequest struct {
	FirstName string `json:"first_name" binding:"required,min=2,max=100"`
	LastName  string `json:"last_name" binding:"required,min=2,max=100"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=6"`
	Role      string `json:"role" binding:"omitempty,oneof=AGENT ADMIN"`
	CompanyID string `json:"company_id,omitempty" binding:"omitempty,uuid"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6,nefield=CurrentPassword"`
}

type OperatorQuery struct {
	CompanyID string `form:"company_id" binding:"omitempty,uuid"`
	Role      string `form:"role" binding:"omitempty,oneof=AGENT ADMIN"`
	Active    *bool  `form:"active"`
}
