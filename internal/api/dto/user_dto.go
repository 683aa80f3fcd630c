package dto

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Email    string `json:"email" form:"email" validate:"required"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

// AuthResponse is the wire shape for register/login.
type AuthResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Token     string `json:"token,omitempty"`
	UserID    int64  `json:"user_id,omitempty"`
	IsPartner *bool  `json:"is_partner,omitempty"`
}
