package models

// LoginRequest represents the request body for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest represents the request body for user registration
type RegisterRequest struct {
	Name     string  `json:"name" binding:"required"`
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=6"`
	BirthAt  *string `json:"birth_at,omitempty" binding:"omitempty,datetime=2006-01-02"`
}

// ForgetRequest represents the request body for the forgot-password flow
type ForgetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetRequest represents the request body for the reset-password flow
type ResetRequest struct {
	Password string `json:"password" binding:"required,min=6"`
	Token    string `json:"token" binding:"required"`
}
