package models

import "accounts-api/internal/entities"

// AuthResponse represents the response after successful authentication.
// The embedded user never serializes its password hash.
type AuthResponse struct {
	Token string         `json:"token"`
	User  *entities.User `json:"user"`
}

// RegisterResponse represents the response after user registration
type RegisterResponse struct {
	Message string         `json:"message"`
	Token   string         `json:"token"`
	User    *entities.User `json:"user"`
}
