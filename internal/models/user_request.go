package models

// CreateUserRequest represents the request body for creating a user
type CreateUserRequest struct {
	Name     string  `json:"name" binding:"required"`
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=6"`
	BirthAt  *string `json:"birth_at,omitempty" binding:"omitempty,datetime=2006-01-02"`
	Role     *string `json:"role,omitempty" binding:"omitempty,oneof=user admin"`
}

// UpdateUserRequest represents the request body for a full (PUT) update.
// Every field is replaced; the password is rehashed.
type UpdateUserRequest struct {
	Name     string  `json:"name" binding:"required"`
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=6"`
	BirthAt  *string `json:"birth_at" binding:"omitempty,datetime=2006-01-02"`
	Role     string  `json:"role" binding:"required,oneof=user admin"`
}

// PatchUserRequest represents the request body for a partial (PATCH) update.
// Only fields present in the request are touched.
type PatchUserRequest struct {
	Name     *string `json:"name,omitempty" binding:"omitempty,min=1"`
	Email    *string `json:"email,omitempty" binding:"omitempty,email"`
	Password *string `json:"password,omitempty" binding:"omitempty,min=6"`
	BirthAt  *string `json:"birth_at,omitempty" binding:"omitempty,datetime=2006-01-02"`
	Role     *string `json:"role,omitempty" binding:"omitempty,oneof=user admin"`
}
