package model

import "time"

// Roles a user can hold. Closed set, enforced by input validation and the
// collection schema.
const (
	RoleHostPrivate     = "HOST_PRIVATE"
	RoleCleaner         = "CLEANER"
	RoleCleaningCompany = "CLEANING_COMPANY"
	RolePMCompany       = "PM_COMPANY"
)

type User struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Username     string    `json:"username" bson:"username" validate:"required,min=3,max=64"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	Name         string    `json:"name,omitempty" bson:"name,omitempty" validate:"omitempty,max=100"`
	Role         string    `json:"role" bson:"role" validate:"required,oneof=HOST_PRIVATE CLEANER CLEANING_COMPANY PM_COMPANY"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

type UserUpdate struct {
	Name *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Role string  `json:"role,omitempty" validate:"omitempty,oneof=HOST_PRIVATE CLEANER CLEANING_COMPANY PM_COMPANY"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Name     string `json:"name,omitempty" validate:"omitempty,max=100"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=HOST_PRIVATE CLEANER CLEANING_COMPANY PM_COMPANY"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}
