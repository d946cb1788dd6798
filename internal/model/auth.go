package model

import "time"

type RegisterRequest struct {
	Name            string `json:"name" binding:"required,min=2,max=100"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8,max=50"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password"`
	Role            Role   `json:"role" binding:"omitempty,oneof=user admin"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	Password        string `json:"password" binding:"required,min=8,max=50"`
	PasswordConfirm string `json:"passwordConfirm" binding:"required,eqfield=Password"`
}

type AuthResponse struct {
	Status string        `json:"status"`
	Token  string        `json:"token"`
	Data   *UserResponse `json:"data"`
}

type APIKeyResponse struct {
	Status    string    `json:"status"`
	APIKey    string    `json:"apiKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IssuedAPIKey is the only place the raw key exists after issuance.
type IssuedAPIKey struct {
	Key       string
	ExpiresAt time.Time
}
