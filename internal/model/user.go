package model

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

// User is the identity record owned by the user store. The auth pipeline only reads it.
type User struct {
	ID                int64
	Email             string
	Name              string
	PasswordHash      string
	Role              Role
	Active            bool
	PasswordChangedAt *time.Time
	APIKeyDigest      *string
	APIKeyExpiresAt   *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type UserResponse struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	Role            Role       `json:"role"`
	APIKeyExpiresAt *time.Time `json:"apiKeyExpires,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Sanitize drops the password hash and API key digest.
func (u *User) Sanitize() *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Role:            u.Role,
		APIKeyExpiresAt: u.APIKeyExpiresAt,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}
