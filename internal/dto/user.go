package dto

import (
	"github.com/soadesk/billing_backoffice/internal/core/domain"
)

// LoginRequest is the credential payload for token issuance.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the bearer token and the user's capabilities.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// CreateUserRequest registers a back-office operator.
type CreateUserRequest struct {
	Username    string          `json:"username" binding:"required"`
	Password    string          `json:"password" binding:"required,min=8"`
	DisplayName string          `json:"displayName"`
	Role        domain.UserRole `json:"role" binding:"required,oneof=admin biller reviewer viewer"`
}

// UserResponse is the API shape of a user.
type UserResponse struct {
	UserID      string `json:"userID"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
}

// ToUserResponse converts a domain.User to its API shape.
func ToUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		UserID:      u.UserID,
		Username:    u.Username,
		DisplayName: u.EffectiveDisplayName(),
		Role:        string(u.Role),
	}
}
