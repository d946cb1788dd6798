package service

import "github.com/catalog-api/backend/internal/model"

// Authorize allows user when required is empty or contains user's role exactly.
// Roles carry no ordering: admin does not imply user.
func Authorize(user *model.User, required []model.Role) FailureReason {
	if len(required) == 0 {
		return ReasonNone
	}
	if user == nil {
		return ReasonInsufficientRole
	}
	for _, role := range required {
		if user.Role == role {
			return ReasonNone
		}
	}
	return ReasonInsufficientRole
}
