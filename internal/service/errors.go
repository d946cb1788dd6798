package service

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrConflict          = errors.New("conflict")
	ErrMisconfigured     = errors.New("auth config invalid")
	ErrIncorrectPassword = errors.New("current password is wrong")
)
