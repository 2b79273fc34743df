package models

import "errors"

// Классы ошибок. Конкретные причины оборачиваются через fmt.Errorf("%w: ...").
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("invalid state")
	ErrIneligible      = errors.New("user is not eligible")
	ErrRoleMismatch    = errors.New("role mismatch")
	ErrPersistence     = errors.New("persistence failure")
)
