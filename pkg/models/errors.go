package models

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrBlocked            = errors.New("blocked by incomplete dependencies")
	ErrInvalidID          = errors.New("invalid id")
	ErrInvalidName        = errors.New("invalid name")
	ErrInvalidTitle       = errors.New("invalid title")
	ErrInvalidDescription = errors.New("invalid description")
	ErrInvalidStatus      = errors.New("invalid status")
	ErrInvalidDependency  = errors.New("invalid dependency")
)

// IsValidation reports whether err is caused by bad caller input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidName) ||
		errors.Is(err, ErrInvalidTitle) ||
		errors.Is(err, ErrInvalidDescription) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrInvalidDependency)
}
