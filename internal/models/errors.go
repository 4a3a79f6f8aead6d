package models

import "errors"

// General errors. Services translate gorm errors into these at the
// store boundary; the controllers map them onto HTTP statuses.
var (
	ErrGeneral          = errors.New("an error occurred on the server during your request")
	ErrResourceNotFound = errors.New("there is no resource for the ID you specified")
	ErrForbidden        = errors.New("you are not allowed to perform this action on the resource")
	ErrConflict         = errors.New("the request conflicts with the current state of the resource")
	ErrPrecondition     = errors.New("the status transition you requested is not allowed")
)

// Validation errors shared between models.
var (
	ErrAmountNotPositive = errors.New("amounts must be larger than zero")
	ErrInvalidEnumValue  = errors.New("the value is not valid for this field")
)
