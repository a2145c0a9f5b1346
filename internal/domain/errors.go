package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// tag does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned by the service when a clone destination name
// is already taken. It signals a naming conflict, not a transient condition.
// Handlers should map this to HTTP 409 Conflict.
var ErrAlreadyExists = errors.New("already exists")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. empty tag name).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")
