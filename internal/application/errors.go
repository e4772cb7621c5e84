package application

import (
	"errors"
	"fmt"
)

// ErrMissingAuth is returned when no server, user, ticket or password can be
// resolved from the request and the persisted credential.
var ErrMissingAuth = errors.New("missing authentication: provide server, user and a password or ticket")

// ErrInvalidLimit is returned when a change listing is requested with a
// non-positive limit.
var ErrInvalidLimit = errors.New("limit must be a positive integer")

// MissingFieldError reports a required request field that was not supplied.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}
