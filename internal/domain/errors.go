package domain

import "errors"

// Error taxonomy shared by every service. Concrete errors wrap one of these
// with fmt.Errorf("%w: ...") so the transport layer can map them with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
)
