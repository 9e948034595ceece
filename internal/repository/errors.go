package repository

import (
	"errors"
	"fmt"

	"maid-market/internal/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

// Not-found errors wrap domain.ErrNotFound so callers can match either.
var (
	ErrServiceNotFound  = fmt.Errorf("service %w", domain.ErrNotFound)
	ErrProviderNotFound = fmt.Errorf("provider %w", domain.ErrNotFound)
	ErrListingNotFound  = fmt.Errorf("listing %w", domain.ErrNotFound)
	ErrOfferNotFound    = fmt.Errorf("offer %w", domain.ErrNotFound)
	ErrBookingNotFound  = fmt.Errorf("booking %w", domain.ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("user %w", domain.ErrNotFound)

	ErrBookingAlreadyExists = fmt.Errorf("%w: booking already exists for this offer", domain.ErrConflict)
	ErrUserAlreadyExists    = fmt.Errorf("%w: user with this phone already exists", domain.ErrConflict)
)

const uniqueViolation = "23505"

// isUniqueViolation reports whether err carries a postgres unique_violation
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
