package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"maid-market/internal/domain"
)

// BookingRepository defines data access for bookings
type BookingRepository interface {
	// Create fails with ErrBookingAlreadyExists if the offer already has a booking
	Create(ctx context.Context, booking *domain.Booking) error
	List(ctx context.Context) ([]*domain.Booking, error)
	FindByOfferID(ctx context.Context, offerID string) (*domain.Booking, error)
}

type bookingRepository struct {
	db *sql.DB
}

// NewBookingRepository creates a postgres backed BookingRepository
func NewBookingRepository(db *sql.DB) BookingRepository {
	return &bookingRepository{db: db}
}

// Create inserts a new booking. bookings.offer_id is unique.
func (r *bookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	return insertBooking(ctx, r.db, booking)
}

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertBooking(ctx context.Context, ex execer, booking *domain.Booking) error {
	query := `
		INSERT INTO bookings (id, listing_id, offer_id, customer_id, provider_id, date, price, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := ex.ExecContext(
		ctx,
		query,
		booking.ID,
		booking.ListingID,
		booking.OfferID,
		booking.CustomerID,
		booking.ProviderID,
		booking.Date,
		booking.Price,
		string(booking.Status),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrBookingAlreadyExists
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

// List retrieves all bookings
func (r *bookingRepository) List(ctx context.Context) ([]*domain.Booking, error) {
	query := `
		SELECT id, listing_id, offer_id, customer_id, provider_id, date, price, status
		FROM bookings
		ORDER BY date ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	bookings := []*domain.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}

	return bookings, nil
}

// FindByOfferID retrieves the booking created from an offer
func (r *bookingRepository) FindByOfferID(ctx context.Context, offerID string) (*domain.Booking, error) {
	query := `
		SELECT id, listing_id, offer_id, customer_id, provider_id, date, price, status
		FROM bookings
		WHERE offer_id = $1
	`

	b, err := scanBooking(r.db.QueryRowContext(ctx, query, offerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to find booking by offer ID: %w", err)
	}

	return b, nil
}

func scanBooking(row interface{ Scan(...any) error }) (*domain.Booking, error) {
	b := &domain.Booking{}
	var status string
	err := row.Scan(&b.ID, &b.ListingID, &b.OfferID, &b.CustomerID, &b.ProviderID, &b.Date, &b.Price, &status)
	b.Status = domain.BookingStatus(status)
	return b, err
}
