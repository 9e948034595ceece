package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"maid-market/internal/domain"
)

// ListingRepository defines data access for listings
type ListingRepository interface {
	Create(ctx context.Context, listing *domain.Listing) error
	List(ctx context.Context) ([]*domain.Listing, error)
	FindByID(ctx context.Context, id string) (*domain.Listing, error)
}

type listingRepository struct {
	db *sql.DB
}

// NewListingRepository creates a postgres backed ListingRepository
func NewListingRepository(db *sql.DB) ListingRepository {
	return &listingRepository{db: db}
}

// Create inserts a new listing using parameterized queries
func (r *listingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	query := `
		INSERT INTO listings (id, provider_id, service_id, title, base_price, details)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		listing.ID,
		listing.ProviderID,
		listing.ServiceID,
		listing.Title,
		listing.BasePrice,
		listing.Details,
	)
	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}

	return nil
}

// List retrieves all listings in insertion order
func (r *listingRepository) List(ctx context.Context) ([]*domain.Listing, error) {
	query := `
		SELECT id, provider_id, service_id, title, base_price, details
		FROM listings
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	defer rows.Close()

	listings := []*domain.Listing{}
	for rows.Next() {
		l := &domain.Listing{}
		if err := rows.Scan(&l.ID, &l.ProviderID, &l.ServiceID, &l.Title, &l.BasePrice, &l.Details); err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, l)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating listings: %w", err)
	}

	return listings, nil
}

// FindByID retrieves a listing by ID
func (r *listingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	query := `
		SELECT id, provider_id, service_id, title, base_price, details
		FROM listings
		WHERE id = $1
	`

	l := &domain.Listing{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&l.ID, &l.ProviderID, &l.ServiceID, &l.Title, &l.BasePrice, &l.Details)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to find listing by ID: %w", err)
	}

	return l, nil
}
