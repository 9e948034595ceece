package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"maid-market/internal/domain"
)

// ReviewRepository defines data access for reviews
type ReviewRepository interface {
	// Record stores the review and rewrites the provider's rating average and
	// count from all of its reviews, atomically. A review for a provider with
	// no profile is still stored.
	Record(ctx context.Context, review *domain.Review) (domain.RatingSummary, error)
	ListByProvider(ctx context.Context, providerID string) ([]*domain.Review, error)
}

type reviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a postgres backed ReviewRepository
func NewReviewRepository(db *sql.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Record inserts the review and updates the provider rating in one
// transaction. The provider row is locked first so concurrent reviews for one
// provider apply in order.
func (r *reviewRepository) Record(ctx context.Context, review *domain.Review) (domain.RatingSummary, error) {
	var summary domain.RatingSummary

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var locked string
	err = tx.QueryRowContext(ctx, `SELECT id FROM providers WHERE id = $1 FOR UPDATE`, review.ProviderID).Scan(&locked)
	switch {
	case err == nil:
		summary.ProviderUpdated = true
	case errors.Is(err, sql.ErrNoRows):
	default:
		return summary, fmt.Errorf("failed to lock provider: %w", err)
	}

	query := `
		INSERT INTO reviews (id, booking_id, customer_id, provider_id, rating, text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = tx.ExecContext(
		ctx,
		query,
		review.ID,
		review.BookingID,
		review.CustomerID,
		review.ProviderID,
		review.Rating,
		review.Text,
		review.CreatedAt,
	)
	if err != nil {
		return summary, fmt.Errorf("failed to create review: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `SELECT rating FROM reviews WHERE provider_id = $1`, review.ProviderID)
	if err != nil {
		return summary, fmt.Errorf("failed to read ratings: %w", err)
	}
	var ratings []*domain.Review
	for rows.Next() {
		rv := &domain.Review{}
		if err := rows.Scan(&rv.Rating); err != nil {
			rows.Close()
			return summary, fmt.Errorf("failed to scan rating: %w", err)
		}
		ratings = append(ratings, rv)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return summary, fmt.Errorf("error iterating ratings: %w", err)
	}
	summary.Avg, summary.Count = domain.AverageRating(ratings)

	if summary.ProviderUpdated {
		if err := updateProviderRating(ctx, tx, review.ProviderID, summary.Avg, summary.Count); err != nil {
			return summary, err
		}
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("failed to commit review: %w", err)
	}

	return summary, nil
}

// ListByProvider retrieves every review attributed to a provider.
// idx_reviews_provider_id backs the lookup.
func (r *reviewRepository) ListByProvider(ctx context.Context, providerID string) ([]*domain.Review, error) {
	query := `
		SELECT id, booking_id, customer_id, provider_id, rating, text, created_at
		FROM reviews
		WHERE provider_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*domain.Review{}
	for rows.Next() {
		rv := &domain.Review{}
		if err := rows.Scan(&rv.ID, &rv.BookingID, &rv.CustomerID, &rv.ProviderID, &rv.Rating, &rv.Text, &rv.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}
