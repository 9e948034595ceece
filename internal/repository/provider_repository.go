package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"maid-market/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
)

// ProviderRepository defines data access for provider profiles
type ProviderRepository interface {
	List(ctx context.Context) ([]*domain.Provider, error)
	FindByID(ctx context.Context, id string) (*domain.Provider, error)
	// UpdateRating writes both rating fields in a single statement
	UpdateRating(ctx context.Context, id string, avg float64, count int) error
}

type providerRepository struct {
	db    *sql.DB
	types *pgtype.Map
}

// NewProviderRepository creates a postgres backed ProviderRepository
func NewProviderRepository(db *sql.DB) ProviderRepository {
	return &providerRepository{db: db, types: pgtype.NewMap()}
}

const providerColumns = `id, user_id, full_name, skills, locations, base_rate, rating_avg, rating_count`

func (r *providerRepository) scan(row interface{ Scan(...any) error }) (*domain.Provider, error) {
	p := &domain.Provider{}
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.FullName,
		r.types.SQLScanner(&p.Skills),
		r.types.SQLScanner(&p.Locations),
		&p.BaseRate,
		&p.RatingAvg,
		&p.RatingCount,
	)
	return p, err
}

// List retrieves all providers
func (r *providerRepository) List(ctx context.Context) ([]*domain.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list providers: %w", err)
	}
	defer rows.Close()

	providers := []*domain.Provider{}
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan provider: %w", err)
		}
		providers = append(providers, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating providers: %w", err)
	}

	return providers, nil
}

// FindByID retrieves a provider by ID
func (r *providerRepository) FindByID(ctx context.Context, id string) (*domain.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers WHERE id = $1`

	p, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("failed to find provider by ID: %w", err)
	}

	return p, nil
}

// UpdateRating sets the provider's rating average and count
func (r *providerRepository) UpdateRating(ctx context.Context, id string, avg float64, count int) error {
	return updateProviderRating(ctx, r.db, id, avg, count)
}

func updateProviderRating(ctx context.Context, ex execer, id string, avg float64, count int) error {
	query := `
		UPDATE providers
		SET rating_avg = $2, rating_count = $3
		WHERE id = $1
	`

	result, err := ex.ExecContext(ctx, query, id, avg, count)
	if err != nil {
		return fmt.Errorf("failed to update provider rating: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProviderNotFound
	}

	return nil
}
