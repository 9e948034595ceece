package repository

import (
	"context"
	"database/sql"
	"fmt"

	"maid-market/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
)

// ServiceRepository defines read access to the service catalog
type ServiceRepository interface {
	List(ctx context.Context) ([]*domain.Service, error)
}

type serviceRepository struct {
	db    *sql.DB
	types *pgtype.Map
}

// NewServiceRepository creates a postgres backed ServiceRepository
func NewServiceRepository(db *sql.DB) ServiceRepository {
	return &serviceRepository{db: db, types: pgtype.NewMap()}
}

// List retrieves all services ordered by id
func (r *serviceRepository) List(ctx context.Context) ([]*domain.Service, error) {
	query := `
		SELECT id, name, categories
		FROM services
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	services := []*domain.Service{}
	for rows.Next() {
		service := &domain.Service{}
		if err := rows.Scan(&service.ID, &service.Name, r.types.SQLScanner(&service.Categories)); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, service)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating services: %w", err)
	}

	return services, nil
}
