package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"maid-market/internal/domain"
)

// OfferRepository defines data access for offers and their message threads
type OfferRepository interface {
	Create(ctx context.Context, offer *domain.Offer) error
	// Update persists price, status and any messages appended since the last save
	Update(ctx context.Context, offer *domain.Offer) error
	// AcceptWithBooking saves the accepted offer and its booking together.
	// Neither is written when either fails. A second booking for the offer
	// fails with ErrBookingAlreadyExists.
	AcceptWithBooking(ctx context.Context, offer *domain.Offer, booking *domain.Booking) error
	List(ctx context.Context) ([]*domain.Offer, error)
	FindByID(ctx context.Context, id string) (*domain.Offer, error)
}

type offerRepository struct {
	db *sql.DB
}

// NewOfferRepository creates a postgres backed OfferRepository
func NewOfferRepository(db *sql.DB) OfferRepository {
	return &offerRepository{db: db}
}

// Create inserts the offer row and its initial messages in one transaction
func (r *offerRepository) Create(ctx context.Context, offer *domain.Offer) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO offers (id, listing_id, customer_id, provider_id, scope, price, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = tx.ExecContext(
		ctx,
		query,
		offer.ID,
		offer.ListingID,
		offer.CustomerID,
		offer.ProviderID,
		offer.Scope,
		offer.Price,
		string(offer.Status),
		offer.CreatedAt,
		offer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create offer: %w", err)
	}

	if err := insertMessages(ctx, tx, offer); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit offer: %w", err)
	}

	return nil
}

// Update writes the mutable offer fields and appends new messages
func (r *offerRepository) Update(ctx context.Context, offer *domain.Offer) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := updateOffer(ctx, tx, offer); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit offer: %w", err)
	}

	return nil
}

// AcceptWithBooking inserts the booking and updates the offer in one transaction
func (r *offerRepository) AcceptWithBooking(ctx context.Context, offer *domain.Offer, booking *domain.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertBooking(ctx, tx, booking); err != nil {
		return err
	}
	if err := updateOffer(ctx, tx, offer); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit accepted offer: %w", err)
	}

	return nil
}

func updateOffer(ctx context.Context, tx *sql.Tx, offer *domain.Offer) error {
	query := `
		UPDATE offers
		SET price = $2, status = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := tx.ExecContext(ctx, query, offer.ID, offer.Price, string(offer.Status), offer.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update offer: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrOfferNotFound
	}

	return insertMessages(ctx, tx, offer)
}

// insertMessages stores the thread by position; existing positions are kept
// because messages are append-only.
func insertMessages(ctx context.Context, tx *sql.Tx, offer *domain.Offer) error {
	query := `
		INSERT INTO offer_messages (offer_id, seq, sender, text, price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (offer_id, seq) DO NOTHING
	`

	for i, m := range offer.Messages {
		var price sql.NullFloat64
		if m.Price != nil {
			price = sql.NullFloat64{Float64: *m.Price, Valid: true}
		}
		if _, err := tx.ExecContext(ctx, query, offer.ID, i, string(m.By), m.Text, price, m.At); err != nil {
			return fmt.Errorf("failed to insert offer message: %w", err)
		}
	}

	return nil
}

// List retrieves all offers with their messages
func (r *offerRepository) List(ctx context.Context) ([]*domain.Offer, error) {
	query := `
		SELECT id, listing_id, customer_id, provider_id, scope, price, status, created_at, updated_at
		FROM offers
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}
	defer rows.Close()

	offers := []*domain.Offer{}
	byID := make(map[string]*domain.Offer)
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}
		offers = append(offers, o)
		byID[o.ID] = o
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating offers: %w", err)
	}

	msgRows, err := r.db.QueryContext(ctx, `
		SELECT offer_id, sender, text, price, created_at
		FROM offer_messages
		ORDER BY offer_id, seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list offer messages: %w", err)
	}
	defer msgRows.Close()

	for msgRows.Next() {
		var offerID string
		m, err := scanMessage(msgRows, &offerID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer message: %w", err)
		}
		if o, ok := byID[offerID]; ok {
			o.Messages = append(o.Messages, m)
		}
	}
	if err = msgRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating offer messages: %w", err)
	}

	return offers, nil
}

// FindByID retrieves an offer and its messages
func (r *offerRepository) FindByID(ctx context.Context, id string) (*domain.Offer, error) {
	query := `
		SELECT id, listing_id, customer_id, provider_id, scope, price, status, created_at, updated_at
		FROM offers
		WHERE id = $1
	`

	o, err := scanOffer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOfferNotFound
		}
		return nil, fmt.Errorf("failed to find offer by ID: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT offer_id, sender, text, price, created_at
		FROM offer_messages
		WHERE offer_id = $1
		ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load offer messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var offerID string
		m, err := scanMessage(rows, &offerID)
		if err != nil {
			return nil, fmt.Errorf("failed to scan offer message: %w", err)
		}
		o.Messages = append(o.Messages, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating offer messages: %w", err)
	}

	return o, nil
}

func scanOffer(row interface{ Scan(...any) error }) (*domain.Offer, error) {
	o := &domain.Offer{Messages: []domain.Message{}}
	var status string
	err := row.Scan(
		&o.ID,
		&o.ListingID,
		&o.CustomerID,
		&o.ProviderID,
		&o.Scope,
		&o.Price,
		&status,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	o.Status = domain.OfferStatus(status)
	return o, err
}

func scanMessage(row interface{ Scan(...any) error }, offerID *string) (domain.Message, error) {
	var (
		m      domain.Message
		sender string
		price  sql.NullFloat64
	)
	if err := row.Scan(offerID, &sender, &m.Text, &price, &m.At); err != nil {
		return m, err
	}
	m.By = domain.SenderRole(sender)
	if price.Valid {
		p := price.Float64
		m.Price = &p
	}
	return m, nil
}
