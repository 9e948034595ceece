package service

import (
	"context"
	"fmt"
	"strings"

	"maid-market/internal/domain"
	"maid-market/internal/events"
	"maid-market/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReviewService records reviews and keeps provider ratings in step with them
type ReviewService interface {
	RecordReview(ctx context.Context, bookingID, customerID, providerID string, rating int, text string) (*domain.Review, error)
	ListByProvider(ctx context.Context, providerID string) ([]*domain.Review, error)
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	catalog    CatalogService
	obs        Observers
}

// NewReviewService creates a new instance of ReviewService. catalog may be nil;
// when set its cached providers are dropped after each rating change.
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	catalog CatalogService,
	obs Observers,
) ReviewService {
	return &reviewService{
		reviewRepo: reviewRepo,
		catalog:    catalog,
		obs:        obs.withDefaults(),
	}
}

// RecordReview appends a review and recomputes the provider's rating
func (s *reviewService) RecordReview(ctx context.Context, bookingID, customerID, providerID string, rating int, text string) (*domain.Review, error) {
	bookingID = strings.TrimSpace(bookingID)
	customerID = strings.TrimSpace(customerID)
	providerID = strings.TrimSpace(providerID)
	if bookingID == "" || customerID == "" || providerID == "" {
		return nil, fmt.Errorf("%w: bookingId, customerId and providerId are required", domain.ErrInvalidArgument)
	}
	if rating < domain.MinRating || rating > domain.MaxRating {
		return nil, fmt.Errorf("%w: rating must be between %d and %d", domain.ErrInvalidArgument, domain.MinRating, domain.MaxRating)
	}

	review := &domain.Review{
		ID:         uuid.New().String(),
		BookingID:  bookingID,
		CustomerID: customerID,
		ProviderID: providerID,
		Rating:     rating,
		Text:       text,
		CreatedAt:  s.obs.Now(),
	}
	summary, err := s.reviewRepo.Record(ctx, review)
	if err != nil {
		return nil, fmt.Errorf("failed to record review: %w", err)
	}
	if !summary.ProviderUpdated {
		s.obs.Logger.Debug("Review for unknown provider", zap.String("provider_id", providerID))
	} else if s.catalog != nil {
		s.catalog.InvalidateProviders(ctx)
	}
	avg, count := summary.Avg, summary.Count

	s.obs.Logger.Info("Review recorded",
		zap.String("review_id", review.ID),
		zap.String("provider_id", providerID),
		zap.Int("rating", rating),
		zap.Float64("rating_avg", avg),
		zap.Int("rating_count", count),
	)
	s.obs.Metrics.ReviewRecorded()
	s.obs.publish(ctx, events.SubjectReviewRecorded, events.ReviewEvent{
		Review:      review,
		RatingAvg:   avg,
		RatingCount: count,
	})

	return review, nil
}

func (s *reviewService) ListByProvider(ctx context.Context, providerID string) ([]*domain.Review, error) {
	reviews, err := s.reviewRepo.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}
