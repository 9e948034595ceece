package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"maid-market/internal/cache"
	"maid-market/internal/domain"
	"maid-market/internal/events"
	"maid-market/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Cache keys for catalog reads
const (
	CacheKeyServices  = "services"
	CacheKeyProviders = "providers"
	CacheKeyListings  = "listings"
)

// CreateListingInput carries the fields of a new listing
type CreateListingInput struct {
	ProviderID string
	ServiceID  string
	Title      string
	BasePrice  float64
	Details    string
}

// CatalogService serves services, providers and listings
type CatalogService interface {
	ListServices(ctx context.Context) ([]*domain.Service, error)
	ListProviders(ctx context.Context) ([]*domain.Provider, error)
	ListListings(ctx context.Context) ([]*domain.Listing, error)
	CreateListing(ctx context.Context, in CreateListingInput) (*domain.Listing, error)
	// InvalidateProviders drops cached providers after a rating change
	InvalidateProviders(ctx context.Context)
}

type catalogService struct {
	serviceRepo  repository.ServiceRepository
	providerRepo repository.ProviderRepository
	listingRepo  repository.ListingRepository
	cache        cache.Cache
	ttl          time.Duration
	group        singleflight.Group
	obs          Observers

	// generations counts invalidations per key. A load only fills the cache
	// if no invalidation happened since it started.
	genMu       sync.Mutex
	generations map[string]uint64
}

// NewCatalogService creates a new instance of CatalogService. A nil cache
// disables caching.
func NewCatalogService(
	serviceRepo repository.ServiceRepository,
	providerRepo repository.ProviderRepository,
	listingRepo repository.ListingRepository,
	c cache.Cache,
	ttl time.Duration,
	obs Observers,
) CatalogService {
	return &catalogService{
		serviceRepo:  serviceRepo,
		providerRepo: providerRepo,
		listingRepo:  listingRepo,
		cache:        c,
		ttl:          ttl,
		obs:          obs.withDefaults(),
		generations:  make(map[string]uint64),
	}
}

func (s *catalogService) ListServices(ctx context.Context) ([]*domain.Service, error) {
	return cached(ctx, s, CacheKeyServices, s.serviceRepo.List)
}

func (s *catalogService) ListProviders(ctx context.Context) ([]*domain.Provider, error) {
	return cached(ctx, s, CacheKeyProviders, s.providerRepo.List)
}

func (s *catalogService) ListListings(ctx context.Context) ([]*domain.Listing, error) {
	return cached(ctx, s, CacheKeyListings, s.listingRepo.List)
}

// CreateListing validates and stores a new listing
func (s *catalogService) CreateListing(ctx context.Context, in CreateListingInput) (*domain.Listing, error) {
	in.ProviderID = strings.TrimSpace(in.ProviderID)
	in.ServiceID = strings.TrimSpace(in.ServiceID)
	in.Title = strings.TrimSpace(in.Title)
	if in.ProviderID == "" || in.ServiceID == "" || in.Title == "" {
		return nil, fmt.Errorf("%w: providerId, serviceId and title are required", domain.ErrInvalidArgument)
	}
	if math.IsNaN(in.BasePrice) || math.IsInf(in.BasePrice, 0) || in.BasePrice <= 0 {
		return nil, fmt.Errorf("%w: basePrice must be a positive number", domain.ErrInvalidArgument)
	}

	listing := &domain.Listing{
		ID:         uuid.New().String(),
		ProviderID: in.ProviderID,
		ServiceID:  in.ServiceID,
		Title:      in.Title,
		BasePrice:  in.BasePrice,
		Details:    in.Details,
	}
	if err := s.listingRepo.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}
	s.invalidate(ctx, CacheKeyListings)

	s.obs.Logger.Info("Listing created",
		zap.String("listing_id", listing.ID),
		zap.String("provider_id", listing.ProviderID),
	)
	s.obs.Metrics.ListingCreated()
	s.obs.publish(ctx, events.SubjectListingCreated, listing)

	return listing, nil
}

func (s *catalogService) InvalidateProviders(ctx context.Context) {
	s.invalidate(ctx, CacheKeyProviders)
}

func (s *catalogService) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}

	s.genMu.Lock()
	defer s.genMu.Unlock()
	for _, k := range keys {
		s.generations[k]++
		s.group.Forget(k)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.obs.Logger.Warn("Failed to invalidate catalog cache", zap.Strings("keys", keys), zap.Error(err))
	}
}

func (s *catalogService) generation(key string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.generations[key]
}

// fill stores raw under key unless key was invalidated after generation gen was read
func (s *catalogService) fill(ctx context.Context, key string, gen uint64, raw []byte) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.generations[key] != gen {
		s.obs.Logger.Debug("Skipping stale catalog cache fill", zap.String("key", key))
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl); err != nil {
		s.obs.Logger.Warn("Failed to fill catalog cache", zap.String("key", key), zap.Error(err))
	}
}

// cached reads key from the cache, falling back to load on a miss or a cache
// error. Concurrent misses for one key share a single load.
func cached[T any](ctx context.Context, s *catalogService, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	if s.cache == nil {
		return listOrFail(ctx, key, load)
	}

	if raw, err := s.cache.Get(ctx, key); err == nil {
		var out []T
		if err := json.Unmarshal(raw, &out); err == nil {
			return out, nil
		}
		s.obs.Logger.Warn("Discarding undecodable cache entry", zap.String("key", key))
	} else if !errors.Is(err, cache.ErrMiss) {
		s.obs.Logger.Warn("Catalog cache unavailable", zap.String("key", key), zap.Error(err))
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		gen := s.generation(key)
		items, err := listOrFail(ctx, key, load)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(items); err == nil {
			s.fill(ctx, key, gen, raw)
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]T), nil
}

func listOrFail[T any](ctx context.Context, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	items, err := load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", key, err)
	}
	return items, nil
}
