package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"maid-market/internal/cache"
	"maid-market/internal/config"
	"maid-market/internal/database"
	"maid-market/internal/events"
	"maid-market/internal/metrics"
	custommiddleware "maid-market/internal/middleware"
	"maid-market/internal/realtime"
	"maid-market/internal/repository"
	"maid-market/internal/repository/memory"
	"maid-market/internal/service"
	"maid-market/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deps are the external connections the server uses. Nil members disable
// the feature they back: DB selects the postgres repositories, Redis enables
// caching and rate limiting, Publisher receives domain events.
type Deps struct {
	DB        *sql.DB
	Redis     *redis.Client
	Publisher events.Publisher
	// Closers run after shutdown, in order
	Closers []func()
}

type Server struct {
	*http.Server
	config  *config.Config
	logger  *zap.Logger
	deps    Deps
	metrics *metrics.Metrics
	hub     *realtime.Hub
}

type repositories struct {
	services  repository.ServiceRepository
	providers repository.ProviderRepository
	listings  repository.ListingRepository
	offers    repository.OfferRepository
	bookings  repository.BookingRepository
	reviews   repository.ReviewRepository
	users     repository.UserRepository
}

func postgresRepositories(db *sql.DB) repositories {
	return repositories{
		services:  repository.NewServiceRepository(db),
		providers: repository.NewProviderRepository(db),
		listings:  repository.NewListingRepository(db),
		offers:    repository.NewOfferRepository(db),
		bookings:  repository.NewBookingRepository(db),
		reviews:   repository.NewReviewRepository(db),
		users:     repository.NewUserRepository(db),
	}
}

func memoryRepositories(store *memory.Store) repositories {
	return repositories{
		services:  store.Services(),
		providers: store.Providers(),
		listings:  store.Listings(),
		offers:    store.Offers(),
		bookings:  store.Bookings(),
		reviews:   store.Reviews(),
		users:     store.Users(),
	}
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Deps) *Server {
	var repos repositories
	if deps.DB != nil {
		repos = postgresRepositories(deps.DB)
		logger.Info("Using postgres storage")
	} else {
		repos = memoryRepositories(memory.NewSeededStore())
		logger.Info("Using in-memory storage with demo data")
	}

	m := metrics.New()
	hub := realtime.NewHub(cfg.CORS.AllowedOrigins, logger)

	publishers := events.Multi{hub}
	if deps.Publisher != nil {
		publishers = append(publishers, deps.Publisher)
	}
	obs := service.Observers{
		Publisher: publishers,
		Metrics:   m,
		Logger:    logger.Named("service"),
	}

	var catalogCache cache.Cache
	if deps.Redis != nil {
		catalogCache = cache.NewRedisCache(deps.Redis, "maid-market:catalog", logger)
	}

	// Initialize services
	bookingService := service.NewBookingService(repos.bookings, obs)
	catalogService := service.NewCatalogService(repos.services, repos.providers, repos.listings, catalogCache, cfg.Redis.CacheTTL, obs)
	offerService := service.NewOfferService(repos.listings, repos.offers, bookingService, obs)
	reviewService := service.NewReviewService(repos.reviews, catalogService, obs)
	userService := service.NewUserService(repos.users, cfg.JWT.Secret, time.Duration(cfg.JWT.AccessExpiry)*time.Minute)

	// Create router
	router := chi.NewRouter()
	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.IsDevelopment()))
	router.Use(custommiddleware.OptionalAuthMiddleware(cfg.JWT.Secret, logger))
	router.Use(custommiddleware.LoggingMiddleware(logger.Named("http")))
	router.Use(m.Middleware)

	s := &Server{
		config:  cfg,
		logger:  logger,
		deps:    deps,
		metrics: m,
		hub:     hub,
	}

	router.Get("/health", s.health)
	router.Handle("/metrics", m.Handler())

	router.Group(func(r chi.Router) {
		if deps.Redis != nil && cfg.RateLimit.RequestsPerWindow > 0 {
			r.Use(custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
				RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
				Window:            cfg.RateLimit.Window,
				KeyPrefix:         "maid-market:ratelimit",
			}, logger))
		}

		authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)

		transport.NewUserHandler(userService, logger).RegisterRoutes(r, authMiddleware)
		transport.NewCatalogHandler(catalogService, logger).RegisterRoutes(r)
		transport.NewOfferHandler(offerService, hub, logger).RegisterRoutes(r)
		transport.NewBookingHandler(bookingService, logger).RegisterRoutes(r)
		transport.NewReviewHandler(reviewService, logger).RegisterRoutes(r)
	})

	s.Server = &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:     router,
		IdleTimeout: time.Minute,
		ReadTimeout: 10 * time.Second,
		// websocket subscriptions outlive any write timeout, so none is set
		// here and each websocket write carries its own deadline
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok", "store": "memory"}
	status := http.StatusOK

	if s.deps.DB != nil {
		dbHealth := database.Health(r.Context(), s.deps.DB)
		body["store"] = "postgres"
		body["database"] = dbHealth
		if dbHealth["status"] != "up" {
			body["status"] = "degraded"
			status = http.StatusServiceUnavailable
		}
	}
	if s.deps.Redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		if err := s.deps.Redis.Ping(ctx).Err(); err != nil {
			body["redis"] = "down"
		} else {
			body["redis"] = "up"
		}
	}

	custommiddleware.RespondWithJSON(w, status, body)
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	for _, closeFn := range s.deps.Closers {
		closeFn()
	}

	if s.deps.Redis != nil {
		if err := s.deps.Redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	// Close database connection
	if s.deps.DB != nil {
		if err := s.deps.DB.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
