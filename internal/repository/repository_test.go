package repository

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"maid-market/internal/database"
	"maid-market/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var testDB *sql.DB

func setupTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, error) {
	var (
		dbName = "testdb"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:15",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), "5432/tcp")
	if err != nil {
		return dbContainer.Terminate, err
	}

	connStr := "postgres://" + dbUser + ":" + dbPwd + "@" + dbHost + ":" + dbPort.Port() + "/" + dbName + "?sslmode=disable"
	testDB, err = sql.Open("pgx", connStr)
	if err != nil {
		return dbContainer.Terminate, err
	}

	// Schema and demo seed come from the real migrations
	if err := database.RunMigrations(testDB, "../../migrations", zap.NewNop()); err != nil {
		return dbContainer.Terminate, err
	}

	return dbContainer.Terminate, nil
}

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	teardown, err := setupTestDB()
	if err != nil {
		// Docker is unavailable; database tests skip themselves
		log.Printf("postgres container unavailable: %v", err)
		testDB = nil
	}

	code := m.Run()

	if teardown != nil {
		if err := teardown(context.Background()); err != nil {
			log.Printf("could not teardown postgres container: %v", err)
		}
	}
	os.Exit(code)
}

func requireDB(t *testing.T) {
	t.Helper()
	if testDB == nil {
		t.Skip("postgres container not available")
	}
}

func newOffer(listing *domain.Listing, price float64) *domain.Offer {
	now := time.Now().UTC().Truncate(time.Microsecond)
	p := price
	return &domain.Offer{
		ID:         uuid.New().String(),
		ListingID:  listing.ID,
		CustomerID: "u-cust-1",
		ProviderID: listing.ProviderID,
		Scope:      "2BHK",
		Price:      price,
		Status:     domain.OfferStatusOpen,
		Messages: []domain.Message{
			{By: domain.SenderSystem, Text: "Proposed", At: now, Price: &p},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCatalogRepositories_Seeded(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	services, err := NewServiceRepository(testDB).List(ctx)
	require.NoError(t, err)
	assert.Len(t, services, 5)

	providers := NewProviderRepository(testDB)
	p, err := providers.FindByID(ctx, "p-1")
	require.NoError(t, err)
	assert.Equal(t, "Asha Devi", p.FullName)
	assert.Equal(t, []string{"House Cleaning", "Cooking"}, p.Skills)
	assert.Equal(t, []string{"Bengaluru", "Whitefield"}, p.Locations)
	assert.Equal(t, 350.0, p.BaseRate)

	_, err = providers.FindByID(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	listing, err := NewListingRepository(testDB).FindByID(ctx, "l-1")
	require.NoError(t, err)
	assert.Equal(t, 1500.0, listing.BasePrice)
	assert.Equal(t, "p-1", listing.ProviderID)
}

func TestListingRepository_CreateAndList(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewListingRepository(testDB)

	listing := &domain.Listing{
		ID:         uuid.New().String(),
		ProviderID: "p-1",
		ServiceID:  "svc-cook",
		Title:      "Daily Cooking",
		BasePrice:  800,
	}
	require.NoError(t, repo.Create(ctx, listing))

	got, err := repo.FindByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, listing, got)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	ids := make([]string, len(all))
	for i, l := range all {
		ids[i] = l.ID
	}
	assert.Contains(t, ids, listing.ID)
}

func TestOfferRepository_ThreadRoundTrip(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	listing, err := NewListingRepository(testDB).FindByID(ctx, "l-1")
	require.NoError(t, err)

	repo := NewOfferRepository(testDB)
	offer := newOffer(listing, 1500)
	require.NoError(t, repo.Create(ctx, offer))

	counter := 1200.0
	offer.Messages = append(offer.Messages, domain.Message{
		By: domain.SenderProvider, Text: "Can do 1200", At: offer.CreatedAt.Add(time.Second), Price: &counter,
	})
	offer.Messages = append(offer.Messages, domain.Message{
		By: domain.SenderCustomer, Text: "ok", At: offer.CreatedAt.Add(2 * time.Second),
	})
	offer.Price = counter
	offer.UpdatedAt = offer.CreatedAt.Add(2 * time.Second)
	require.NoError(t, repo.Update(ctx, offer))

	got, err := repo.FindByID(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1200.0, got.Price)
	assert.Equal(t, domain.OfferStatusOpen, got.Status)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, domain.SenderProvider, got.Messages[1].By)
	require.NotNil(t, got.Messages[1].Price)
	assert.Equal(t, 1200.0, *got.Messages[1].Price)
	assert.Nil(t, got.Messages[2].Price)
	assert.True(t, got.Messages[2].At.Equal(offer.Messages[2].At))

	_, err = repo.FindByID(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	missing := newOffer(listing, 1)
	assert.True(t, errors.Is(repo.Update(ctx, missing), domain.ErrNotFound))
}

func TestBookingRepository_OneBookingPerOffer(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	listing, err := NewListingRepository(testDB).FindByID(ctx, "l-1")
	require.NoError(t, err)

	offer := newOffer(listing, 1000)
	require.NoError(t, NewOfferRepository(testDB).Create(ctx, offer))

	repo := NewBookingRepository(testDB)
	booking := &domain.Booking{
		ID:         uuid.New().String(),
		ListingID:  listing.ID,
		OfferID:    offer.ID,
		CustomerID: offer.CustomerID,
		ProviderID: offer.ProviderID,
		Date:       time.Now().UTC().Truncate(time.Microsecond),
		Price:      offer.Price,
		Status:     domain.BookingStatusConfirmed,
	}
	require.NoError(t, repo.Create(ctx, booking))

	second := *booking
	second.ID = uuid.New().String()
	err = repo.Create(ctx, &second)
	assert.True(t, errors.Is(err, domain.ErrConflict))

	got, err := repo.FindByOfferID(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, got.ID)
	assert.Equal(t, 1000.0, got.Price)

	_, err = repo.FindByOfferID(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestReviewRepository_RecordUpdatesRatingAtomically(t *testing.T) {
	requireDB(t)
	ctx := context.Background()

	// an isolated provider keeps the seeded p-1 rating intact
	providerID := "p-" + uuid.New().String()[:8]
	_, err := testDB.ExecContext(ctx,
		`INSERT INTO providers (id, user_id, full_name, skills, locations, base_rate) VALUES ($1, 'u-help-1', 'Test Provider', '{}', '{}', 100)`,
		providerID)
	require.NoError(t, err)

	reviews := NewReviewRepository(testDB)
	var summary domain.RatingSummary
	for i, rating := range []int{5, 3} {
		summary, err = reviews.Record(ctx, &domain.Review{
			ID:         uuid.New().String(),
			BookingID:  "b-1",
			CustomerID: "u-cust-1",
			ProviderID: providerID,
			Rating:     rating,
			CreatedAt:  time.Now().UTC().Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}
	assert.Equal(t, domain.RatingSummary{Avg: 4, Count: 2, ProviderUpdated: true}, summary)

	list, err := reviews.ListByProvider(ctx, providerID)
	require.NoError(t, err)
	require.Len(t, list, 2)

	providers := NewProviderRepository(testDB)
	p, err := providers.FindByID(ctx, providerID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, p.RatingAvg)
	assert.Equal(t, 2, p.RatingCount)

	// a rejected insert rolls back and leaves the rating alone
	bad := &domain.Review{ID: uuid.New().String(), BookingID: "b", CustomerID: "c", ProviderID: providerID, Rating: 6, CreatedAt: time.Now()}
	_, err = reviews.Record(ctx, bad)
	assert.Error(t, err)
	p, err = providers.FindByID(ctx, providerID)
	require.NoError(t, err)
	assert.Equal(t, 2, p.RatingCount)

	// without a profile only the review is stored
	ghost := "p-ghost-" + uuid.New().String()[:8]
	summary, err = reviews.Record(ctx, &domain.Review{ID: uuid.New().String(), BookingID: "b", CustomerID: "c", ProviderID: ghost, Rating: 2, CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.False(t, summary.ProviderUpdated)
	assert.Equal(t, 1, summary.Count)

	require.NoError(t, providers.UpdateRating(ctx, providerID, 4.5, 2))
	assert.True(t, errors.Is(providers.UpdateRating(ctx, "missing", 1, 1), domain.ErrNotFound))
}

func TestOfferRepository_AcceptWithBookingRollsBack(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	listing, err := NewListingRepository(testDB).FindByID(ctx, "l-1")
	require.NoError(t, err)

	offers := NewOfferRepository(testDB)
	bookings := NewBookingRepository(testDB)
	offer := newOffer(listing, 900)
	require.NoError(t, offers.Create(ctx, offer))

	accepted := offer.Clone()
	accepted.Status = domain.OfferStatusAccepted
	booking := &domain.Booking{
		ID:         uuid.New().String(),
		ListingID:  listing.ID,
		OfferID:    offer.ID,
		CustomerID: offer.CustomerID,
		ProviderID: offer.ProviderID,
		Date:       time.Now().UTC(),
		Price:      offer.Price,
		Status:     domain.BookingStatusConfirmed,
	}

	// the offer update fails after the booking insert; neither survives
	missing := accepted.Clone()
	missing.ID = uuid.New().String()
	orphan := *booking
	orphan.OfferID = offer.ID
	err = offers.AcceptWithBooking(ctx, missing, &orphan)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	_, err = bookings.FindByOfferID(ctx, offer.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	require.NoError(t, offers.AcceptWithBooking(ctx, accepted, booking))
	got, err := offers.FindByID(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OfferStatusAccepted, got.Status)

	// a second booking is rejected and the offer row is not rewritten
	declined := offer.Clone()
	declined.Status = domain.OfferStatusDeclined
	second := *booking
	second.ID = uuid.New().String()
	err = offers.AcceptWithBooking(ctx, declined, &second)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	got, err = offers.FindByID(ctx, offer.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OfferStatusAccepted, got.Status)
}

func TestIsUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("failed to insert: %w", &pgconn.PgError{Code: "23505", Message: "duplicate key"})
	assert.True(t, isUniqueViolation(wrapped))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("SQLSTATE 23505")))
	assert.False(t, isUniqueViolation(nil))
}

func TestUserRepository_DuplicatePhone(t *testing.T) {
	requireDB(t)
	ctx := context.Background()
	repo := NewUserRepository(testDB)

	seeded, err := repo.FindByPhone(ctx, "9000000001")
	require.NoError(t, err)
	assert.Equal(t, "u-cust-1", seeded.ID)
	assert.Empty(t, seeded.PasswordHash)

	dup := &domain.User{ID: uuid.New().String(), Role: domain.RoleCustomer, Name: "Dup", Phone: "9000000001", CreatedAt: time.Now()}
	assert.True(t, errors.Is(repo.Create(ctx, dup), domain.ErrConflict))

	_, err = repo.FindByID(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// Registered passwords are stored as bcrypt hashes, never as plaintext
func TestProperty_RegistrationStoresHashedPasswords(t *testing.T) {
	requireDB(t)
	repo := NewUserRepository(testDB)
	ctx := context.Background()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 10
	properties := gopter.NewProperties(parameters)

	properties.Property("passwords are hashed with bcrypt and not stored as plaintext", prop.ForAll(
		func(phone string, password string, name string) bool {
			_, _ = testDB.Exec("DELETE FROM users WHERE phone = $1", phone)

			hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
			if err != nil {
				t.Logf("Failed to hash password: %v", err)
				return false
			}

			user := &domain.User{
				ID:           uuid.New().String(),
				Role:         domain.RoleHelper,
				Name:         name,
				Phone:        phone,
				PasswordHash: string(hashedPassword),
				CreatedAt:    time.Now(),
			}
			if err := repo.Create(ctx, user); err != nil {
				t.Logf("Failed to create user: %v", err)
				return false
			}

			retrieved, err := repo.FindByPhone(ctx, phone)
			if err != nil {
				t.Logf("Failed to find user: %v", err)
				return false
			}
			if retrieved.PasswordHash == password {
				t.Logf("Password was stored as plaintext!")
				return false
			}
			if err := bcrypt.CompareHashAndPassword([]byte(retrieved.PasswordHash), []byte(password)); err != nil {
				t.Logf("Stored password is not a valid bcrypt hash: %v", err)
				return false
			}

			_, _ = testDB.Exec("DELETE FROM users WHERE phone = $1", phone)
			return true
		},
		gen.RegexMatch(`8[0-9]{9}`),
		gen.RegexMatch(`[A-Za-z0-9!@#$%]{8,20}`),
		gen.RegexMatch(`[A-Z][a-z]{2,15}`),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
