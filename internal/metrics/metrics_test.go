package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()

	m.OfferCreated()
	m.OfferCreated()
	m.OfferTransitioned("accepted")
	m.BookingCreated()
	m.ReviewRecorded()
	m.ListingCreated()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OffersCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OfferTransitions.WithLabelValues("accepted")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.OfferTransitions.WithLabelValues("declined")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BookingsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReviewsRecorded))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ListingsCreated))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.OfferCreated()
		m.OfferTransitioned("declined")
		m.BookingCreated()
		m.ReviewRecorded()
		m.ListingCreated()
	})
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/offers/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	req := httptest.NewRequest(http.MethodGet, "/api/offers/o-123", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/offers/{id}", "404")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "maid_market_http_requests_total"))
}
