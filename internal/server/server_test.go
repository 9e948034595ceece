package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"maid-market/internal/config"
	"maid-market/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "0", Env: "test"},
		Store:  config.StoreConfig{Driver: config.StoreDriverMemory},
		Redis:  config.RedisConfig{CacheTTL: time.Minute},
		JWT:    config.JWTConfig{Secret: "test-secret", AccessExpiry: 60},
		RateLimit: config.RateLimitConfig{
			RequestsPerWindow: 100,
			Window:            time.Minute,
		},
	}
}

func post(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func TestServer_HealthAndMetrics(t *testing.T) {
	srv := NewServer(testConfig(), zap.NewNop(), Deps{})
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "memory", health["store"])

	resp, err = http.Get(ts.URL + "/api/services")
	require.NoError(t, err)
	resp.Body.Close()

	// the request counter is updated after the response is flushed
	require.Eventually(t, func() bool {
		resp, err := http.Get(ts.URL + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return strings.Contains(buf.String(), `maid_market_http_requests_total{method="GET",route="/api/services",status="200"} 1`)
	}, 2*time.Second, 20*time.Millisecond)
}

func TestServer_RateLimitAndCacheWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := testConfig()
	cfg.RateLimit.RequestsPerWindow = 2
	srv := NewServer(cfg, zap.NewNop(), Deps{Redis: client})
	defer srv.Close()

	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	for i := 0; i < 2; i++ {
		resp, err := http.Get(ts.URL + "/api/services")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Limit"))
	}
	assert.True(t, mr.Exists("maid-market:catalog:services"))

	resp, err := http.Get(ts.URL + "/api/services")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	// health is outside the limited group
	resp, err = http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_OfferWebsocket(t *testing.T) {
	srv := NewServer(testConfig(), zap.NewNop(), Deps{})
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	resp := post(t, ts.URL+"/api/offers", map[string]any{
		"listingId": "l-1", "customerId": "u-cust-1", "scope": "2BHK", "price": 1200,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var offer domain.Offer
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&offer))
	resp.Body.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/offers/" + offer.ID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() map[string]any {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var evt map[string]any
		require.NoError(t, conn.ReadJSON(&evt))
		return evt
	}

	assert.Equal(t, "offer.snapshot", read()["type"])
	require.Eventually(t, func() bool { return srv.hub.Subscribers(offer.ID) == 1 }, time.Second, 10*time.Millisecond)

	resp = post(t, ts.URL+"/api/offers/"+offer.ID+"/accept", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	evt := read()
	assert.Equal(t, "offer.accepted", evt["type"])
	data := evt["data"].(map[string]any)
	assert.Equal(t, 1200.0, data["booking"].(map[string]any)["price"])

	_, _, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/offers/missing/ws", nil)
	assert.Error(t, err)
}
