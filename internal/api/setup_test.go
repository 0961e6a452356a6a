package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"shareit/internal/clock"
	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/events"
	"shareit/internal/repository"
	"shareit/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type apiEnv struct {
	db    *database.DB
	clock *clock.Manual
	svc   Services
	locks *repository.MemoryLockRepository
	cfg   *config.Config
	ts    *httptest.Server
}

func testConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{Path: ":memory:"},
		API: config.APIConfig{
			HTTP: config.APIHTTPConfig{Enabled: true},
			GRPC: config.APIGRPCConfig{Enabled: true},
		},
		Booking: config.BookingConfig{
			DecisionLockTTL: time.Second,
			WriteRateLimit:  1000,
			WriteRateWindow: time.Minute,
		},
	}
}

func newAPIEnv(t *testing.T, cfg *config.Config) *apiEnv {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	logger := zerolog.New(io.Discard)

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clk := clock.NewManual(baseTime)
	locks := repository.NewMemoryLockRepository()
	bus := events.NewEventBus()

	svc := Services{
		Users:    service.NewUserService(db, &logger),
		Items:    service.NewItemService(db, bus, clk, &logger),
		Bookings: service.NewBookingService(db, locks, bus, clk, cfg.Booking.DecisionLockTTL, &logger),
	}

	srv := NewHTTPServer(cfg, svc, locks, db, &logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &apiEnv{db: db, clock: clk, svc: svc, locks: locks, cfg: cfg, ts: ts}
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (r response) decode(t *testing.T, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, dst), string(r.body))
}

func (r response) errorMessage(t *testing.T) string {
	t.Helper()
	var body map[string]string
	r.decode(t, &body)
	return body["error"]
}

func (e *apiEnv) do(t *testing.T, method, path string, userID int64, body any, headers ...string) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.ts.URL+path, reader)
	require.NoError(t, err)
	if userID != 0 {
		req.Header.Set("X-Sharer-User-Id", strconv.FormatInt(userID, 10))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return response{status: resp.StatusCode, header: resp.Header, body: raw}
}

func (e *apiEnv) createUser(t *testing.T, name, email string) int64 {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/users", 0, map[string]string{"name": name, "email": email})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	var user struct {
		ID int64 `json:"id"`
	}
	resp.decode(t, &user)
	return user.ID
}

func (e *apiEnv) createItem(t *testing.T, ownerID int64, name string) int64 {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/items", ownerID, map[string]any{
		"name": name, "description": name + " for rent", "available": true,
	})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	var item struct {
		ID int64 `json:"id"`
	}
	resp.decode(t, &item)
	return item.ID
}

func (e *apiEnv) createBooking(t *testing.T, bookerID, itemID int64, start, end time.Time) int64 {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/bookings", bookerID, map[string]any{
		"item_id": itemID, "start": start, "end": end,
	})
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))
	var view struct {
		ID int64 `json:"id"`
	}
	resp.decode(t, &view)
	return view.ID
}
