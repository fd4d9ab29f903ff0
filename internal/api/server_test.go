package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workbets/workbets-server/internal/auth"
	"github.com/workbets/workbets-server/internal/ledger"
	"github.com/workbets/workbets-server/internal/service"
	"github.com/workbets/workbets-server/internal/sse"
	"github.com/workbets/workbets-server/internal/store"
)

// testServer wraps the API server with a seeded demo store.
type testServer struct {
	*Server
	api humatest.TestAPI
}

func setupTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	backend, err := store.OpenBadger("", nil)
	require.NoError(t, err)
	st := store.New(backend, nil)
	t.Cleanup(func() { _ = st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tokens, err := auth.NewTokenService(bytes.Repeat([]byte{7}, 32), 15*time.Minute)
	require.NoError(t, err)
	hasher := auth.NewCredentialHasher(&auth.PBKDF2Hasher{Iterations: 1000})
	engine := ledger.NewEngine(logger)

	services := &Services{
		Auth:      service.NewAuthService(st, hasher, tokens, "Workbets HQ", logger),
		Directory: service.NewDirectoryService(st, logger),
		Wagers:    service.NewWagerService(st, engine, nil, logger),
		Votes:     service.NewVoteService(st, engine, logger),
		Profiles:  service.NewProfileService(st, engine, logger),
	}

	seed := service.NewSeedService(st, hasher, engine, services.Wagers, services.Votes, logger)
	_, err = seed.EnsureTagCatalog(context.Background())
	require.NoError(t, err)
	_, err = seed.EnsureDemoData(context.Background())
	require.NoError(t, err)

	if opts.AuthRatePerMinute == 0 {
		opts.AuthRatePerMinute = 1000
	}
	sseManager := sse.NewManager(logger)
	s := NewServer(st, services, nil, sseManager, opts, logger)
	t.Cleanup(s.Close)

	return &testServer{Server: s, api: humatest.Wrap(t, s.API())}
}

// testEnvelope mirrors APIEnvelope with typed data.
type testEnvelope[T any] struct {
	Version int        `json:"v"`
	Success bool       `json:"success"`
	Data    T          `json:"data"`
	Error   *ErrorBody `json:"error"`
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	return env
}

func bearer(token string) string {
	return "Authorization: Bearer " + token
}

func (ts *testServer) login(t *testing.T, email string) string {
	t.Helper()
	resp := ts.api.Post("/api/v1/auth/login", map[string]any{
		"username": email,
		"password": service.DemoPassword,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	return decode[LoginResponse](t, resp).Data.AccessToken
}

func (ts *testServer) findWager(t *testing.T, token, title string) *service.WagerView {
	t.Helper()
	resp := ts.api.Get("/api/v1/wagers", bearer(token))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	for _, w := range decode[struct {
		Wagers []*service.WagerView `json:"wagers"`
	}](t, resp).Data.Wagers {
		if w.Title == title {
			return w
		}
	}
	t.Fatalf("wager %q not on the board", title)
	return nil
}

func optionID(t *testing.T, w *service.WagerView, label string) string {
	t.Helper()
	for _, o := range w.Options {
		if o.Label == label {
			return o.ID
		}
	}
	t.Fatalf("option %q not found", label)
	return ""
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	env := decode[HealthResponse](t, resp)
	assert.True(t, env.Success)
	assert.Equal(t, EnvelopeVersion, env.Version)
	assert.Equal(t, "healthy", env.Data.Components["store"].Status)
	assert.Equal(t, "healthy", env.Data.Components["sse"].Status)
	// Search is disabled in this server.
	assert.Equal(t, "degraded", env.Data.Status)
}

func TestEventsRequireToken(t *testing.T) {
	ts := setupTestServer(t, Options{})

	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	ts := setupTestServer(t, Options{AllowedOrigins: []string{"https://board.example"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/wagers", nil)
	req.Header.Set("Origin", "https://board.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)

	assert.Equal(t, "https://board.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
