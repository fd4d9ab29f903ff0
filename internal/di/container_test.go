package di

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workbets/workbets-server/internal/api"
	"github.com/workbets/workbets-server/internal/config"
	"github.com/workbets/workbets-server/internal/di/providers"
	"github.com/workbets/workbets-server/internal/logger"
	"github.com/workbets/workbets-server/internal/service"
)

func testContainer(t *testing.T, backend string) *do.RootScope {
	t.Helper()

	injector := NewContainer()
	do.OverrideValue(injector, &config.Config{
		App:    config.AppConfig{Environment: "development"},
		Logger: config.LoggerConfig{Level: "error"},
		Store:  config.StoreConfig{DataPath: t.TempDir(), Backend: backend},
		Server: config.ServerConfig{AllowedOrigins: []string{"*"}},
		Auth:   config.AuthConfig{AccessTokenDuration: time.Hour, RatePerMinute: 100},
		Seed:   config.SeedConfig{Demo: true, DefaultWorkplace: "Workbets HQ"},
		Search: config.SearchConfig{Enabled: true},
	})
	do.OverrideValue(injector, logger.Discard())
	t.Cleanup(func() { _ = injector.Shutdown() })
	return injector
}

func call(t *testing.T, h http.Handler, method, path, token, body string) map[string]any {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Less(t, rec.Code, 300, rec.Body.String())

	var env struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Data
}

func TestContainer_WiresServer(t *testing.T) {
	for _, backend := range []string{config.BackendBadger, config.BackendSQLite} {
		t.Run(backend, func(t *testing.T) {
			injector := testContainer(t, backend)

			seeded, err := do.Invoke[*providers.Seeded](injector)
			require.NoError(t, err)
			assert.True(t, seeded.TagCatalog)
			assert.True(t, seeded.Demo)

			server, err := do.Invoke[*api.Server](injector)
			require.NoError(t, err)

			login := call(t, server, http.MethodPost, "/api/v1/auth/login", "",
				`{"username":"riley@workbets.io","password":"`+service.DemoPassword+`"}`)
			token, _ := login["access_token"].(string)
			require.NotEmpty(t, token)

			// Seeded wagers reach the bleve index through the store subscription.
			hits := call(t, server, http.MethodGet, "/api/v1/wagers/search?q=popcorn", token, "")
			wagers, _ := hits["wagers"].([]any)
			assert.Len(t, wagers, 1)

			health := call(t, server, http.MethodGet, "/health", "", "")
			assert.Equal(t, "healthy", health["status"])
		})
	}
}

func TestContainer_SearchDisabled(t *testing.T) {
	injector := testContainer(t, config.BackendBadger)
	do.MustInvoke[*config.Config](injector).Search.Enabled = false

	handle, err := do.Invoke[*providers.SearchIndexHandle](injector)
	require.NoError(t, err)
	assert.Nil(t, handle.Index)
	assert.Nil(t, handle.Indexer)

	// Triggering a reindex without an index is a no-op.
	providers.TriggerSearchReindex(injector)
}
