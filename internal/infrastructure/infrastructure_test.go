package infrastructure_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/setu/internal/config"
	"github.com/JaimeStill/setu/internal/infrastructure"
	"github.com/JaimeStill/setu/internal/sessions"
)

func testConfig(t *testing.T, backendURL string) *config.Config {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("SETU_BACKEND_BASE_URL", backendURL)

	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewDefaults(t *testing.T) {
	cfg := testConfig(t, "http://localhost:8000")

	infra, err := infrastructure.NewWithLogger(cfg, discard())
	require.NoError(t, err)

	assert.Nil(t, infra.Storage, "storage is disabled without a connection string")
	assert.IsType(t, &sessions.MemoryStore{}, infra.Sessions)
	assert.Equal(t, "http://localhost:8000", infra.Backend.BaseURL())
	assert.NotNil(t, infra.Metrics)
}

func TestNewRejectsBadConnectionString(t *testing.T) {
	cfg := testConfig(t, "http://localhost:8000")
	cfg.Storage.ConnectionString = "not-a-connection-string"

	_, err := infrastructure.NewWithLogger(cfg, discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "storage init failed")
}

func TestStartProbesBackend(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"status":"success","data":[]}`)
	}))
	defer srv.Close()

	infra, err := infrastructure.NewWithLogger(testConfig(t, srv.URL), discard())
	require.NoError(t, err)
	require.NoError(t, infra.Start())

	require.NoError(t, infra.Lifecycle.WaitForStartup())
	assert.True(t, infra.Lifecycle.Ready())
	assert.Equal(t, int32(1), hits.Load())

	require.NoError(t, infra.Lifecycle.Shutdown(time.Second))
}

func TestStartToleratesUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	infra, err := infrastructure.NewWithLogger(testConfig(t, url), discard())
	require.NoError(t, err)
	require.NoError(t, infra.Start())

	require.NoError(t, infra.Lifecycle.WaitForStartup())
	assert.True(t, infra.Lifecycle.Ready())
	assert.Empty(t, infra.Lifecycle.Failures())

	require.NoError(t, infra.Lifecycle.Shutdown(time.Second))
}
