package bootstrap

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "SERVER_PORT=9090\nMONGO_DATABASE=positions\nLOCAL_CORS=true\nCORS_ORIGINS=http://board.test,http://localhost:5173\nSESSION_TTL=30m\nHOVER_RESAMPLE_DELAY=250ms\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Setup(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, "positions", cfg.MongoDatabase)
	assert.True(t, cfg.IsLocalCors)
	assert.Equal(t, []string{"http://board.test", "http://localhost:5173"}, cfg.CorsOrigins)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 250*time.Millisecond, cfg.HoverResampleDelay)
	assert.Equal(t, 10*time.Minute, cfg.ResponseCacheTTL)
}

func TestSetup_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("REDIS_URL", "redis:6380")

	cfg, err := Setup(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "redis:6380", cfg.RedisUrl)
	assert.Equal(t, 11*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 100*time.Millisecond, cfg.HoverResampleDelay)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.CorsOrigins)
}
