package shared_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room_booking/internal/shared"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	c := shared.Load()

	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, shared.DriverSQLite, c.StorageDriver)
	assert.Equal(t, 15*time.Second, c.RequestTimeout)
	assert.Equal(t, 60*time.Second, c.CacheTTL)
	assert.Empty(t, c.RedisAddr)
	assert.Empty(t, c.CORSOrigins)
	assert.Zero(t, c.RateLimitRPS)
}

func TestLoad_FromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STORAGE_DRIVER", "MySQL")
	t.Setenv("CACHE_TTL_SECONDS", "5")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("SEED_WORKERS", "many")

	c := shared.Load()
	assert.Equal(t, shared.DriverMySQL, c.StorageDriver)
	assert.Equal(t, 5*time.Second, c.CacheTTL)
	assert.Equal(t, 2.5, c.RateLimitRPS)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORSOrigins)
	assert.Equal(t, 4, c.SeedWorkers)
}

func TestLoad_UnknownDriverFallsBack(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STORAGE_DRIVER", "postgres")
	assert.Equal(t, shared.DriverSQLite, shared.Load().StorageDriver)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("HTTP_ADDR=:9999\nSQLITE_PATH=/tmp/x.db\n"), 0o600))
	chdir(t, dir)
	t.Setenv("SQLITE_PATH", "/data/booking.db")
	// registered so the value loaded from .env is dropped after the test
	t.Setenv("HTTP_ADDR", "")
	require.NoError(t, os.Unsetenv("HTTP_ADDR"))

	c := shared.Load()
	assert.Equal(t, ":9999", c.HTTPAddr)
	assert.Equal(t, "/data/booking.db", c.SQLitePath, "environment wins over .env")
}
