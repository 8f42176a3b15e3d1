package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad(t *testing.T) {
	t.Setenv("DB_HOST", "test-host")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("MINIO_PRESIGN", "false")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")

	cfg := Load()

	assert.Equal(t, "test-host", cfg.Database.Host)
	assert.Equal(t, 20, cfg.Database.MaxOpenConns)
	assert.True(t, cfg.MinIO.UseSSL)
	assert.False(t, cfg.MinIO.Presign)
	assert.Equal(t, int64(1024), cfg.Upload.MaxBytes)
}

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"DB_DRIVER", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD", "DB_PASS", "REDIS_ADDR", "MINIO_ENDPOINT", "MINIO_PRESIGN", "MAX_UPLOAD_BYTES", "DB_MIGRATE"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, "3306", cfg.Database.Port)
	assert.Equal(t, "rqda_app", cfg.Database.Name)
	assert.Equal(t, "root", cfg.Database.User)
	assert.True(t, cfg.Database.Migrate)
	assert.Equal(t, int64(5<<20), cfg.Upload.MaxBytes)
	assert.False(t, cfg.Redis.Enabled())
	assert.False(t, cfg.MinIO.Enabled())
	assert.True(t, cfg.MinIO.Presign)
}

func TestLoad_PostgresDefaultPort(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_PORT", "")

	cfg := Load()

	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "5432", cfg.Database.Port)
}

func TestLoad_LegacyPasswordVar(t *testing.T) {
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("DB_PASS", "legacy")
	assert.Equal(t, "legacy", Load().Database.Password)

	t.Setenv("DB_PASSWORD", "primary")
	assert.Equal(t, "primary", Load().Database.Password)
}

func TestLocation(t *testing.T) {
	cfg := &AppConfig{LogTimezone: "Asia/Jakarta"}
	loc := cfg.Location()
	assert.NotNil(t, loc)

	cfg.LogTimezone = "Not/AZone"
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestGetEnv(t *testing.T) {
	key := "TEST_ENV_VAR"
	os.Setenv(key, "value")
	defer os.Unsetenv(key)

	assert.Equal(t, "value", getEnv(key, "default"))
	assert.Equal(t, "default", getEnv("NON_EXISTENT", "default"))
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_BOOL_VAR"

	os.Setenv(key, "true")
	assert.True(t, getEnvBool(key, false))

	os.Setenv(key, "false")
	assert.False(t, getEnvBool(key, true))

	os.Setenv(key, "invalid")
	assert.True(t, getEnvBool(key, true))

	os.Unsetenv(key)
	assert.True(t, getEnvBool(key, true))
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"

	os.Setenv(key, "123")
	assert.Equal(t, 123, getEnvInt(key, 0))

	os.Setenv(key, "invalid")
	assert.Equal(t, 10, getEnvInt(key, 10))

	os.Unsetenv(key)
	assert.Equal(t, 10, getEnvInt(key, 10))
}

func TestGetEnvInt64(t *testing.T) {
	key := "TEST_INT64_VAR"

	os.Setenv(key, "4096")
	assert.Equal(t, int64(4096), getEnvInt64(key, 1))

	os.Setenv(key, "-5")
	assert.Equal(t, int64(1), getEnvInt64(key, 1))

	os.Unsetenv(key)
	assert.Equal(t, int64(1), getEnvInt64(key, 1))
}
