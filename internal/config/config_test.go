package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"NEXT_PUBLIC_API_URL", "WEBINTEL_API_URL", "PORT", "WEBINTEL_LOG_LEVEL",
		"WEBINTEL_SESSION_DRIVER", "WEBINTEL_SESSION_PASSWORD", "MINIO_SECRET_KEY"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultBackendURL, cfg.Backend.BaseURL)
	assert.Equal(t, DefaultPageSize, cfg.Backend.PageSize)
	assert.Equal(t, DefaultSessionAge, cfg.Server.SessionMaxAge)
	assert.Equal(t, "memory", cfg.Sessions.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  port: 8080
backend:
  baseURL: http://api.internal:8000
  pageSize: 20
sessions:
  driver: postgres
  host: db
  name: webintel
  user: app
minio:
  enabled: true
  endpoint: minio:9000
  bucketName: exports
  linkExpiry: 1h
`)
	t.Setenv("WEBINTEL_API_URL", "https://api.example.com")
	t.Setenv("PORT", "9000")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "https://api.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, 20, cfg.Backend.PageSize)
	assert.Equal(t, time.Hour, cfg.Minio.LinkExpiry)
	assert.Equal(t, "host=db port=5432 user=app password= dbname=webintel sslmode=disable", cfg.PostgresDSN())
}

func TestLegacyAPIURLEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("NEXT_PUBLIC_API_URL", "http://legacy:8000")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "http://legacy:8000", cfg.Backend.BaseURL)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, "sessions:\n  driver: redis\n"))
	assert.ErrorContains(t, err, "unknown sessions.driver")

	_, err = Load(writeConfig(t, "sessions:\n  driver: mysql\n"))
	assert.ErrorContains(t, err, "sessions.host")

	_, err = Load(writeConfig(t, "minio:\n  enabled: true\n"))
	assert.ErrorContains(t, err, "minio.endpoint")

	_, err = Load(writeConfig(t, "backend:\n  pageSize: 500\n"))
	assert.ErrorContains(t, err, "pageSize")
}

func TestMySQLDSN(t *testing.T) {
	var cfg Config
	cfg.Sessions.User, cfg.Sessions.Password, cfg.Sessions.Host, cfg.Sessions.Name = "u", "p", "db", "webintel"
	assert.Equal(t, "u:p@tcp(db:3306)/webintel?parseTime=true&charset=utf8mb4&loc=UTC", cfg.MySQLDSN())
}
