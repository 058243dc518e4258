package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, BackendNone, cfg.Deception.Backend)
	assert.Equal(t, 10*time.Second, cfg.Deception.Timeout)
	assert.Equal(t, 4, cfg.Personality.Concurrency)
	assert.Equal(t, 2*time.Second, cfg.Personality.Timeout)
	assert.False(t, cfg.History.FailOnError)
	assert.Equal(t, "persona.db", cfg.DSN())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
database:
  driver: mysql
  host: db
  port: 3306
  user: app
  password: secret
  name: persona
deception:
  backend: grpc
  timeout: 3s
  grpc:
    addr: inference:50051
history:
  failOnError: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Deception.Timeout)
	assert.True(t, cfg.History.FailOnError)
	assert.Equal(t, "app:secret@tcp(db:3306)/persona?parseTime=true&charset=utf8mb4&loc=UTC", cfg.DSN())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_DSN", "postgres://u:p@h/db")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load(writeConfig(t, "server:\n  port: 9000\n"))
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://u:p@h/db", cfg.DSN())
	assert.Equal(t, BackendOpenAI, cfg.Deception.Backend)
	assert.Equal(t, "sk-test", cfg.Deception.OpenAI.APIKey)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeConfig(t, "database:\n  driver: oracle\ndeception:\n  backend: grpc\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oracle")
	assert.Contains(t, err.Error(), "grpc.addr")

	_, err = Load(writeConfig(t, "server: [nope"))
	assert.Error(t, err)
}

func TestLoad_NegativeConcurrency(t *testing.T) {
	_, err := Load(writeConfig(t, "personality:\n  concurrency: -1\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "personality.concurrency must not be negative")

	cfg, err := Load(writeConfig(t, "personality:\n  concurrency: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Personality.Concurrency)
}

func TestPostgresDSN(t *testing.T) {
	cfg := Default()
	cfg.Database.Driver = DriverPostgres
	cfg.Database.Host, cfg.Database.Port = "pg", 5432
	cfg.Database.User, cfg.Database.Password, cfg.Database.Name = "u", "p", "d"
	assert.Equal(t, "host=pg port=5432 user=u password=p dbname=d sslmode=disable", cfg.DSN())
}
