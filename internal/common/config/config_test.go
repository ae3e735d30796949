package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 9090, cfg.GRPC.Port)
	assert.Equal(t, "admin", cfg.Routing.FallbackRole)
	assert.Equal(t, "dev-secret-only", cfg.Auth.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("DB_MAX_CONNS", "25")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("MIGRATE_ON_START", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("ROUTING_FALLBACK_ROLE", "finance")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, int32(25), cfg.Database.MaxConns)
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.True(t, cfg.Service.MigrateOnStart)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "finance", cfg.Routing.FallbackRole)
}

func TestLoad_ReportsAllParseErrors(t *testing.T) {
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("HTTP_PORT", "eighty")
	t.Setenv("JWT_TTL", "forever")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_PORT must be an integer")
	assert.Contains(t, err.Error(), "JWT_TTL must be a duration")
}

func TestLoad_SecretRequiredOutsideDevelopment(t *testing.T) {
	t.Setenv("ENVIRONMENT", "staging")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	dsn := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", Database: "procurement", SSLMode: "require"}.DSN()
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=procurement sslmode=require", dsn)
}
