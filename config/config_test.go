package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cf, err := Load()
	require.NoError(t, err)

	require.Equal(t, EnvDevelopment, cf.AppEnv)
	require.Equal(t, ":8000", cf.HTTPAddr)
	require.Equal(t, "sqlite", cf.DatabaseDriver)
	require.Equal(t, 24*time.Hour, cf.JWTTTL)
	require.Equal(t, 10*time.Second, cf.ShutdownTimeout)
	require.Equal(t, []string{"*"}, cf.CORSAllowedOrigins)
	require.True(t, cf.IsDevelopment())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("APP_ENV", EnvProduction)
	t.Setenv("DATABASE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/books?sslmode=disable")
	t.Setenv("JWT_TTL", "15m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cf, err := Load()
	require.NoError(t, err)

	require.Equal(t, "postgres", cf.DatabaseDriver)
	require.Equal(t, 15*time.Minute, cf.JWTTTL)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cf.CORSAllowedOrigins)
	require.False(t, cf.IsDevelopment())
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")
		_, err := Load()
		require.ErrorContains(t, err, "JWT_SECRET")
	})

	t.Run("unknown driver", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "x")
		t.Setenv("DATABASE_DRIVER", "mysql")
		_, err := Load()
		require.ErrorContains(t, err, "DATABASE_DRIVER")
	})
}
