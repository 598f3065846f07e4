package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg := LoadConfig()
	require.Equal(t, 8080, cfg.ServerPort)
	require.Equal(t, "/api", cfg.APIPrefix)
	require.Equal(t, "HS256", cfg.Auth.Algorithm)
	require.Equal(t, 30*time.Minute, cfg.Auth.AccessTokenTTL)
	require.Equal(t, 7*24*time.Hour, cfg.Auth.RefreshTokenTTL)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("ACCESS_TOKEN_EXPIRE_MINUTES", "5")
	t.Setenv("REFRESH_TOKEN_EXPIRE_DAYS", "1")
	t.Setenv("API_PREFIX", "/v2")
	t.Setenv("STORAGE_BACKEND", "MinIO")
	t.Setenv("RATE_LIMIT_AUTH_WINDOW", "30s")
	t.Setenv("SERVER_PORT", "not-a-number")

	cfg := LoadConfig()
	require.Equal(t, 5*time.Minute, cfg.Auth.AccessTokenTTL)
	require.Equal(t, 24*time.Hour, cfg.Auth.RefreshTokenTTL)
	require.Equal(t, "/v2", cfg.APIPrefix)
	require.Equal(t, StorageBackendMinio, cfg.Storage.Backend)
	require.Equal(t, 30*time.Second, cfg.RateLimit.AuthWindow)
	require.Equal(t, 8080, cfg.ServerPort)
}

func TestValidate(t *testing.T) {
	valid := Config{
		APIPrefix: "/api",
		Auth: AuthConfig{
			Secret:          "s3cret",
			AccessTokenTTL:  time.Minute,
			RefreshTokenTTL: time.Hour,
		},
	}
	require.NoError(t, valid.Validate())

	cases := map[string]func(c *Config){
		"missing secret":   func(c *Config) { c.Auth.Secret = "" },
		"zero access ttl":  func(c *Config) { c.Auth.AccessTokenTTL = 0 },
		"zero refresh ttl": func(c *Config) { c.Auth.RefreshTokenTTL = 0 },
		"relative prefix":  func(c *Config) { c.APIPrefix = "api" },
		"unknown storage":  func(c *Config) { c.Storage.Backend = "s3" },
		"unknown mq":       func(c *Config) { c.MQ.Backend = "kafka" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p@ss", DBName: "capoo"}
	require.Equal(t, "postgres://u:p%40ss@db:5433/capoo?sslmode=disable", db.DSN())

	db.UseSSL = true
	require.Contains(t, db.DSN(), "sslmode=require")

	db.URL = "postgres://elsewhere/capoo"
	require.Equal(t, "postgres://elsewhere/capoo", db.DSN())
	require.False(t, db.InMemory())

	db.URL = MemoryDatabaseURL
	require.True(t, db.InMemory())
}
