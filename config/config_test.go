package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseEnv() map[string]string {
	return map[string]string{
		"DATABASE_URL":   "postgres://wsob@localhost/wsob?sslmode=disable",
		"JWT_SECRET_KEY": "0123456789abcdef",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(baseEnv())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, time.Minute, cfg.SettlementSweepInterval)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 25, cfg.DBMaxOpenConns)
	assert.Equal(t, 10, cfg.DBMaxIdleConns)
	assert.Equal(t, 30*time.Minute, cfg.DBConnMaxLifetime)
	assert.Equal(t, 5*time.Second, cfg.DBPingTimeout)
	assert.False(t, cfg.StorageEnabled())
}

func TestLoadOverrides(t *testing.T) {
	environ := baseEnv()
	environ["SERVER_PORT"] = "9090"
	environ["SESSION_TTL"] = "2h"
	environ["SETTLEMENT_SWEEP_INTERVAL"] = "0"
	environ["DB_MAX_OPEN_CONNS"] = "8"
	environ["DB_MAX_IDLE_CONNS"] = "2"
	environ["CORS_ALLOWED_ORIGINS"] = "https://club.example.com, https://admin.example.com,"
	environ["R2_ACCOUNT_ID"] = "acc"
	environ["R2_ACCESS_KEY_ID"] = "key"
	environ["R2_SECRET_ACCESS_KEY"] = "secret"
	environ["R2_BUCKET_NAME"] = "wsob"
	environ["R2_PUBLIC_BASE_URL"] = "https://cdn.example.com"

	cfg, err := LoadFrom(environ)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, 2*time.Hour, cfg.SessionTTL)
	assert.Zero(t, cfg.SettlementSweepInterval)
	assert.Equal(t, 8, cfg.DBMaxOpenConns)
	assert.Equal(t, 2, cfg.DBMaxIdleConns)
	assert.Equal(t, []string{"https://club.example.com", "https://admin.example.com"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.StorageEnabled())
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		set  map[string]string
		drop string
	}{
		{name: "missing database url", drop: "DATABASE_URL"},
		{name: "missing secret", drop: "JWT_SECRET_KEY"},
		{name: "short secret", set: map[string]string{"JWT_SECRET_KEY": "short"}},
		{name: "port out of range", set: map[string]string{"SERVER_PORT": "70000"}},
		{name: "port not a number", set: map[string]string{"SERVER_PORT": "http"}},
		{name: "bad ttl", set: map[string]string{"SESSION_TTL": "forever"}},
		{name: "zero ttl", set: map[string]string{"SESSION_TTL": "0s"}},
		{name: "bcrypt cost", set: map[string]string{"BCRYPT_COST": "3"}},
		{name: "zero pool", set: map[string]string{"DB_MAX_OPEN_CONNS": "0"}},
		{name: "idle above open", set: map[string]string{"DB_MAX_OPEN_CONNS": "4", "DB_MAX_IDLE_CONNS": "5"}},
		{name: "zero ping timeout", set: map[string]string{"DB_PING_TIMEOUT": "0s"}},
		{name: "partial r2", set: map[string]string{"R2_ACCOUNT_ID": "acc", "R2_BUCKET_NAME": "wsob"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			environ := baseEnv()
			delete(environ, tt.drop)
			for k, v := range tt.set {
				environ[k] = v
			}
			_, err := LoadFrom(environ)
			assert.Error(t, err)
		})
	}
}
