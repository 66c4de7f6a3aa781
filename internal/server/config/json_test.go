package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"endpoint_addr_grpc":   "www.example:9000",
		"database_dsn":         "postgres://x",
		"access_token_secret":  "a",
		"refresh_token_secret": "r",
		"access_token_ttl":     "1m",
		"refresh_token_ttl":    "3m",
		"trusted_proxies":      1,
		"smtp": map[string]any{
			"host":       "smtp.example",
			"port":       587,
			"tls_policy": "mandatory",
		},
		"rate_limits": map[string]any{
			"auth":    map[string]any{"limit": 10, "window": "1m"},
			"general": map[string]any{"skip_successful": true},
		},
		"github": map[string]any{"client_id": "gh", "client_secret": "ghs"},
	})

	t.Run("loads from json", func(t *testing.T) {
		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseJson(cfg, []string{"-config", path}))

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
		assert.Equal(t, "postgres://x", cfg.DatabaseDSN)
		assert.Equal(t, "a", cfg.AccessTokenSecret)
		assert.Equal(t, "r", cfg.RefreshTokenSecret)
		assert.Equal(t, 1*time.Minute, cfg.AccessTokenTTL)
		assert.Equal(t, 3*time.Minute, cfg.RefreshTokenTTL)
		assert.Equal(t, "smtp.example", cfg.SMTP.Host)
		assert.Equal(t, 587, cfg.SMTP.Port)
		assert.Equal(t, "mandatory", cfg.SMTP.TLSPolicy)
		assert.Equal(t, RateRule{Limit: 10, Window: time.Minute, SkipSuccessful: true}, cfg.RateLimits.Auth)
		assert.Equal(t, RateRule{Limit: 100, Window: 15 * time.Minute, SkipSuccessful: true}, cfg.RateLimits.General)
		assert.Equal(t, 1, cfg.TrustedProxies)
		assert.True(t, cfg.GitHub.Enabled())

		assert.Equal(t, 10*time.Minute, cfg.OTPTTL, "absent fields keep defaults")
		assert.Equal(t, RateRule{Limit: 3, Window: time.Hour}, cfg.RateLimits.Verification)
	})

	t.Run("no config flag, no changes", func(t *testing.T) {
		cfg := &Config{EndpointAddrGRPC: "defaults:1234"}
		require.NoError(t, parseJson(cfg, nil))
		assert.Equal(t, "defaults:1234", cfg.EndpointAddrGRPC)
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := &Config{}
		assert.Error(t, parseJson(cfg, []string{"-c", filepath.Join(t.TempDir(), "nope.json")}))
	})

	t.Run("invalid JSON", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		cfg := &Config{}
		assert.Error(t, parseJson(cfg, []string{"-c", bad}))
	})
}
