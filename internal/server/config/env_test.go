package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv(t *testing.T) {
	t.Setenv("GOPHAUTH_STORE", "mongo")
	t.Setenv("GOPHAUTH_JWT_ACCESS_TTL", "30m")
	t.Setenv("GOPHAUTH_SMTP_PORT", "2525")
	t.Setenv("GOPHAUTH_GOOGLE_CLIENT_ID", "google-id")
	t.Setenv("GOPHAUTH_TRUSTED_PROXIES", "1")

	c := &Config{}
	c.LoadDefaults()
	require.NoError(t, parseEnv(c))

	assert.Equal(t, StoreMongo, c.StoreDriver)
	assert.Equal(t, 30*time.Minute, c.AccessTokenTTL)
	assert.Equal(t, 2525, c.SMTP.Port)
	assert.Equal(t, "google-id", c.Google.ClientID)
	assert.Equal(t, 1, c.TrustedProxies)

	assert.Equal(t, ":50051", c.EndpointAddrGRPC, "unset variables keep defaults")
}

func TestParseEnv_BadValue(t *testing.T) {
	t.Setenv("GOPHAUTH_BCRYPT_COST", "twelve")

	c := &Config{}
	c.LoadDefaults()
	assert.Error(t, parseEnv(c))
}
