package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	m := New()

	m.RPCRequests.WithLabelValues("/gophauth.v1.AuthService/Login", "OK").Inc()
	m.LoginOutcomes.WithLabelValues(LoginLocked).Add(2)
	m.RateLimited.WithLabelValues("auth").Inc()
	m.TokensPurged.Add(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RPCRequests.WithLabelValues("/gophauth.v1.AuthService/Login", "OK")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoginOutcomes.WithLabelValues(LoginLocked)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.TokensPurged))

	families, err := m.Registry.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"gophauth_rpc_requests_total",
		"gophauth_login_attempts_total",
		"gophauth_rate_limited_total",
		"gophauth_refresh_tokens_purged_total",
		"go_goroutines",
	} {
		assert.True(t, names[want], want)
	}
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.TokensPurged.Inc()
	assert.Zero(t, testutil.ToFloat64(b.TokensPurged))
}
