package cryptox

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTOTP_Provision(t *testing.T) {
	tp := NewTOTP("GophAuth")

	key, err := tp.Provision("ana@x.com")
	require.NoError(t, err)

	assert.NotEmpty(t, key.Secret)
	assert.True(t, strings.HasPrefix(key.URI, "otpauth://totp/"))
	assert.Contains(t, key.URI, "issuer=GophAuth")
	assert.Contains(t, key.URI, "secret="+key.Secret)
	assert.True(t, strings.HasPrefix(key.QRCode, "data:image/png;base64,"))
}

func TestTOTP_VerifyWindow(t *testing.T) {
	tp := NewTOTP("GophAuth")
	key, err := tp.Provision("ana@x.com")
	require.NoError(t, err)

	now := time.Date(2026, 3, 1, 12, 0, 15, 0, time.UTC)
	code, err := tp.Code(key.Secret, now)
	require.NoError(t, err)

	tests := []struct {
		name  string
		shift time.Duration
		want  bool
	}{
		{"same step", 0, true},
		{"two steps later", 60 * time.Second, true},
		{"two steps earlier", -60 * time.Second, true},
		{"three steps later", 90 * time.Second, false},
		{"three steps earlier", -90 * time.Second, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tp.Verify(key.Secret, code, now.Add(tt.shift)))
		})
	}
}

func TestTOTP_VerifyRejectsGarbage(t *testing.T) {
	tp := NewTOTP("GophAuth")
	key, err := tp.Provision("ana@x.com")
	require.NoError(t, err)

	now := time.Now()
	assert.False(t, tp.Verify(key.Secret, "", now))
	assert.False(t, tp.Verify("", "123456", now))
	assert.False(t, tp.Verify(key.Secret, "12345", now))
	assert.False(t, tp.Verify(key.Secret, "abcdef", now))
}
