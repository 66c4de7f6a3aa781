package cryptox

import (
	"encoding/hex"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

func TestGenerateOTP_Format(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateOTP()
		require.NoError(t, err)
		require.Regexp(t, sixDigits, code)
	}
}

func TestGenerateOTP_KeepsLeadingZeros(t *testing.T) {
	// One in ten codes starts with 0; 500 draws without one is ~1e-23.
	seen := false
	for i := 0; i < 500 && !seen; i++ {
		code, err := GenerateOTP()
		require.NoError(t, err)
		seen = code[0] == '0'
	}
	assert.True(t, seen)
}

func TestGenerateOpaqueToken(t *testing.T) {
	a, err := GenerateOpaqueToken()
	require.NoError(t, err)
	b, err := GenerateOpaqueToken()
	require.NoError(t, err)

	assert.Len(t, a, OpaqueTokenBytes*2)
	_, err = hex.DecodeString(a)
	assert.NoError(t, err)
	assert.NotEqual(t, a, b)
}
