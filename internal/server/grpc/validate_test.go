package grpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		pw string
		ok bool
	}{
		{"Sup3r$ecret", true},
		{"Aa1@aaaa", true},
		{"", false},
		{"Aa1@aaa", false},
		{"password", false},
		{"PASSWORD1@", false},
		{"Password@", false},
		{"Password1", false},
		{"Password1#", false},
	}
	for _, tt := range tests {
		t.Run(tt.pw, func(t *testing.T) {
			err := validatePassword(tt.pw)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
		})
	}
}

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		ok    bool
	}{
		{"ada@example.com", true},
		{"Ada.Lovelace+test@sub.example.org", true},
		{"", false},
		{"ada", false},
		{"ada@", false},
		{"Ada <ada@example.com>", false},
	}
	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.ok, validateEmail(tt.email) == nil)
		})
	}
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, validateName("Al"))
	assert.NoError(t, validateName("Zoë"))
	assert.Error(t, validateName("A"))
	assert.Error(t, validateName("  "))
	assert.Error(t, validateName(string(make([]byte, 51))))
}

func TestValidateCode(t *testing.T) {
	tests := []struct {
		code string
		ok   bool
	}{
		{"123456", true},
		{"000000", true},
		{"12345", false},
		{"1234567", false},
		{"12345a", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.ok, validateCode(tt.code, "OTP") == nil)
		})
	}
}

func TestFirstError(t *testing.T) {
	assert.NoError(t, firstError(nil, nil))
	err := firstError(nil, invalid("first"), invalid("second"))
	assert.Equal(t, "first", status.Convert(err).Message())
}
