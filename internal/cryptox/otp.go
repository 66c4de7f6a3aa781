package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

const (
	otpDigits = 6

	// OpaqueTokenBytes is the entropy of password-reset bearer tokens.
	OpaqueTokenBytes = 32
)

var otpSpace = big.NewInt(1_000_000)

// GenerateOTP draws a six digit code uniformly from 000000..999999.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", otpDigits, n.Int64()), nil
}

// GenerateOpaqueToken returns OpaqueTokenBytes random bytes, hex encoded.
func GenerateOpaqueToken() (string, error) {
	return common.MakeRandHexString(OpaqueTokenBytes)
}
