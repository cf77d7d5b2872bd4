package internal

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// invitationAlphabet omits characters that are easy to misread.
const invitationAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewOTP returns a numeric one-time code of the given length.
func NewOTP(digits int) (string, error) {
	if digits < 6 || digits > 10 {
		return "", errors.New("invalid otp digits")
	}
	return randomString("0123456789", digits)
}

// NewInvitationCode returns an upper-case alphanumeric invitation code.
func NewInvitationCode(length int) (string, error) {
	if length < 6 || length > 32 {
		return "", errors.New("invalid invitation code length")
	}
	return randomString(invitationAlphabet, length)
}

func randomString(alphabet string, n int) (string, error) {
	var b strings.Builder
	b.Grow(n)

	max := big.NewInt(int64(len(alphabet)))
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(alphabet[idx.Int64()])
	}

	out := b.String()
	if len(out) != n {
		return "", fmt.Errorf("invalid code generation length")
	}
	return out, nil
}
