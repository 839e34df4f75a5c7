package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"math/big"
)

const (
	sessionTokenBytes     = 32
	unsubscribeTokenBytes = 48
	oneTimeCodeDigits     = 6
)

// TokenIssuer hands out opaque bearer values and numeric one-time codes.
type TokenIssuer interface {
	SessionToken() (string, error)
	UnsubscribeToken() (string, error)
	OneTimeCode() (string, error)
}

// RandomIssuer draws every value from a cryptographic source.
type RandomIssuer struct {
	src io.Reader
}

func NewRandomIssuer() *RandomIssuer {
	return &RandomIssuer{src: rand.Reader}
}

func (r *RandomIssuer) SessionToken() (string, error) {
	return r.token(sessionTokenBytes)
}

func (r *RandomIssuer) UnsubscribeToken() (string, error) {
	return r.token(unsubscribeTokenBytes)
}

// OneTimeCode returns six decimal digits, each drawn independently.
func (r *RandomIssuer) OneTimeCode() (string, error) {
	code := make([]byte, oneTimeCodeDigits)
	ten := big.NewInt(10)
	for i := range code {
		d, err := rand.Int(r.src, ten)
		if err != nil {
			return "", fmt.Errorf("generating code: %w", err)
		}
		code[i] = byte('0' + d.Int64())
	}
	return string(code), nil
}

func (r *RandomIssuer) token(n int) (string, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(r.src, b); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
