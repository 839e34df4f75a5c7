// Package cryptox holds password hashing and the random values handed out
// to clients: session tokens, unsubscribe tokens and one-time codes.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	HasherBcrypt = "bcrypt"
	HasherSHA256 = "sha256"
)

// bcryptMaxLen is the input size beyond which bcrypt silently truncates.
const bcryptMaxLen = 72

var ErrPasswordTooLong = errors.New("password must be 72 bytes or fewer")

// Hasher turns a plaintext password into a storable digest and checks a
// candidate against one.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(digest, plain string) bool
}

// SHA256Hasher produces unsalted hex SHA-256 digests. Equal passwords give
// equal digests; it exists for stores populated by the legacy service.
type SHA256Hasher struct{}

func (SHA256Hasher) Hash(plain string) (string, error) {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:]), nil
}

func (h SHA256Hasher) Verify(digest, plain string) bool {
	candidate, _ := h.Hash(plain)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(digest)) == 1
}

type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using cost, or bcrypt.DefaultCost when
// cost is outside the range bcrypt accepts.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plain string) (string, error) {
	if len(plain) > bcryptMaxLen {
		return "", ErrPasswordTooLong
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(digest), nil
}

func (h *BcryptHasher) Verify(digest, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}

// NewHasher picks a hasher by name.
func NewHasher(name string, bcryptCost int) (Hasher, error) {
	switch name {
	case HasherBcrypt, "":
		return NewBcryptHasher(bcryptCost), nil
	case HasherSHA256:
		return SHA256Hasher{}, nil
	default:
		return nil, fmt.Errorf("unknown password hasher %q", name)
	}
}
