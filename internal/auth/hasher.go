package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

const argon2idPrefix = "$argon2id$"

// PasswordHasher hashes and verifies passwords. Hashes are self-describing:
// algorithm, parameters and salt are encoded in the hash string.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) (bool, error)
}

// Hasher produces bcrypt or argon2id hashes and verifies either kind, so
// switching algorithms does not invalidate stored credentials.
type Hasher struct {
	argon      bool
	bcryptCost int
	params     *argon2id.Params
}

// NewBcryptHasher returns a Hasher producing bcrypt hashes at the given cost.
func NewBcryptHasher(cost int) *Hasher {
	return &Hasher{bcryptCost: cost}
}

// NewArgon2idHasher returns a Hasher producing argon2id hashes. A nil params
// uses argon2id.DefaultParams.
func NewArgon2idHasher(params *argon2id.Params) *Hasher {
	if params == nil {
		params = argon2id.DefaultParams
	}
	return &Hasher{argon: true, params: params, bcryptCost: bcrypt.DefaultCost}
}

// Hash returns a salted hash of password.
func (h *Hasher) Hash(password string) (string, error) {
	if h.argon {
		hash, err := argon2id.CreateHash(password, h.params)
		if err != nil {
			return "", fmt.Errorf("hashing password: %w", err)
		}
		return hash, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether password matches hash. A mismatch is (false, nil);
// an error means the stored hash could not be interpreted.
func (h *Hasher) Verify(password, hash string) (bool, error) {
	if strings.HasPrefix(hash, argon2idPrefix) {
		match, err := argon2id.ComparePasswordAndHash(password, hash)
		if err != nil {
			return false, fmt.Errorf("comparing argon2id hash: %w", err)
		}
		return match, nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("comparing bcrypt hash: %w", err)
}
