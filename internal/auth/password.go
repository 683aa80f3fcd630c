package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/NirVa-gh/AppAuth/pkg/util"
)

// bcrypt refuses passwords longer than 72 bytes.
const maxPasswordBytes = 72

// HashPassword hashes a plaintext password with a random per-call salt.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", util.NewValidationError("password must not be empty", nil)
	}
	if len(password) > maxPasswordBytes {
		return "", util.NewValidationError("password is too long", nil)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its stored hash. A mismatch is
// not an error; a hash bcrypt cannot parse is corrupt stored data.
func ComparePassword(hashed, plain string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, util.NewCorruptData("stored password hash is malformed")
	}
}
