// Package auth checks administrator credentials.
package auth

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrUnauthorized = errors.New("unauthorized")

// Validator checks a username and password against the single configured
// administrator account. The password is stored as a bcrypt hash.
type Validator struct {
	username     string
	passwordHash []byte
}

func NewValidator(username, passwordHash string) *Validator {
	return &Validator{username: username, passwordHash: []byte(passwordHash)}
}

// Enabled reports whether an account is configured at all.
func (v *Validator) Enabled() bool {
	return v != nil && v.username != "" && len(v.passwordHash) > 0
}

// Validate returns ErrUnauthorized unless the credentials match.
func (v *Validator) Validate(username, password string) error {
	if !v.Enabled() {
		return ErrUnauthorized
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(v.username)) == 1
	// bcrypt runs for unknown usernames too.
	passErr := bcrypt.CompareHashAndPassword(v.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		return ErrUnauthorized
	}
	return nil
}

// HashPassword returns the bcrypt hash to put in ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
