package auth

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func testValidator(t *testing.T) *Validator {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword: %v", err)
	}
	return NewValidator("admin", string(hash))
}

func TestValidator_Validate(t *testing.T) {
	v := testValidator(t)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"valid", "admin", "s3cret", nil},
		{"wrong password", "admin", "nope", ErrUnauthorized},
		{"wrong username", "root", "s3cret", ErrUnauthorized},
		{"username case matters", "Admin", "s3cret", ErrUnauthorized},
		{"empty", "", "", ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := v.Validate(tt.username, tt.password); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidator_Disabled(t *testing.T) {
	for name, v := range map[string]*Validator{
		"nil":        nil,
		"no hash":    NewValidator("admin", ""),
		"no account": NewValidator("", "$2a$04$abc"),
	} {
		t.Run(name, func(t *testing.T) {
			if v.Enabled() {
				t.Error("Enabled() = true")
			}
			if err := v.Validate("admin", ""); !errors.Is(err, ErrUnauthorized) {
				t.Errorf("Validate() = %v", err)
			}
		})
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("pw")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := NewValidator("u", hash).Validate("u", "pw"); err != nil {
		t.Errorf("Validate with generated hash: %v", err)
	}
}
