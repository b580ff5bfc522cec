package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var ErrWeakPassword = errors.New("password does not meet requirements")

const bcryptCost = 12

// PasswordManager handles password hashing and verification.
type PasswordManager struct {
	minLength int
}

func NewPasswordManager() *PasswordManager {
	return &PasswordManager{minLength: 8}
}

// HashPassword validates strength and returns a bcrypt hash.
func (pm *PasswordManager) HashPassword(password string) (string, error) {
	if err := pm.ValidatePassword(password); err != nil {
		return "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(hashed), nil
}

// ComparePassword compares a plaintext password with a stored hash.
func (pm *PasswordManager) ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func (pm *PasswordManager) ValidatePassword(password string) error {
	if len(password) < pm.minLength {
		return fmt.Errorf("%w: minimum length is %d characters", ErrWeakPassword, pm.minLength)
	}
	if len(password) > 128 {
		return fmt.Errorf("%w: maximum length is 128 characters", ErrWeakPassword)
	}
	return nil
}
