package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const pinLength = 4

// HashPIN validates and hashes the 4-digit local PIN.
func HashPIN(pin string) (string, error) {
	if len(pin) != pinLength {
		return "", fmt.Errorf("PIN must be exactly %d digits", pinLength)
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("PIN must contain only digits")
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash PIN: %w", err)
	}
	return string(hash), nil
}

func CheckPIN(pin, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) == nil
}
