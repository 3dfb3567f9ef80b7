package utils

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// IsPasswordHashed reports whether stored already holds a bcrypt hash
// (bcrypt hashes start with $2).
func IsPasswordHashed(stored string) bool {
	return strings.HasPrefix(stored, "$2")
}
