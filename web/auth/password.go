// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a password with the default bcrypt cost. The
// result goes into the users table's password_hash column.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// HashPasswordWithCost hashes with an explicit cost. Tests use the
// minimum cost to keep fixtures fast.
func HashPasswordWithCost(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the password matches the stored hash.
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
