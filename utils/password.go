package utils

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/ywy929/assay-dashboard-backend/config"
)

// PBKDF2-HMAC-SHA256 password hashing, parameterized by SALT_SIZE,
// HASH_SIZE and ITERATIONS from the environment. Hashes are stored as raw
// bytes next to their salt, matching the legacy on-premise schema.

func CreateHashWithNewSalt(password string) (salt, hash []byte, err error) {
	salt = make([]byte, config.SaltSize)
	if _, err = rand.Read(salt); err != nil {
		return nil, nil, fmt.Errorf("generating salt: %w", err)
	}
	return salt, HashWithSalt(password, salt), nil
}

func HashWithSalt(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, config.Iterations, config.HashSize, sha256.New)
}

func VerifyPassword(password string, salt, storedHash []byte) bool {
	return hmac.Equal(HashWithSalt(password, salt), storedHash)
}
