package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"github.com/dmitrijs2005/goblog/internal/server/models"
	"golang.org/x/crypto/scrypt"
)

// Stored credential format: a 16-byte random salt and a 64-byte derived key.
// N/r/p follow the scrypt package recommendation for interactive logins.
const (
	saltLength = 16
	keyLength  = 64

	scryptN = 32768
	scryptR = 8
	scryptP = 1
)

// HashPassword derives a fresh salted credential from password. Every call
// generates a new random salt, so hashing the same password twice yields
// different pairs.
func HashPassword(password string) (models.Password, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return models.Password{}, fmt.Errorf("error generating salt: %w", err)
	}

	hash, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return models.Password{}, fmt.Errorf("error deriving key: %w", err)
	}

	return models.Password{Salt: salt, Hash: hash}, nil
}

// CheckPassword re-derives a key for candidate using the stored salt and
// compares it to the stored hash in constant time. The derived length always
// equals the stored length, so the comparison never short-circuits on a
// mismatch position.
func CheckPassword(candidate string, stored models.Password) (bool, error) {
	hash, err := scrypt.Key([]byte(candidate), stored.Salt, scryptN, scryptR, scryptP, len(stored.Hash))
	if err != nil {
		return false, fmt.Errorf("error deriving key: %w", err)
	}
	return subtle.ConstantTimeCompare(hash, stored.Hash) == 1, nil
}
