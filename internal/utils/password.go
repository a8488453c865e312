package utils

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

// HashLookupToken returns a bcrypt hash of an order lookup token using the
// given cost.  Only the hash is stored; the raw token stays with the buyer.
// The token is pre-digested with SHA-256 so tokens longer than bcrypt's
// 72-byte input limit still hash.
func HashLookupToken(token string, cost int) (string, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword(digest(token), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyLookupToken safely compares a stored hash with a presented token.
func VerifyLookupToken(hash, token string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), digest(token)) == nil
}

func digest(token string) []byte {
	sum := sha256.Sum256([]byte(token))
	return []byte(hex.EncodeToString(sum[:]))
}
