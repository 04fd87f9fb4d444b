// Package cryptox implements the one-way password hashing used by the
// credential store.
package cryptox

import (
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters. Changing any of them invalidates every stored hash.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
)

// DeriveKey stretches password with salt using Argon2id.
func DeriveKey(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// HashPassword returns the hex-encoded Argon2id digest of password under salt.
func HashPassword(password, salt string) string {
	return hex.EncodeToString(DeriveKey([]byte(password), []byte(salt)))
}

// VerifyPassword reports whether password hashes to storedHash.
// The comparison runs in constant time with respect to the hash contents.
func VerifyPassword(password, salt, storedHash string) bool {
	computed := HashPassword(password, salt)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}
