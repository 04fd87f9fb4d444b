package users

import (
	"strings"
	"time"
)

// User is a registered account. Records are never mutated or deleted.
type User struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// NormalizeUsername folds case and surrounding whitespace so that
// "Alice" and "alice " name the same account.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
