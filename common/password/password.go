package password

import (
	"github.com/Laisky/errors/v2"
	"golang.org/x/crypto/bcrypt"
)

// Hash derives a bcrypt hash for storage; plaintext is never persisted.
func Hash(plain string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "generate bcrypt hash")
	}
	return string(hashed), nil
}

// Verify reports whether plain matches the stored bcrypt hash.
func Verify(plain string, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
