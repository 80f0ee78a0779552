// Package secret generates the development SECRET_KEY written into new
// projects.
//
// The value follows Django's startproject convention: a "django-insecure-"
// prefix and 50 characters drawn from a fixed alphabet. It is meant for local
// development only. Nothing here is a substitute for a secret managed by the
// deployment environment, and the prefix exists so Django's deploy checks flag
// it when it leaks into production settings.
package secret

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// Prefix marks the key as unsuitable for production.
	Prefix = "django-insecure-"

	// Length is the number of random characters after Prefix.
	Length = 50

	// Alphabet excludes '#', '$', quotes, backslash and whitespace so the
	// key can be written unquoted in a .env file.
	Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789!@%^&*(-_=+)"
)

// Generate returns a fresh development secret key. It panics if the system
// random source fails.
func Generate() string {
	s, err := GenerateN(Length)
	if err != nil {
		panic(err)
	}
	return Prefix + s
}

// GenerateN returns n characters drawn uniformly from Alphabet.
func GenerateN(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("secret: length must be positive, got %d", n)
	}
	limit := big.NewInt(int64(len(Alphabet)))
	buf := make([]byte, n)
	for i := range buf {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("secret: read random: %w", err)
		}
		buf[i] = Alphabet[idx.Int64()]
	}
	return string(buf), nil
}
