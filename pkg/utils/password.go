package utils

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"math/big"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	saltLength  = 32
	keyLength   = 32
	timeCost    = 2
	memoryCost  = 64 * 1024
	parallelism = 1
)

// saltAlphabet is the fixed set of printable characters salts are drawn from.
const saltAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789@#&?!~^-$%*+"

// GenerateRandomSalt draws length printable characters from saltAlphabet using
// a cryptographic RNG.
func GenerateRandomSalt(length int) (string, error) {
	salt := make([]byte, length)
	max := big.NewInt(int64(len(saltAlphabet)))

	for i := 0; i < length; i++ {
		index, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		salt[i] = saltAlphabet[index.Int64()]
	}

	return string(salt), nil
}

// HashPassword hashes a password with Argon2id under a fresh random salt and
// returns the opaque token "base64(salt)$base64(hash)".
func HashPassword(password string) (string, error) {
	salt, err := GenerateRandomSalt(saltLength)
	if err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), []byte(salt), timeCost, memoryCost, parallelism, keyLength)

	saltEncoded := base64.RawStdEncoding.EncodeToString([]byte(salt))
	hashEncoded := base64.RawStdEncoding.EncodeToString(hash)

	return saltEncoded + "$" + hashEncoded, nil
}

// VerifyPassword recomputes the hash of password under the token's salt and
// compares in constant time.
func VerifyPassword(password, stored string) (bool, error) {
	parts := strings.Split(stored, "$")
	if len(parts) != 2 {
		return false, errors.New("invalid hashed password format")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[0])
	if err != nil {
		return false, err
	}

	storedHash, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false, err
	}

	computedHash := argon2.IDKey([]byte(password), salt, timeCost, memoryCost, parallelism, keyLength)

	return subtle.ConstantTimeCompare(computedHash, storedHash) == 1, nil
}
