package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// HashAlgorithm is the tag leading every canonical hash string
	HashAlgorithm = "PBKDF2"

	// DefaultIterations is the PBKDF2 work factor for newly hashed passwords
	DefaultIterations = 600000

	// SaltSize is the length in bytes of a freshly generated salt
	SaltSize = 16

	// KeySize is the length in bytes of the derived key
	KeySize = 32
)

// ErrMalformedHash is returned when a stored hash is not in canonical form
var ErrMalformedHash = errors.New("malformed password hash")

// randReader is the salt source
var randReader io.Reader = rand.Reader

// HashPassword derives a canonical hash string for password with a new
// random salt and DefaultIterations
func HashPassword(password string) (string, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(randReader, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	return HashPasswordWith(password, DefaultIterations, salt)
}

// HashPasswordWith derives a canonical hash string with explicit parameters
func HashPasswordWith(password string, iterations int, salt []byte) (string, error) {
	if iterations <= 0 {
		return "", fmt.Errorf("iterations must be positive, got %d", iterations)
	}
	if len(salt) == 0 {
		return "", fmt.Errorf("salt cannot be empty")
	}

	key := pbkdf2.Key([]byte(password), salt, iterations, KeySize, sha256.New)
	return formatHash(iterations, salt, key), nil
}

// VerifyPassword reports whether password matches the canonical hash.
// A malformed hash yields an ErrMalformedHash error rather than false.
func VerifyPassword(password, canonical string) (bool, error) {
	iterations, salt, want, err := parseHash(canonical)
	if err != nil {
		return false, err
	}

	got := pbkdf2.Key([]byte(password), salt, iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// IsCanonicalHash reports whether s is a well-formed canonical hash string
func IsCanonicalHash(s string) bool {
	_, _, _, err := parseHash(s)
	return err == nil
}

func formatHash(iterations int, salt, key []byte) string {
	return fmt.Sprintf("%s-%d-%s-%s", HashAlgorithm, iterations, hex.EncodeToString(salt), hex.EncodeToString(key))
}

func parseHash(canonical string) (int, []byte, []byte, error) {
	parts := strings.Split(canonical, "-")
	if len(parts) != 4 {
		return 0, nil, nil, fmt.Errorf("%w: expected 4 segments, got %d", ErrMalformedHash, len(parts))
	}

	if parts[0] != HashAlgorithm {
		return 0, nil, nil, fmt.Errorf("%w: unknown algorithm %q", ErrMalformedHash, parts[0])
	}

	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 {
		return 0, nil, nil, fmt.Errorf("%w: invalid iteration count %q", ErrMalformedHash, parts[1])
	}

	salt, err := decodeHex(parts[2])
	if err != nil {
		return 0, nil, nil, fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}

	key, err := decodeHex(parts[3])
	if err != nil {
		return 0, nil, nil, fmt.Errorf("%w: hash: %v", ErrMalformedHash, err)
	}

	return iterations, salt, key, nil
}

func decodeHex(s string) ([]byte, error) {
	if s == "" {
		return nil, errors.New("empty segment")
	}
	if strings.ToLower(s) != s {
		return nil, errors.New("not lower-case hex")
	}
	return hex.DecodeString(s)
}
