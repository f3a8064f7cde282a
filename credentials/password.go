package credentials

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"
)

const (
	// MinHashIterations is the floor for the PBKDF2 iteration count.
	MinHashIterations = 10_000
	// maxHashIterations bounds stored iteration counts so a crafted stored
	// value cannot turn Verify into a CPU sink.
	maxHashIterations = 10_000_000

	saltLength = 16 // 128-bit salt
	keyLength  = 32 // 256-bit derived key
)

// Hasher derives and verifies salted PBKDF2-SHA-256 password hashes. Stored
// values are self-describing opaque strings of the form
// "iterations:saltHex:hashHex" so the embedded parameters survive iteration
// count changes.
type Hasher struct {
	iterations int
}

// NewHasher creates a Hasher with the given iteration count, raised to
// MinHashIterations if configured lower.
func NewHasher(iterations int) *Hasher {
	if iterations < MinHashIterations {
		iterations = MinHashIterations
	}
	return &Hasher{iterations: iterations}
}

// Hash generates a fresh random salt and derives a key from plaintext.
// Calling Hash twice on the same plaintext produces different stored values.
func (h *Hasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", errors.Wrap(err, "[Hasher.Hash] rand.Read")
	}
	key := pbkdf2.Key([]byte(plaintext), salt, h.iterations, keyLength, sha256.New)
	return strconv.Itoa(h.iterations) + ":" + hex.EncodeToString(salt) + ":" + hex.EncodeToString(key), nil
}

// Verify re-derives plaintext with the parameters embedded in stored and
// compares in constant time. Any malformed stored value fails closed: the
// result is false, never an error a caller could distinguish from a wrong
// password.
func (h *Hasher) Verify(plaintext, stored string) bool {
	parts := strings.Split(stored, ":")
	if len(parts) != 3 {
		return false
	}
	iterations, err := strconv.Atoi(parts[0])
	if err != nil || iterations < MinHashIterations || iterations > maxHashIterations {
		return false
	}
	salt, err := hex.DecodeString(parts[1])
	if err != nil || len(salt) == 0 {
		return false
	}
	want, err := hex.DecodeString(parts[2])
	if err != nil || len(want) == 0 {
		return false
	}
	got := pbkdf2.Key([]byte(plaintext), salt, iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
