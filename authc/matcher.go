package authc

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

type (
	// PlainMatcher compares credentials byte for byte in constant
	// time. Only suitable when the store already holds values that
	// are safe to compare directly, such as opaque API keys
	PlainMatcher struct {
	}

	// BcryptMatcher verifies a submitted password against a stored
	// bcrypt hash
	BcryptMatcher struct {
	}

	// Argon2Matcher verifies a submitted password against a stored
	// argon2id hash in PHC string format
	Argon2Matcher struct {
	}
)

var (
	_ CredentialMatcher = (*PlainMatcher)(nil)
	_ CredentialMatcher = (*BcryptMatcher)(nil)
	_ CredentialMatcher = (*Argon2Matcher)(nil)
)

func (PlainMatcher) Match(submitted, stored string) bool {
	return subtle.ConstantTimeCompare([]byte(submitted), []byte(stored)) == 1
}

func (BcryptMatcher) Match(submitted, stored string) bool {
	// CompareHashAndPassword rejects malformed stored hashes
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(submitted)) == nil
}

const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 2
	argon2KeyLen  = 32
	argon2SaltLen = 16
)

// HashArgon2 derives an argon2id PHC-format hash suitable for storage
// and later verification by Argon2Matcher
func HashArgon2(password string) (string, error) {
	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("argon2 salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argon2Memory, argon2Time, argon2Threads,
		b64.EncodeToString(salt), b64.EncodeToString(key)), nil
}

func (Argon2Matcher) Match(submitted, stored string) bool {
	salt, key, memory, time, threads, err := parseArgon2(stored)
	if err != nil {
		return false
	}

	derived := argon2.IDKey([]byte(submitted), salt, time, memory, threads, uint32(len(key)))

	return subtle.ConstantTimeCompare(derived, key) == 1
}

func parseArgon2(stored string) (salt, key []byte, memory, time uint32, threads uint8, err error) {
	parts := strings.Split(stored, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		err = errors.New("malformed argon2 hash")
		return
	}

	var version int
	if _, err = fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return
	}
	if version != argon2.Version {
		err = errors.New("unsupported argon2 version")
		return
	}

	if _, err = fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return
	}

	b64 := base64.RawStdEncoding
	if salt, err = b64.DecodeString(parts[4]); err != nil {
		return
	}
	if key, err = b64.DecodeString(parts[5]); err != nil {
		return
	}
	if len(key) == 0 {
		err = errors.New("empty argon2 key")
	}

	return
}
