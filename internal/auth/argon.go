package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Cap password length so hashing cost stays bounded no matter what the
// client sends.
const maxPasswordLength = 1024

// argonParams are the tunable cost parameters baked into an encoded hash.
type argonParams struct {
	memory     uint32
	time       uint32
	threads    uint8
	saltLength uint32
	keyLength  uint32
}

// Interactive-login defaults. Not tuned for adversaries with dedicated
// hardware; bump memory first if that threat model changes.
var defaultParams = argonParams{
	memory:     64 * 1024,
	time:       3,
	threads:    4,
	saltLength: 16,
	keyLength:  32,
}

// DummyHash is a well-formed hash that matches no password. Login burns a
// verification against it when the email is unknown so response timing is
// the same for unknown emails and wrong passwords.
const DummyHash = "$argon2id$v=19$m=65536,t=3,p=4$" +
	"AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// HashPassword derives an Argon2id hash of the password and returns it in
// the standard encoded format.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	if len(password) > maxPasswordLength {
		return "", errors.New("password exceeds maximum length")
	}

	p := defaultParams
	salt := make([]byte, p.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLength)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword reports whether the password matches the encoded hash.
// The comparison runs in constant time. A malformed hash verifies as
// false rather than surfacing parse details to the caller.
func VerifyPassword(encodedHash, password string) (bool, error) {
	if len(password) > maxPasswordLength {
		return false, nil
	}

	p, salt, expected, err := decodeHash(encodedHash)
	if err != nil {
		//nolint:nilerr
		return false, nil
	}

	// Re-derive with the cost parameters stored in the hash itself, so
	// hashes created under older defaults still verify.
	derived := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLength)

	return subtle.ConstantTimeCompare(expected, derived) == 1, nil
}

// decodeHash splits "$argon2id$v=N$m=..,t=..,p=..$salt$key" into its parts.
func decodeHash(encoded string) (p argonParams, salt, key []byte, err error) {
	rest, ok := strings.CutPrefix(encoded, "$argon2id$")
	if !ok {
		return p, nil, nil, errors.New("not an argon2id hash")
	}

	fields := strings.Split(rest, "$")
	if len(fields) != 4 {
		return p, nil, nil, errors.New("malformed hash")
	}

	var version int
	if _, err = fmt.Sscanf(fields[0], "v=%d", &version); err != nil {
		return p, nil, nil, fmt.Errorf("invalid version field: %w", err)
	}
	if version != argon2.Version {
		return p, nil, nil, fmt.Errorf("unsupported argon2 version %d", version)
	}

	if _, err = fmt.Sscanf(fields[1], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, nil, nil, fmt.Errorf("invalid cost parameters: %w", err)
	}

	if salt, err = base64.RawStdEncoding.DecodeString(fields[2]); err != nil {
		return p, nil, nil, fmt.Errorf("invalid salt encoding: %w", err)
	}
	if key, err = base64.RawStdEncoding.DecodeString(fields[3]); err != nil {
		return p, nil, nil, fmt.Errorf("invalid key encoding: %w", err)
	}

	//nolint:gosec // derived keys are at most a few dozen bytes
	p.keyLength = uint32(len(key))

	return p, salt, key, nil
}
