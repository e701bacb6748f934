// Package auth covers credential hashing, PASETO token issuance, and the
// symmetric key the tokens are encrypted with.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	keyFileName = "auth.key"

	// PASETO v4.local uses a 256-bit symmetric key.
	keyBytes = 32
)

// LoadOrGenerateKey returns the token encryption key, reading it from
// <dataPath>/auth.key or generating and persisting a new one if the file
// does not exist yet. Rotating the key invalidates all issued access
// tokens, so the file is only written once.
func LoadOrGenerateKey(dataPath string) ([]byte, error) {
	keyPath := filepath.Join(dataPath, keyFileName)

	key, err := readKeyFile(keyPath)
	switch {
	case err == nil:
		return key, nil
	case errors.Is(err, fs.ErrNotExist):
		return generateKeyFile(dataPath, keyPath)
	default:
		return nil, err
	}
}

func readKeyFile(keyPath string) ([]byte, error) {
	//#nosec G304 -- path is derived from the validated data directory
	raw, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, err
	}

	key, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("auth key is not valid hex: %w", err)
	}
	if len(key) != keyBytes {
		return nil, fmt.Errorf("auth key must be %d bytes, got %d", keyBytes, len(key))
	}

	return key, nil
}

func generateKeyFile(dataPath, keyPath string) ([]byte, error) {
	key := make([]byte, keyBytes)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate auth key: %w", err)
	}

	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(hex.EncodeToString(key)), 0o600); err != nil {
		return nil, fmt.Errorf("save auth key: %w", err)
	}

	return key, nil
}
