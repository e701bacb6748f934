// Package id generates the prefixed identifiers used across the exchange:
// "mem" members, "item" items, "swap" swap requests, "led" ledger entries,
// "sess" sessions, "adm" admin actions, "token" refresh tokens.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// alphabet deliberately excludes '-' and '_' so the prefix separator is
// unambiguous when an ID needs to be split back apart.
const (
	alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	length   = 21
)

// Generate creates a prefixed unique ID, e.g. "item-V1StGXR8Z5jdHi6BmyT0q".
// Returns an error only when the system cannot supply secure randomness.
func Generate(prefix string) (string, error) {
	id, err := gonanoid.Generate(alphabet, length)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics on failure. Reserve it for
// initialization paths where a dead entropy source should crash the process.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
