// Package uuid generates and validates the string identifiers used as
// primary keys across hearth.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New returns a time-ordered UUIDv7 string, falling back to a random
// UUIDv4 if the v7 generator cannot read entropy.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		return googleuuid.NewString()
	}
	return id.String()
}

// Parse validates s and returns its canonical lower-case form.
func Parse(s string) (string, error) {
	parsed, err := googleuuid.Parse(s)
	if err != nil {
		return "", err
	}
	return parsed.String(), nil
}

// IsValid checks if a string is a valid UUID
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}
