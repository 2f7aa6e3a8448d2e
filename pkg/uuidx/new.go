package uuidx

import "github.com/google/uuid"

// New returns a time ordered (version 7) UUID.
// It panics if the random source fails.
func New() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// NewString is New formatted in the canonical textual form.
func NewString() string {
	return New().String()
}

// Short returns the last 8 hex characters of id.
// Version 7 ids share their timestamp prefix within a run, so the tail is the
// part that tells two ids apart in console output.
func Short(id uuid.UUID) string {
	s := id.String()
	return s[len(s)-8:]
}
