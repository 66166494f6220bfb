package domain

import (
	"fmt"
	"regexp"
)

// ContextID partitions stored documents between tenants or sessions.
// Storage methods take a ContextID rather than a string so a call site
// cannot silently skip the partition.
type ContextID string

var contextIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.:\-]{1,128}$`)

// NewContextID validates raw and returns it as a ContextID.
func NewContextID(raw string) (ContextID, error) {
	if !contextIDPattern.MatchString(raw) {
		return "", fmt.Errorf("%w: %q", ErrInvalidContextID, raw)
	}
	return ContextID(raw), nil
}

// DefaultContextID is the partition used when a caller does not name one:
// every API key gets its own.
func DefaultContextID(keyPrefix string) ContextID {
	return ContextID("key-" + keyPrefix)
}

// String implements fmt.Stringer.
func (c ContextID) String() string { return string(c) }
