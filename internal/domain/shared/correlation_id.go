package shared

import (
	"fmt"

	"github.com/google/uuid"
)

// CorrelationID is a value object echoed by a reply packet to match it to
// its originating request. It is opaque: callers never parse its contents,
// only compare it for equality and use it as a map key.
type CorrelationID struct {
	value string
}

// NewCorrelationID creates a new CorrelationID with a generated UUID
func NewCorrelationID() CorrelationID {
	return CorrelationID{value: uuid.New().String()}
}

// NewCorrelationIDFromString creates a CorrelationID from an existing UUID string
func NewCorrelationIDFromString(id string) (CorrelationID, error) {
	if id == "" {
		return CorrelationID{}, fmt.Errorf("correlation_id cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return CorrelationID{}, fmt.Errorf("invalid correlation_id format: %w", err)
	}
	return CorrelationID{value: id}, nil
}

// Value returns the string value of the CorrelationID
func (c CorrelationID) Value() string {
	return c.value
}

// String returns a string representation of the CorrelationID
func (c CorrelationID) String() string {
	return c.value
}

// Equals checks if two CorrelationIDs are equal
func (c CorrelationID) Equals(other CorrelationID) bool {
	return c.value == other.value
}

// IsZero checks if the CorrelationID is the zero value (uninitialized)
func (c CorrelationID) IsZero() bool {
	return c.value == ""
}
