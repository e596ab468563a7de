package shared

import "fmt"

// AgentID is a value object identifying any endpoint that can hold a Link
// to the Connection Fabric: a worker, a producer, a marketplace, the
// simulation manager, or the statistics gatherer. String-keyed because
// agent identifiers are assigned by configuration (spawn group +
// sequence), not by an auto-incrementing database column.
type AgentID struct {
	value string
}

// NewAgentID creates a new AgentID value object
func NewAgentID(id string) (AgentID, error) {
	if id == "" {
		return AgentID{}, fmt.Errorf("agent_id cannot be empty")
	}
	return AgentID{value: id}, nil
}

// MustNewAgentID creates a new AgentID, panicking if invalid.
// Use only when the id is known to be valid (e.g., derived from config).
func MustNewAgentID(id string) AgentID {
	agentID, err := NewAgentID(id)
	if err != nil {
		panic(err)
	}
	return agentID
}

// Value returns the underlying string value of the AgentID
func (a AgentID) Value() string {
	return a.value
}

// String returns a string representation of the AgentID
func (a AgentID) String() string {
	return a.value
}

// Equals checks if two AgentIDs are equal
func (a AgentID) Equals(other AgentID) bool {
	return a.value == other.value
}

// IsZero checks if the AgentID is the zero value (uninitialized)
func (a AgentID) IsZero() bool {
	return a.value == ""
}
