package types

import "github.com/google/uuid"

// RunID is a UUID-based identifier for an agent run
type RunID string

// NewRunID generates a new UUID v4 RunID
func NewRunID() RunID {
	return RunID(uuid.New().String())
}

// String returns the string representation of the run ID
func (id RunID) String() string {
	return string(id)
}
