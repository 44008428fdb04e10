package types

import "fmt"

// TicketStatus represents the lifecycle status of a support ticket
type TicketStatus string

const (
	TicketStatusOpen    TicketStatus = "open"
	TicketStatusPending TicketStatus = "pending"
	TicketStatusClosed  TicketStatus = "closed"
)

// AllTicketStatuses returns all valid ticket statuses
func AllTicketStatuses() []TicketStatus {
	return []TicketStatus{
		TicketStatusOpen,
		TicketStatusPending,
		TicketStatusClosed,
	}
}

// IsValid checks if the ticket status is valid
func (s TicketStatus) IsValid() bool {
	for _, valid := range AllTicketStatuses() {
		if s == valid {
			return true
		}
	}
	return false
}

// Normalize returns the status, treating empty as TicketStatusOpen
func (s TicketStatus) Normalize() TicketStatus {
	if s == "" {
		return TicketStatusOpen
	}
	return s
}

// String returns the string representation of the ticket status
func (s TicketStatus) String() string {
	return string(s)
}

// ParseTicketStatus parses a string into a TicketStatus
func ParseTicketStatus(s string) (TicketStatus, error) {
	status := TicketStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid ticket status: %s", s)
	}
	return status, nil
}
