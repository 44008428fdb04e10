package types

import "fmt"

// TicketPriority represents how urgent a support ticket is
type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityNormal TicketPriority = "normal"
	PriorityHigh   TicketPriority = "high"
	PriorityUrgent TicketPriority = "urgent"
)

// AllTicketPriorities returns all valid ticket priorities
func AllTicketPriorities() []TicketPriority {
	return []TicketPriority{
		PriorityLow,
		PriorityNormal,
		PriorityHigh,
		PriorityUrgent,
	}
}

// IsValid checks if the ticket priority is valid
func (p TicketPriority) IsValid() bool {
	for _, valid := range AllTicketPriorities() {
		if p == valid {
			return true
		}
	}
	return false
}

// IsHigh reports whether the priority counts as high for ticket statistics
func (p TicketPriority) IsHigh() bool {
	return p == PriorityHigh || p == PriorityUrgent
}

// Normalize returns the priority, treating empty as PriorityNormal
func (p TicketPriority) Normalize() TicketPriority {
	if p == "" {
		return PriorityNormal
	}
	return p
}

// String returns the string representation of the ticket priority
func (p TicketPriority) String() string {
	return string(p)
}

// ParseTicketPriority parses a string into a TicketPriority
func ParseTicketPriority(s string) (TicketPriority, error) {
	p := TicketPriority(s)
	if !p.IsValid() {
		return "", fmt.Errorf("invalid ticket priority: %s", s)
	}
	return p, nil
}
