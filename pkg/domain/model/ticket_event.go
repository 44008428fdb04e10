package model

import (
	"encoding/json"
	"time"
)

// TicketEvent is an append-only record of a state-changing action taken
// against a ticket. Agent-recommended actions are written as events
// tagged "AGENT_<ACTION_TYPE>".
type TicketEvent struct {
	ID        int64           `json:"id"`
	TicketID  int64           `json:"ticket_id"`
	Type      string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}
