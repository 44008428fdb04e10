package types

import "fmt"

// ActionType represents the kind of action the agent recommends for a ticket
type ActionType string

const (
	ActionTypeTag         ActionType = "TAG"
	ActionTypeEscalate    ActionType = "ESCALATE"
	ActionTypeRefund      ActionType = "REFUND"
	ActionTypeReplace     ActionType = "REPLACE"
	ActionTypeRequestInfo ActionType = "REQUEST_INFO"
	ActionTypeOther       ActionType = "OTHER"
)

// AllActionTypes returns all valid action types
func AllActionTypes() []ActionType {
	return []ActionType{
		ActionTypeTag,
		ActionTypeEscalate,
		ActionTypeRefund,
		ActionTypeReplace,
		ActionTypeRequestInfo,
		ActionTypeOther,
	}
}

// IsValid checks if the action type is valid
func (t ActionType) IsValid() bool {
	for _, valid := range AllActionTypes() {
		if t == valid {
			return true
		}
	}
	return false
}

// Normalize returns the action type, treating empty as ActionTypeOther
func (t ActionType) Normalize() ActionType {
	if t == "" {
		return ActionTypeOther
	}
	return t
}

// String returns the string representation of the action type
func (t ActionType) String() string {
	return string(t)
}

// ParseActionType parses a string into an ActionType
func ParseActionType(s string) (ActionType, error) {
	t := ActionType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid action type: %s", s)
	}
	return t, nil
}
