package model

import (
	"regexp"
	"strings"
	"time"

	"github.com/opscopilot-dev/opscopilot/pkg/domain/types"
)

// Ticket represents a support ticket
type Ticket struct {
	ID         int64                `json:"id"`
	CustomerID *int64               `json:"customer_id,omitempty"`
	Subject    string               `json:"subject"`
	Body       string               `json:"body"`
	Status     types.TicketStatus   `json:"status"`
	Priority   types.TicketPriority `json:"priority"`
	Category   string               `json:"category,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`

	// Customer is populated on read when the ticket belongs to a customer
	Customer *Customer `json:"customer,omitempty"`
}

// Customer represents a customer account
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Tier      string    `json:"tier"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketSummary is a compact view of a ticket used for similarity listings
type TicketSummary struct {
	ID        int64                `json:"id"`
	Subject   string               `json:"subject"`
	Status    types.TicketStatus   `json:"status"`
	Priority  types.TicketPriority `json:"priority"`
	Category  string               `json:"category,omitempty"`
	Preview   string               `json:"preview"`
	CreatedAt time.Time            `json:"created_at"`
}

// TicketStats holds aggregate ticket counts for a customer
type TicketStats struct {
	TotalTickets        int `json:"total_tickets"`
	OpenTickets         int `json:"open_tickets"`
	ClosedTickets       int `json:"closed_tickets"`
	HighPriorityTickets int `json:"high_priority_tickets"`
}

const (
	// keywordScanLimit bounds how much of the ticket body is scanned for keywords
	keywordScanLimit = 800

	// maxKeywordTokens caps the number of distinct keywords extracted
	maxKeywordTokens = 6

	// previewLength bounds the body preview in ticket summaries
	previewLength = 160
)

var keywordPattern = regexp.MustCompile(`[a-z]{5,}`)

// KeywordTokens extracts up to 6 distinct lowercase alphabetic tokens of
// length >= 5 from the first 800 characters of body, in first-occurrence
// order. This is the keyword surrogate for ticket similarity; it is
// deliberately not semantic.
func KeywordTokens(body string) []string {
	text := strings.ToLower(body)
	if runes := []rune(text); len(runes) > keywordScanLimit {
		text = string(runes[:keywordScanLimit])
	}

	var tokens []string
	seen := make(map[string]bool)
	for _, tok := range keywordPattern.FindAllString(text, -1) {
		if seen[tok] {
			continue
		}
		seen[tok] = true
		tokens = append(tokens, tok)
		if len(tokens) >= maxKeywordTokens {
			break
		}
	}
	return tokens
}

var previewReplacer = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ")

// Summary converts the ticket to its compact listing form
func (t *Ticket) Summary() *TicketSummary {
	preview := t.Body
	if len(preview) > previewLength {
		preview = preview[:previewLength]
	}
	return &TicketSummary{
		ID:        t.ID,
		Subject:   t.Subject,
		Status:    t.Status,
		Priority:  t.Priority,
		Category:  t.Category,
		Preview:   previewReplacer.Replace(preview),
		CreatedAt: t.CreatedAt,
	}
}
