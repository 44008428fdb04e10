package model

import (
	"encoding/json"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/types"
)

// RecommendedAction is one internal action the agent proposes for a ticket
type RecommendedAction struct {
	Type   types.ActionType `json:"type"`
	Reason string           `json:"reason"`
}

// Citation ties a piece of generated text back to the exact policy chunk
// it is grounded in. Source uses the "doc#chunk (title)" format.
type Citation struct {
	Source  string `json:"source"`
	UsedFor string `json:"used_for"`
}

// AgentOutput is the structured result of one generation step. It is
// validated strictly: a missing required field or an unknown action type
// is a hard failure, never silently coerced.
type AgentOutput struct {
	CustomerReply      string              `json:"customer_reply"`
	RecommendedActions []RecommendedAction `json:"recommended_actions"`
	Citations          []Citation          `json:"citations"`
	RiskNotes          []string            `json:"risk_notes"`
}

// ErrUngroundedOutput indicates the output violates the citation-grounding
// rule: an action or wording that implies a policy decision carries no
// citation drawn from the supplied policy context.
var ErrUngroundedOutput = goerr.New("agent output is not grounded in policy context")

// rawAgentOutput distinguishes absent fields from empty ones during parsing
type rawAgentOutput struct {
	CustomerReply      *string             `json:"customer_reply"`
	RecommendedActions []RecommendedAction `json:"recommended_actions"`
	Citations          []Citation          `json:"citations"`
	RiskNotes          []string            `json:"risk_notes"`
}

// ParseAgentOutput parses raw model output into an AgentOutput.
// customer_reply is required; the list fields default to empty when
// absent. A recommended action with an empty type defaults to OTHER,
// but a type outside the enum is rejected.
func ParseAgentOutput(text string) (*AgentOutput, error) {
	var raw rawAgentOutput
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &raw); err != nil {
		return nil, goerr.Wrap(err, "output is not valid JSON")
	}

	if raw.CustomerReply == nil {
		return nil, goerr.New("output is missing customer_reply")
	}

	out := &AgentOutput{
		CustomerReply:      *raw.CustomerReply,
		RecommendedActions: raw.RecommendedActions,
		Citations:          raw.Citations,
		RiskNotes:          raw.RiskNotes,
	}
	if out.RecommendedActions == nil {
		out.RecommendedActions = []RecommendedAction{}
	}
	if out.Citations == nil {
		out.Citations = []Citation{}
	}
	if out.RiskNotes == nil {
		out.RiskNotes = []string{}
	}

	for i, a := range out.RecommendedActions {
		t, err := types.ParseActionType(a.Type.Normalize().String())
		if err != nil {
			return nil, goerr.Wrap(err, "invalid recommended action type",
				goerr.V("type", a.Type.String()),
				goerr.V("index", i),
			)
		}
		out.RecommendedActions[i].Type = t
	}

	return out, nil
}

// groundedActionTypes are action types that always require a citation
// when policy context was supplied.
var groundedActionTypes = map[types.ActionType]bool{
	types.ActionTypeRefund:   true,
	types.ActionTypeReplace:  true,
	types.ActionTypeEscalate: true,
}

// policyConcepts trigger the grounding requirement when mentioned in the
// customer reply or the risk notes.
var policyConcepts = []string{"warranty", "refund", "shipping", "sla"}

// CheckGrounding verifies the citation-grounding rule against the policy
// sources that were supplied to the model. If no sources were supplied,
// empty citations are legitimate and the check passes.
func (o *AgentOutput) CheckGrounding(sources []string) error {
	if len(sources) == 0 {
		return nil
	}
	if !o.requiresCitation() {
		return nil
	}

	known := make(map[string]bool, len(sources))
	for _, s := range sources {
		known[s] = true
	}
	for _, c := range o.Citations {
		if known[c.Source] {
			return nil
		}
	}

	return goerr.Wrap(ErrUngroundedOutput, "no citation matches a supplied policy source",
		goerr.V("citations", len(o.Citations)),
		goerr.V("sources", len(sources)),
	)
}

func (o *AgentOutput) requiresCitation() bool {
	for _, a := range o.RecommendedActions {
		if groundedActionTypes[a.Type] {
			return true
		}
	}

	text := strings.ToLower(o.CustomerReply + " " + strings.Join(o.RiskNotes, " "))
	for _, concept := range policyConcepts {
		if strings.Contains(text, concept) {
			return true
		}
	}
	return false
}
