package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/interfaces"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/model"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/types"
	"github.com/opscopilot-dev/opscopilot/pkg/repository/memory"
	"github.com/opscopilot-dev/opscopilot/pkg/service/rag"
	"github.com/opscopilot-dev/opscopilot/pkg/usecase"
)

type fakeLLM struct {
	response    string
	generateErr error
	lastPrompt  string
	lastPayload string
}

func (f *fakeLLM) Generate(ctx context.Context, instructions, payload string) (string, error) {
	f.lastPrompt = instructions
	f.lastPayload = payload
	if f.generateErr != nil {
		return "", f.generateErr
	}
	return f.response, nil
}

func (f *fakeLLM) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0, 0}
	}
	return vectors, nil
}

func (f *fakeLLM) Model() string {
	return "fake-triage-model"
}

// runTrackingRepo records the ID of the last created agent run so tests
// can inspect runs that failed before Triage returned a result
type runTrackingRepo struct {
	interfaces.Repository
	lastRunID types.RunID
}

func trackRuns(repo interfaces.Repository) *runTrackingRepo {
	return &runTrackingRepo{Repository: repo}
}

func (r *runTrackingRepo) AgentRun() interfaces.AgentRunRepository {
	return &trackingAgentRuns{AgentRunRepository: r.Repository.AgentRun(), tracker: r}
}

type trackingAgentRuns struct {
	interfaces.AgentRunRepository
	tracker *runTrackingRepo
}

func (t *trackingAgentRuns) Create(ctx context.Context, run *model.AgentRun) (*model.AgentRun, error) {
	created, err := t.AgentRunRepository.Create(ctx, run)
	if err == nil {
		t.tracker.lastRunID = created.ID
	}
	return created, err
}

func testRetrieval(t *testing.T, llm interfaces.LLMClient) *rag.Service {
	t.Helper()

	index := rag.NewIndex(3)
	gt.NoError(t, index.Add(
		model.Chunk{DocID: "warranty.md", DocTitle: "Warranty Policy", Index: 0, Text: "warranty covers 12 months"},
		[]float32{1, 0, 0},
	)).Required()
	gt.NoError(t, index.Add(
		model.Chunk{DocID: "refunds.md", DocTitle: "Refund Policy", Index: 0, Text: "refunds within 30 days"},
		[]float32{0, 1, 0},
	)).Required()
	return rag.NewService(index, llm)
}

func seedTicket(t *testing.T, repo interfaces.Repository, body string) *model.Ticket {
	t.Helper()
	ctx := context.Background()

	customer, err := repo.Customer().Create(ctx, &model.Customer{
		Name:  "Sam Ito",
		Email: fmt.Sprintf("sam+%s@example.com", strings.Fields(body)[0]),
	})
	gt.NoError(t, err).Required()

	ticket, err := repo.Ticket().Create(ctx, &model.Ticket{
		CustomerID: &customer.ID,
		Subject:    "Broken device",
		Body:       body,
	})
	gt.NoError(t, err).Required()
	return ticket
}

const validResponse = `{
	"customer_reply": "We will replace your unit under warranty.",
	"recommended_actions": [{"type": "REPLACE", "reason": "covered by warranty"}],
	"citations": [{"source": "warranty.md#0 (Warranty Policy)", "used_for": "replacement"}],
	"risk_notes": []
}`

func TestTriage(t *testing.T) {
	t.Run("ticket-bound run logs the full audit trail", func(t *testing.T) {
		repo := memory.New()
		llm := &fakeLLM{response: validResponse}
		uc := usecase.New(repo,
			usecase.WithLLM(llm),
			usecase.WithRetrieval(testRetrieval(t, llm)),
		)
		ticket := seedTicket(t, repo, "warranty claim for my broken blender")

		result, err := uc.Triage(context.Background(), usecase.TriageInput{TicketID: &ticket.ID})
		gt.NoError(t, err).Required()
		gt.Value(t, result.Output.CustomerReply).Equal("We will replace your unit under warranty.")

		run, err := repo.AgentRun().Get(context.Background(), result.AgentRunID)
		gt.NoError(t, err).Required()
		gt.Bool(t, run.Finalized()).True()
		gt.Value(t, *run.FinalAnswer).Equal("We will replace your unit under warranty.")
		gt.Value(t, run.InputText).Equal(ticket.Body)

		calls, err := repo.AgentRun().ListToolCalls(context.Background(), result.AgentRunID)
		gt.NoError(t, err).Required()
		gt.Array(t, calls).Length(4)
		gt.Value(t, calls[0].Name).Equal("get_ticket_context")
		gt.Value(t, calls[1].Name).Equal("rag_search")
		gt.Value(t, calls[2].Name).Equal("llm_generate")
		gt.Value(t, calls[3].Name).Equal("create_ticket_events")

		// the raw model output is logged before parsing
		var generateOut map[string]string
		gt.NoError(t, json.Unmarshal(calls[2].Output, &generateOut)).Required()
		gt.Value(t, generateOut["raw"]).Equal(validResponse)

		events, err := repo.Ticket().ListEvents(context.Background(), ticket.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, events).Length(1)
		gt.Value(t, events[0].Type).Equal("AGENT_REPLACE")
	})

	t.Run("policy context reaches the prompt payload", func(t *testing.T) {
		repo := memory.New()
		llm := &fakeLLM{response: validResponse}
		uc := usecase.New(repo,
			usecase.WithLLM(llm),
			usecase.WithRetrieval(testRetrieval(t, llm)),
		)
		ticket := seedTicket(t, repo, "warranty claim for my broken blender")

		_, err := uc.Triage(context.Background(), usecase.TriageInput{TicketID: &ticket.ID})
		gt.NoError(t, err).Required()

		gt.String(t, llm.lastPayload).Contains("warranty.md#0 (Warranty Policy)")
		gt.String(t, llm.lastPayload).Contains(ticket.Body)
		gt.String(t, llm.lastPrompt).Contains("triage")
	})

	t.Run("actions are capped at five events", func(t *testing.T) {
		var actions []string
		for i := 0; i < 7; i++ {
			actions = append(actions, `{"type": "TAG", "reason": "tag"}`)
		}
		response := fmt.Sprintf(
			`{"customer_reply": "ok", "recommended_actions": [%s]}`,
			strings.Join(actions, ","),
		)

		repo := memory.New()
		uc := usecase.New(repo, usecase.WithLLM(&fakeLLM{response: response}))
		ticket := seedTicket(t, repo, "please label this conversation correctly")

		_, err := uc.Triage(context.Background(), usecase.TriageInput{TicketID: &ticket.ID})
		gt.NoError(t, err).Required()

		events, err := repo.Ticket().ListEvents(context.Background(), ticket.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, events).Length(5)
	})

	t.Run("free text run skips ticket-bound steps", func(t *testing.T) {
		repo := memory.New()
		llm := &fakeLLM{response: `{"customer_reply": "Our policy allows returns within 30 days."}`}
		uc := usecase.New(repo,
			usecase.WithLLM(llm),
			usecase.WithRetrieval(testRetrieval(t, llm)),
		)

		result, err := uc.Triage(context.Background(), usecase.TriageInput{
			FreeText: "what is the return window for electronics",
		})
		gt.NoError(t, err).Required()

		calls, err := repo.AgentRun().ListToolCalls(context.Background(), result.AgentRunID)
		gt.NoError(t, err).Required()
		gt.Array(t, calls).Length(2)
		gt.Value(t, calls[0].Name).Equal("rag_search")
		gt.Value(t, calls[1].Name).Equal("llm_generate")
	})

	t.Run("without retrieval the prompt carries the absence marker", func(t *testing.T) {
		repo := memory.New()
		llm := &fakeLLM{response: `{"customer_reply": "ok"}`}
		uc := usecase.New(repo, usecase.WithLLM(llm))

		_, err := uc.Triage(context.Background(), usecase.TriageInput{FreeText: "hello there"})
		gt.NoError(t, err).Required()
		gt.String(t, llm.lastPayload).Contains("(no policy context available)")
	})

	t.Run("malformed output fails and leaves the run unfinalized", func(t *testing.T) {
		repo := trackRuns(memory.New())
		uc := usecase.New(repo, usecase.WithLLM(&fakeLLM{response: "I think you should escalate this."}))
		ticket := seedTicket(t, repo, "strange noise coming from the device")

		_, err := uc.Triage(context.Background(), usecase.TriageInput{TicketID: &ticket.ID})
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, usecase.ErrMalformedOutput)).True()

		run, err := repo.AgentRun().Get(context.Background(), repo.lastRunID)
		gt.NoError(t, err).Required()
		gt.Bool(t, run.Finalized()).False()

		// the raw output is still in the trail, but no events were applied
		calls, err := repo.AgentRun().ListToolCalls(context.Background(), repo.lastRunID)
		gt.NoError(t, err).Required()
		gt.Array(t, calls).Length(3)
		gt.Value(t, calls[2].Name).Equal("llm_generate")

		events, err := repo.Ticket().ListEvents(context.Background(), ticket.ID)
		gt.NoError(t, err).Required()
		gt.Array(t, events).Length(0)
	})

	t.Run("generation failure leaves the run unfinalized", func(t *testing.T) {
		repo := trackRuns(memory.New())
		uc := usecase.New(repo, usecase.WithLLM(&fakeLLM{generateErr: errors.New("upstream unavailable")}))
		ticket := seedTicket(t, repo, "device will not turn on anymore")

		_, err := uc.Triage(context.Background(), usecase.TriageInput{TicketID: &ticket.ID})
		gt.Error(t, err)

		run, err := repo.AgentRun().Get(context.Background(), repo.lastRunID)
		gt.NoError(t, err).Required()
		gt.Bool(t, run.Finalized()).False()

		// the trail stops at retrieval; nothing after the failed step
		calls, err := repo.AgentRun().ListToolCalls(context.Background(), repo.lastRunID)
		gt.NoError(t, err).Required()
		gt.Array(t, calls).Length(2)
		gt.Value(t, calls[0].Name).Equal("get_ticket_context")
		gt.Value(t, calls[1].Name).Equal("rag_search")
	})

	t.Run("unknown ticket fails with not found", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo, usecase.WithLLM(&fakeLLM{response: validResponse}))

		missing := int64(999)
		_, err := uc.Triage(context.Background(), usecase.TriageInput{TicketID: &missing})
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, usecase.ErrTicketNotFound)).True()
	})

	t.Run("mismatched model request is rejected", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo, usecase.WithLLM(&fakeLLM{response: validResponse}))

		_, err := uc.Triage(context.Background(), usecase.TriageInput{
			FreeText: "what is the refund window",
			Model:    "some-other-model",
		})
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, usecase.ErrInvalidInput)).True()

		_, err = uc.Triage(context.Background(), usecase.TriageInput{
			FreeText: "what is the refund window",
			Model:    "fake-triage-model",
		})
		gt.NoError(t, err).Required()
	})

	t.Run("input must be exactly one of ticket and free text", func(t *testing.T) {
		repo := memory.New()
		uc := usecase.New(repo, usecase.WithLLM(&fakeLLM{response: validResponse}))

		_, err := uc.Triage(context.Background(), usecase.TriageInput{})
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, usecase.ErrInvalidInput)).True()

		ticket := seedTicket(t, memory.New(), "placeholder body for input check")
		_, err = uc.Triage(context.Background(), usecase.TriageInput{
			TicketID: &ticket.ID,
			FreeText: "also this",
		})
		gt.Error(t, err)
		gt.Bool(t, errors.Is(err, usecase.ErrInvalidInput)).True()
	})
}
