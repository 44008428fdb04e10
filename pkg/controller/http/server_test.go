package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"
	server "github.com/opscopilot-dev/opscopilot/pkg/controller/http"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/model"
	"github.com/opscopilot-dev/opscopilot/pkg/repository/memory"
	"github.com/opscopilot-dev/opscopilot/pkg/usecase"
)

type stubLLM struct {
	response string
}

func (s *stubLLM) Generate(ctx context.Context, instructions, payload string) (string, error) {
	return s.response, nil
}

func (s *stubLLM) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0, 0}
	}
	return vectors, nil
}

func (s *stubLLM) Model() string {
	return "stub-model"
}

func setupServer(t *testing.T, opts ...usecase.Option) (*server.Server, *memory.Memory) {
	t.Helper()
	repo := memory.New()
	return server.New(usecase.New(repo, opts...)), repo
}

func TestHealth(t *testing.T) {
	srv, _ := setupServer(t)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	gt.Number(t, rec.Code).Equal(http.StatusOK)
	gt.String(t, rec.Header().Get("Content-Type")).Equal("application/json")
}

func TestListTickets(t *testing.T) {
	srv, repo := setupServer(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Ticket().Create(ctx, &model.Ticket{
			Subject: fmt.Sprintf("ticket %d", i),
			Body:    "something is wrong with my order",
		})
		gt.NoError(t, err).Required()
	}

	t.Run("lists tickets", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tickets", nil))
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var body struct {
			Tickets []*model.Ticket `json:"tickets"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body)).Required()
		gt.Array(t, body.Tickets).Length(3)
	})

	t.Run("honors the limit parameter", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tickets?limit=2", nil))
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var body struct {
			Tickets []*model.Ticket `json:"tickets"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body)).Required()
		gt.Array(t, body.Tickets).Length(2)
	})

	t.Run("rejects non-numeric limit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tickets?limit=abc", nil))
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestGetTicket(t *testing.T) {
	srv, repo := setupServer(t)
	ctx := context.Background()

	ticket, err := repo.Ticket().Create(ctx, &model.Ticket{
		Subject: "Refund request",
		Body:    "I would like a refund for my last order",
	})
	gt.NoError(t, err).Required()

	t.Run("returns the ticket", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/tickets/%d", ticket.ID), nil))
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var got model.Ticket
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got)).Required()
		gt.Value(t, got.Subject).Equal("Refund request")
	})

	t.Run("unknown ticket is 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tickets/9999", nil))
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
	})

	t.Run("non-numeric ID is 400", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tickets/abc", nil))
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestAgentRun(t *testing.T) {
	post := func(srv *server.Server, body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/agent/run", bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/json")
		srv.ServeHTTP(rec, req)
		return rec
	}

	t.Run("free text run succeeds", func(t *testing.T) {
		srv, _ := setupServer(t, usecase.WithLLM(&stubLLM{
			response: `{"customer_reply": "Refunds are accepted within 30 days."}`,
		}))

		rec := post(srv, `{"free_text": "what is the refund window"}`)
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var body struct {
			AgentRunID string             `json:"agent_run_id"`
			Result     *model.AgentOutput `json:"result"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body)).Required()
		gt.String(t, body.AgentRunID).NotEqual("")
		gt.Value(t, body.Result.CustomerReply).Equal("Refunds are accepted within 30 days.")
	})

	t.Run("missing input is 400", func(t *testing.T) {
		srv, _ := setupServer(t, usecase.WithLLM(&stubLLM{response: `{"customer_reply": "ok"}`}))
		rec := post(srv, `{}`)
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})

	t.Run("unknown ticket is 404", func(t *testing.T) {
		srv, _ := setupServer(t, usecase.WithLLM(&stubLLM{response: `{"customer_reply": "ok"}`}))
		rec := post(srv, `{"ticket_id": 4242}`)
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
	})

	t.Run("non-JSON model output is 502", func(t *testing.T) {
		srv, _ := setupServer(t, usecase.WithLLM(&stubLLM{response: "sure, refund them"}))
		rec := post(srv, `{"free_text": "please help"}`)
		gt.Number(t, rec.Code).Equal(http.StatusBadGateway)
	})

	t.Run("malformed request body is 400", func(t *testing.T) {
		srv, _ := setupServer(t, usecase.WithLLM(&stubLLM{response: `{"customer_reply": "ok"}`}))
		rec := post(srv, `{"ticket_id": "not a number"}`)
		gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestRunToolCalls(t *testing.T) {
	srv, _ := setupServer(t, usecase.WithLLM(&stubLLM{
		response: `{"customer_reply": "We will look into it."}`,
	}))

	rec := httptest.NewRecorder()
	body := bytes.NewReader([]byte(`{"free_text": "my package never arrived"}`))
	req := httptest.NewRequest(http.MethodPost, "/api/agent/run", body)
	srv.ServeHTTP(rec, req)
	gt.Number(t, rec.Code).Equal(http.StatusOK)

	var runResp struct {
		AgentRunID string `json:"agent_run_id"`
	}
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runResp)).Required()

	t.Run("returns the trace", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/"+runResp.AgentRunID+"/tool_calls", nil))
		gt.Number(t, rec.Code).Equal(http.StatusOK)

		var body struct {
			Run       *model.AgentRun   `json:"run"`
			ToolCalls []*model.ToolCall `json:"tool_calls"`
		}
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body)).Required()
		gt.Bool(t, body.Run.Finalized()).True()
		gt.Array(t, body.ToolCalls).Length(2)
	})

	t.Run("unknown run is 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/runs/no-such-run/tool_calls", nil))
		gt.Number(t, rec.Code).Equal(http.StatusNotFound)
	})
}
