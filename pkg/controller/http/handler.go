package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/interfaces"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/model"
	"github.com/opscopilot-dev/opscopilot/pkg/domain/types"
	"github.com/opscopilot-dev/opscopilot/pkg/usecase"
	"github.com/opscopilot-dev/opscopilot/pkg/utils/errutil"
	"github.com/opscopilot-dev/opscopilot/pkg/utils/safe"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListTickets(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid limit parameter"), http.StatusBadRequest)
			return
		}
		limit = n
	}

	tickets, err := s.uc.ListTickets(r.Context(), limit)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusFor(err))
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{"tickets": tickets})
}

func (s *Server) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid ticket ID"), http.StatusBadRequest)
		return
	}

	ticket, err := s.uc.GetTicket(r.Context(), id)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusFor(err))
		return
	}

	writeJSON(w, r, http.StatusOK, ticket)
}

func (s *Server) handleRunToolCalls(w http.ResponseWriter, r *http.Request) {
	runID := types.RunID(chi.URLParam(r, "id"))

	run, calls, err := s.uc.GetRunTrace(r.Context(), runID)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusFor(err))
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"run":        run,
		"tool_calls": calls,
	})
}

type agentRunRequest struct {
	TicketID *int64 `json:"ticket_id"`
	FreeText string `json:"free_text"`
	Model    string `json:"model"`
}

type agentRunResponse struct {
	AgentRunID types.RunID        `json:"agent_run_id"`
	Result     *model.AgentOutput `json:"result"`
}

func (s *Server) handleAgentRun(w http.ResponseWriter, r *http.Request) {
	var req agentRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}

	result, err := s.uc.Triage(r.Context(), usecase.TriageInput{
		TicketID: req.TicketID,
		FreeText: req.FreeText,
		Model:    req.Model,
	})
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusFor(err))
		return
	}

	writeJSON(w, r, http.StatusOK, agentRunResponse{
		AgentRunID: result.AgentRunID,
		Result:     result.Output,
	})
}

// statusFor maps use case errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrTicketNotFound), errors.Is(err, interfaces.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, usecase.ErrMalformedOutput):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}
