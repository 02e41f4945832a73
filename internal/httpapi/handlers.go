// Package httpapi exposes the code generation workflow over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/crucible-ai/crucible/internal/models"
	"github.com/crucible-ai/crucible/internal/store"
	"github.com/crucible-ai/crucible/internal/workflow"
)

// AgentStatusProber reports per-agent reachability for the llm-status
// endpoint.
type AgentStatusProber interface {
	Availability(ctx context.Context) map[string]bool
}

// Handler serves the public API.
type Handler struct {
	records      *store.Records
	orchestrator *workflow.Orchestrator
	prober       AgentStatusProber
	logger       *zap.Logger
}

// NewHandler creates the API handler.
func NewHandler(records *store.Records, orch *workflow.Orchestrator, prober AgentStatusProber, logger *zap.Logger) *Handler {
	return &Handler{
		records:      records,
		orchestrator: orch,
		prober:       prober,
		logger:       logger,
	}
}

// RegisterRoutes registers API routes on the provided mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/generate-code", h.handleGenerateCode)
	mux.HandleFunc("GET /api/generation-status/{request_id}", h.handleGenerationStatus)
	mux.HandleFunc("GET /api/generation-result/{session_id}", h.handleGenerationResult)
	mux.HandleFunc("GET /api/final-code/{session_id}", h.handleFinalCode)
	mux.HandleFunc("GET /api/requests", h.handleListRequests)
	mux.HandleFunc("GET /api/llm-status", h.handleLLMStatus)
}

// generateCodeRequest is the payload for a generation submission.
type generateCodeRequest struct {
	UserPrompt   string `json:"user_prompt"`
	Language     string `json:"language,omitempty"`
	Requirements string `json:"requirements,omitempty"`
}

func (h *Handler) handleGenerateCode(w http.ResponseWriter, r *http.Request) {
	var payload generateCodeRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if payload.UserPrompt == "" {
		http.Error(w, `{"error":"user_prompt is required"}`, http.StatusBadRequest)
		return
	}
	if payload.Language == "" {
		payload.Language = "python"
	}

	req := models.NewRequest(payload.UserPrompt, payload.Language, payload.Requirements)
	if err := h.records.SaveRequest(r.Context(), req); err != nil {
		h.logger.Error("Failed to save request", zap.Error(err))
		http.Error(w, `{"error":"storage unavailable"}`, http.StatusServiceUnavailable)
		return
	}

	session, err := h.orchestrator.Start(r.Context(), req)
	if err != nil {
		h.logger.Error("Failed to start workflow", zap.String("request_id", req.ID), zap.Error(err))
		http.Error(w, `{"error":"failed to start workflow"}`, http.StatusServiceUnavailable)
		return
	}

	h.logger.Info("Generation accepted",
		zap.String("request_id", req.ID),
		zap.String("session_id", session.ID),
		zap.String("language", req.Language),
	)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"request_id": req.ID,
		"session_id": session.ID,
		"status":     req.Status,
	})
}

func (h *Handler) handleGenerationStatus(w http.ResponseWriter, r *http.Request) {
	requestID := r.PathValue("request_id")

	req, err := h.records.GetRequest(r.Context(), requestID)
	if err != nil {
		h.notFoundOrError(w, err, "request not found")
		return
	}

	response := map[string]any{
		"request_id": req.ID,
		"status":     req.Status,
		"updated_at": req.UpdatedAt,
	}
	if session, err := h.records.SessionForRequest(r.Context(), requestID); err == nil {
		response["session_id"] = session.ID
		response["current_iteration"] = session.RefinementIterations
		response["max_iterations"] = session.MaxIterations
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) handleGenerationResult(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")

	result, err := workflow.AssembleResult(r.Context(), h.records, sessionID)
	if err != nil {
		h.notFoundOrError(w, err, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleFinalCode(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")

	result, err := workflow.AssembleResult(r.Context(), h.records, sessionID)
	if err != nil {
		h.notFoundOrError(w, err, "session not found")
		return
	}
	if result.FinalCode == "" {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "no code for session"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"final_code": result.FinalCode,
		"status":     result.Session.Status,
		"iterations": result.Session.RefinementIterations,
		"summary":    result.Summary,
	})
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.records.ListRequests(r.Context())
	if err != nil {
		h.logger.Error("Failed to list requests", zap.Error(err))
		http.Error(w, `{"error":"storage unavailable"}`, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"requests": requests,
		"count":    len(requests),
	})
}

func (h *Handler) handleLLMStatus(w http.ResponseWriter, r *http.Request) {
	availability := h.prober.Availability(r.Context())
	allUp := len(availability) > 0
	for _, up := range availability {
		if !up {
			allUp = false
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"agents":         availability,
		"overall_health": allUp,
	})
}

func (h *Handler) notFoundOrError(w http.ResponseWriter, err error, msg string) {
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": msg})
		return
	}
	h.logger.Error("Lookup failed", zap.Error(err))
	http.Error(w, `{"error":"storage unavailable"}`, http.StatusServiceUnavailable)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
