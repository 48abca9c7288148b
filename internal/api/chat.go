package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/supportql/supportql/internal/auth"
	"github.com/supportql/supportql/internal/pipeline"
)

type chatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id,omitempty"`
}

type chatResponse struct {
	SessionID   string `json:"session_id"`
	Intent      string `json:"intent"`
	FinalAnswer string `json:"final_answer"`
}

func handleChat(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, auth.RoleSupportUser) {
		return
	}
	if deps.Pipeline == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "PIPELINE_UNAVAILABLE", "pipeline is not configured", true, nil)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_REQUEST", "invalid JSON body", false, nil)
		return
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_REQUEST", "question is required", false, nil)
		return
	}

	result, err := deps.Pipeline.Run(r.Context(), pipeline.Request{
		Question:  req.Question,
		SessionID: strings.TrimSpace(req.SessionID),
	})
	if err != nil {
		writeError(r.Context(), w, http.StatusBadGateway, "PIPELINE_FAILURE", "could not answer the question", true, nil)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID:   result.SessionID,
		Intent:      result.Intent,
		FinalAnswer: result.FinalAnswer,
	})
}
