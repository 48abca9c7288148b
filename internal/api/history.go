package api

import (
	"net/http"
	"strings"

	"github.com/supportql/supportql/internal/auth"
	"github.com/supportql/supportql/internal/conversation"
)

type sessionMessagesResponse struct {
	SessionID string                `json:"session_id"`
	Messages  []conversation.Record `json:"messages"`
}

func handleSessionMessages(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, auth.RoleHistoryReader) {
		return
	}
	if deps.Transcript == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "TRANSCRIPT_UNAVAILABLE", "transcript store is not configured", true, nil)
		return
	}

	sessionID := strings.TrimSpace(r.PathValue("session"))
	if sessionID == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_REQUEST", "session id is required", false, nil)
		return
	}

	records, err := deps.Transcript.ListBySession(r.Context(), sessionID)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "TRANSCRIPT_READ_FAILED", "could not read session transcript", true, nil)
		return
	}

	writeJSON(w, http.StatusOK, sessionMessagesResponse{SessionID: sessionID, Messages: records})
}
