package api

import (
	"net/http"

	"github.com/supportql/supportql/internal/auth"
)

func handleArchiveRun(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if !requireRole(w, r, auth.RoleAdmin) {
		return
	}
	if deps.Archive == nil {
		writeError(r.Context(), w, http.StatusServiceUnavailable, "ARCHIVE_DISABLED", "transcript archiving is not enabled", false, nil)
		return
	}

	result, err := deps.Archive.RunOnce(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "ARCHIVE_RUN_FAILED", err.Error(), true, nil)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
