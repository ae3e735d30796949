package handler

import "net/http"

// DashboardSummary returns request counts and the caller's pending stage count.
func (h *HTTPHandler) DashboardSummary(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	actor, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	summary, err := h.dashboard.Summary(r.Context(), actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
