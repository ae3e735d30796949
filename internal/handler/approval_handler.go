package handler

import (
	"net/http"

	"github.com/pesio-ai/be-procurement/internal/service"
)

// ListPending handles the approver inbox
func (h *HTTPHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	actor, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	stages, err := h.approvals.ListPending(r.Context(), actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"stages": stages})
}

// DecideStage handles approve and deny decisions
func (h *HTTPHandler) DecideStage(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	actor, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req service.DecideStageInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.approvals.DecideStage(r.Context(), actor, &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}
