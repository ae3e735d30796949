package handler

import (
	"net/http"

	"github.com/pesio-ai/be-procurement/internal/service"
)

// CreateRequest handles create request HTTP requests
func (h *HTTPHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	actor, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req service.CreateRequestInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	created, err := h.requests.CreateRequest(r.Context(), actor, &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// GetRequest handles get request HTTP requests
func (h *HTTPHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	actor, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	id, err := requiredQuery(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	req, err := h.requests.GetRequest(r.Context(), actor, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, req)
}

// ListRequests handles list requests HTTP requests
func (h *HTTPHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	actor, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	page, err := h.requests.ListRequests(r.Context(), actor, &service.ListRequestsInput{
		Status:      optionalQuery(r, "status"),
		RequesterID: optionalQuery(r, "requester_id"),
		CategoryID:  optionalQuery(r, "category_id"),
		VendorID:    optionalQuery(r, "vendor_id"),
		Page:        intQuery(r, "page"),
		PageSize:    intQuery(r, "page_size"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// GetHistory handles request audit trail HTTP requests
func (h *HTTPHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	actor, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	id, err := requiredQuery(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	entries, err := h.requests.GetHistory(r.Context(), actor, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}
