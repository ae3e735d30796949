package handler

import (
	"net/http"

	"github.com/pesio-ai/be-procurement/internal/service"
)

// ── Rules ─────────────────────────────────────────────────────────────────────

// CreateRule handles create rule HTTP requests
func (h *HTTPHandler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req service.RuleInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	rule, err := h.catalog.CreateRule(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, rule)
}

// ListRules handles list rules HTTP requests. ?active=true limits the
// listing to active rules.
func (h *HTTPHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.catalog.ListRules(r.Context(), boolQuery(r, "active"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"rules": rules})
}

// GetRule handles get rule HTTP requests
func (h *HTTPHandler) GetRule(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	id, err := requiredQuery(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	rule, err := h.catalog.GetRule(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rule)
}

// UpdateRule handles update rule HTTP requests
func (h *HTTPHandler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPut) {
		return
	}

	id, err := requiredQuery(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req service.RuleInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	rule, err := h.catalog.UpdateRule(r.Context(), id, &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, rule)
}

// DeleteRule handles delete rule HTTP requests
func (h *HTTPHandler) DeleteRule(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodDelete) {
		return
	}

	id, err := requiredQuery(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.catalog.DeleteRule(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ── Vendors ───────────────────────────────────────────────────────────────────

// CreateVendor handles create vendor HTTP requests
func (h *HTTPHandler) CreateVendor(w http.ResponseWriter, r *http.Request) {
	var req service.VendorInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	vendor, err := h.catalog.CreateVendor(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, vendor)
}

// ListVendors handles list vendors HTTP requests
func (h *HTTPHandler) ListVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.catalog.ListVendors(r.Context(), boolQuery(r, "active"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"vendors": vendors})
}

// GetVendor handles get vendor HTTP requests
func (h *HTTPHandler) GetVendor(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	id, err := requiredQuery(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	vendor, err := h.catalog.GetVendor(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, vendor)
}

// UpdateVendor handles update vendor HTTP requests
func (h *HTTPHandler) UpdateVendor(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPut) {
		return
	}

	id, err := requiredQuery(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req service.VendorInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	vendor, err := h.catalog.UpdateVendor(r.Context(), id, &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, vendor)
}

// ── Categories ────────────────────────────────────────────────────────────────

// CreateCategory handles create category HTTP requests
func (h *HTTPHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req service.CategoryInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	category, err := h.catalog.CreateCategory(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, category)
}

// ListCategories handles list categories HTTP requests
func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

// UpdateCategory handles update category HTTP requests
func (h *HTTPHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPut) {
		return
	}

	id, err := requiredQuery(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req service.CategoryInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	category, err := h.catalog.UpdateCategory(r.Context(), id, &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, category)
}

// DeleteCategory handles delete category HTTP requests
func (h *HTTPHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodDelete) {
		return
	}

	id, err := requiredQuery(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.catalog.DeleteCategory(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
