package handler

import (
	"net/http"

	"github.com/pesio-ai/be-procurement/internal/common/auth"
	"github.com/pesio-ai/be-procurement/internal/service"
)

// Register handles account registration. The caller may be anonymous.
func (h *HTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req service.RegisterInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	var actor *auth.UserContext
	if uc, err := currentUser(r); err == nil {
		actor = uc
	}

	user, err := h.users.Register(r.Context(), actor, &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a session token.
func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// Me returns the authenticated account.
func (h *HTTPHandler) Me(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}

	actor, err := currentUser(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	user, err := h.users.Me(r.Context(), actor)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
