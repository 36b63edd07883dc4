package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/captura3d/portal-api/internal/directory"
	httpmiddleware "github.com/captura3d/portal-api/internal/http/middleware"
	"github.com/captura3d/portal-api/internal/util"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Login exchanges email/password for a token pair.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid request body", nil)
		return
	}
	if err := util.ValidateEmail(req.Email); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
		return
	}
	if req.Password == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "password is required", nil)
		return
	}

	res, err := h.gw.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteGatewayError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// Refresh exchanges a refresh token for a new pair.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid request body", nil)
		return
	}

	res, err := h.gw.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		WriteGatewayError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// Logout revokes the presented refresh token. It always succeeds for the
// caller; server-side revocation is best effort.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	h.gw.Logout(r.Context(), req.RefreshToken)
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Me returns the authenticated account, re-resolved by the auth middleware.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := httpmiddleware.GetUser(r.Context())
	WriteJSON(w, http.StatusOK, user)
}

// CreateUser provisions an account (admin only, enforced by the router).
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input directory.NewUser
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "invalid request body", nil)
		return
	}

	user, err := h.gw.CreateUser(r.Context(), input)
	if err != nil {
		WriteGatewayError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, user)
}

// DeleteUser removes an account (admin only, mock semantics).
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "VALIDATION", "id is required", nil)
		return
	}

	if err := h.gw.DeleteUser(r.Context(), id); err != nil {
		WriteGatewayError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
