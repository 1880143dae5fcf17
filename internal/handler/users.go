package handler

import (
	"net/http"

	"github.com/Dan9191/daily-diet/internal/utils"
)

// Register creates a user and issues the session cookie when the caller has none
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	sessionID, err := h.codec.FromRequest(r)
	if err != nil {
		sessionID = utils.NewSessionID()
		value, err := h.codec.Encode(sessionID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		http.SetCookie(w, h.codec.Cookie(value))
	}

	if _, err := h.svc.Register(r.Context(), sessionID, *req.Name, *req.Email); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// ListUsers returns the users sharing the caller's session
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	users, err := h.svc.ListUsers(r.Context(), id.SessionID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}
