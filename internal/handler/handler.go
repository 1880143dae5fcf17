package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Dan9191/daily-diet/internal/middleware"
	"github.com/Dan9191/daily-diet/internal/service"
	"github.com/Dan9191/daily-diet/internal/utils"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	svc   *service.Service
	codec *utils.SessionCodec
	log   *logrus.Logger
}

func NewHandler(svc *service.Service, codec *utils.SessionCodec, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, codec: codec, log: log}
}

// Health reports whether the database is reachable
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.svc.Ping(ctx); err != nil {
		h.log.WithError(err).Warn("Health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeError translates err into an HTTP response
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{
			"message": "Validation error.",
			"issues":  verr.Issues,
		})
	case errors.Is(err, service.ErrMealNotFound):
		writeMessage(w, http.StatusNotFound, "Meal not found.")
	default:
		h.log.WithFields(logrus.Fields{
			"request_id": middleware.RequestIDFromContext(r.Context()),
			"method":     r.Method,
			"path":       r.URL.Path,
		}).Errorf("Request failed: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Internal server error.")
	}
}

// identity returns the caller resolved by middleware.AuthMiddleware
func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (middleware.Identity, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, "Unauthorized.")
	}
	return id, ok
}
