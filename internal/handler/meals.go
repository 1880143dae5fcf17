package handler

import (
	"net/http"

	"github.com/gorilla/mux"
)

// CreateMeal records a meal for the caller
func (h *Handler) CreateMeal(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req createMealRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	_, err := h.svc.CreateMeal(r.Context(), id.User.ID, *req.Name, *req.Description, req.Date.Time, *req.IsOnDiet)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// ListMeals returns the caller's meals, most recent first
func (h *Handler) ListMeals(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	meals, err := h.svc.ListMeals(r.Context(), id.User.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"meals": meals})
}

// GetMeal returns one of the caller's meals
func (h *Handler) GetMeal(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	mealID, err := parseMealID(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	meal, err := h.svc.GetMeal(r.Context(), id.User.ID, mealID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"meal": meal})
}

// UpdateMeal changes the supplied fields of one of the caller's meals
func (h *Handler) UpdateMeal(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	mealID, err := parseMealID(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	meal, err := h.svc.GetMeal(r.Context(), id.User.ID, mealID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var req updateMealRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.svc.ApplyMealUpdate(r.Context(), meal, req.toUpdate()); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteMeal removes one of the caller's meals
func (h *Handler) DeleteMeal(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}
	mealID, err := parseMealID(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.svc.DeleteMeal(r.Context(), id.User.ID, mealID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MealMetrics returns the caller's diet adherence
func (h *Handler) MealMetrics(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	metrics, err := h.svc.Metrics(r.Context(), id.User.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"metrics": metrics})
}
