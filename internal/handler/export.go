package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Dan9191/daily-diet/internal/models"
	"github.com/beevik/etree"
)

// ExportMeals renders the caller's meals as an XML document
func (h *Handler) ExportMeals(w http.ResponseWriter, r *http.Request) {
	id, ok := h.identity(w, r)
	if !ok {
		return
	}

	meals, err := h.svc.ListMeals(r.Context(), id.User.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	doc := mealsDocument(id.User.ID, meals)
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="meals.xml"`)
	w.WriteHeader(http.StatusOK)
	if _, err := doc.WriteTo(w); err != nil {
		h.log.WithError(err).Warn("Failed to write meal export")
	}
}

func mealsDocument(userID string, meals []models.Meal) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("meals")
	root.CreateAttr("user", userID)
	root.CreateAttr("count", strconv.Itoa(len(meals)))
	for _, m := range meals {
		el := root.CreateElement("meal")
		el.CreateAttr("id", m.ID)
		el.CreateAttr("onDiet", strconv.FormatBool(m.IsOnDiet))
		el.CreateElement("name").SetText(m.Name)
		el.CreateElement("description").SetText(m.Description)
		el.CreateElement("date").SetText(m.Time().Format(time.RFC3339))
	}

	doc.Indent(2)
	return doc
}
