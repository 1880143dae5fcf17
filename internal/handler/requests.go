package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/Dan9191/daily-diet/internal/models"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidationIssue describes one rejected field
type ValidationIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is the result of a rejected request contract
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		parts = append(parts, issue.Field+": "+issue.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Issues: []ValidationIssue{{Field: field, Message: message}}}
}

// Timestamp accepts epoch milliseconds or a date string
type Timestamp struct {
	time.Time
}

// maxDateMillis bounds dates to ±100,000,000 days around the epoch, the range a JavaScript Date holds
const maxDateMillis = 8.64e15

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

type timestampError struct {
	raw string
}

func (e *timestampError) Error() string {
	return fmt.Sprintf("invalid timestamp %s", e.raw)
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return &timestampError{raw: raw}
		}
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				if !inDateRange(float64(parsed.UnixMilli())) {
					return &timestampError{raw: raw}
				}
				t.Time = parsed.UTC()
				return nil
			}
		}
		return &timestampError{raw: raw}
	}

	var ms float64
	if err := json.Unmarshal(data, &ms); err != nil || !inDateRange(ms) {
		return &timestampError{raw: raw}
	}
	t.Time = time.UnixMilli(int64(ms)).UTC()
	return nil
}

func inDateRange(ms float64) bool {
	return !math.IsNaN(ms) && !math.IsInf(ms, 0) && math.Abs(ms) <= maxDateMillis
}

type createUserRequest struct {
	Name  *string `json:"name" validate:"required"`
	Email *string `json:"email" validate:"required"`
}

type createMealRequest struct {
	Name        *string    `json:"name" validate:"required"`
	Description *string    `json:"description" validate:"required"`
	Date        *Timestamp `json:"date" validate:"required"`
	IsOnDiet    *bool      `json:"isOnDiet" validate:"required"`
}

type updateMealRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Date        *Timestamp `json:"date"`
	IsOnDiet    *bool      `json:"isOnDiet"`
}

func (req updateMealRequest) toUpdate() models.MealUpdate {
	upd := models.MealUpdate{
		Name:        req.Name,
		Description: req.Description,
		IsOnDiet:    req.IsOnDiet,
	}
	if req.Date != nil {
		ms := req.Date.UnixMilli()
		upd.Date = &ms
	}
	return upd
}

// decodeBody reads a JSON body into dst and validates it
func decodeBody(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	return validateStruct(dst)
}

func decodeError(err error) error {
	var (
		typeErr   *json.UnmarshalTypeError
		syntaxErr *json.SyntaxError
		tsErr     *timestampError
	)
	switch {
	case errors.Is(err, io.EOF):
		return invalid("body", "request body is required")
	case errors.As(err, &tsErr):
		return invalid("date", "must be epoch milliseconds or a date string")
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return invalid(field, "expected "+jsonKind(typeErr.Type))
	case errors.As(err, &syntaxErr):
		return invalid("body", "malformed JSON")
	default:
		return invalid("body", err.Error())
	}
}

func jsonKind(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.String:
		return "string"
	case reflect.Struct:
		return "object"
	default:
		return t.Kind().String()
	}
}

func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Issues = append(out.Issues, ValidationIssue{Field: fe.Field(), Message: tagMessage(fe.Tag())})
	}
	return out
}

func tagMessage(tag string) string {
	switch tag {
	case "required":
		return "is required"
	case "uuid":
		return "must be a valid UUID"
	default:
		return "failed " + tag + " validation"
	}
}

// parseMealID validates the {id} path parameter
func parseMealID(raw string) (string, error) {
	if err := validate.Var(raw, "required,uuid"); err != nil {
		return "", invalid("id", tagMessage("uuid"))
	}
	return raw, nil
}
