package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/heartmarshall/clinic-consent/internal/domain"
	"github.com/heartmarshall/clinic-consent/internal/transport/middleware"
)

// maxBodyBytes caps request bodies. Signature images are the largest
// payload.
const maxBodyBytes = 2 << 20

type errorResponse struct {
	Error  string               `json:"error"`
	Fields []fieldErrorResponse `json:"fields,omitempty"`
}

type fieldErrorResponse struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched
// when optional is true.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, optional bool) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if optional && errors.Is(err, io.EOF) {
			return nil
		}
		return domain.NewValidationError("body", "invalid JSON: "+err.Error())
	}
	return nil
}

// handleError maps domain errors to HTTP statuses. Unknown errors are
// logged and reported as 500 without detail.
func handleError(log *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		resp := errorResponse{Error: "validation failed"}
		for _, fe := range ve.Errors {
			resp.Fields = append(resp.Fields, fieldErrorResponse{Field: fe.Field, Message: fe.Message})
		}
		writeJSON(w, http.StatusBadRequest, resp)
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrRecordExpired):
		writeError(w, http.StatusGone, "consent record has expired")
	case errors.Is(err, domain.ErrInvalidTemplate):
		writeError(w, http.StatusUnprocessableEntity, "template cannot issue records")
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, transitionMessage(err))
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrAlreadyExists):
		writeError(w, http.StatusConflict, "conflict")
	case errors.Is(err, context.Canceled):
		log.WarnContext(r.Context(), "request canceled", slog.String("path", middleware.RedactPath(r.URL.Path)))
	default:
		log.ErrorContext(r.Context(), "internal error",
			slog.String("method", r.Method),
			slog.String("path", middleware.RedactPath(r.URL.Path)),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func transitionMessage(err error) string {
	var te *domain.TransitionError
	if errors.As(err, &te) {
		return te.Error()
	}
	return "invalid transition"
}

// ---------------------------------------------------------------------------
// Request parsing
// ---------------------------------------------------------------------------

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, domain.NewValidationError("id", "must be a UUID")
	}
	return id, nil
}

// query collects typed query parameters and their parse errors.
type query struct {
	values map[string][]string
	errs   []domain.FieldError
}

func newQuery(r *http.Request) *query {
	return &query{values: r.URL.Query()}
}

func (q *query) get(name string) string {
	if v := q.values[name]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

func (q *query) str(name string) *string {
	v := q.get(name)
	if v == "" {
		return nil
	}
	return &v
}

func (q *query) integer(name string) int {
	v := q.get(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		q.errs = append(q.errs, domain.FieldError{Field: name, Message: "must be an integer"})
	}
	return n
}

func (q *query) boolean(name string) *bool {
	v := q.get(name)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		q.errs = append(q.errs, domain.FieldError{Field: name, Message: "must be a boolean"})
		return nil
	}
	return &b
}

func (q *query) uuidParam(name string) *uuid.UUID {
	v := q.get(name)
	if v == "" {
		return nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		q.errs = append(q.errs, domain.FieldError{Field: name, Message: "must be a UUID"})
		return nil
	}
	return &id
}

// timestamp accepts RFC 3339 or a bare YYYY-MM-DD date (UTC midnight).
func (q *query) timestamp(name string) *time.Time {
	v := q.get(name)
	if v == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, v); err == nil {
			t = t.UTC()
			return &t
		}
	}
	q.errs = append(q.errs, domain.FieldError{Field: name, Message: fmt.Sprintf("must be RFC 3339 or %s", time.DateOnly)})
	return nil
}

func (q *query) err() error {
	if len(q.errs) == 0 {
		return nil
	}
	return domain.NewValidationErrors(q.errs)
}
