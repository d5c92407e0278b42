package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hu-tracker/internal/service"
	"hu-tracker/internal/storage"
	"hu-tracker/internal/workflow"
	"hu-tracker/pkg/validator"
)

// apiPrefix is the base path of every API route
const apiPrefix = "/api/v1"

// Common error messages shared across handlers
const (
	ErrMsgInvalidRequestBody = "Invalid request body"
	ErrMsgInternal           = "Internal server error"
	ErrMsgUnavailable        = "Service temporarily unavailable"
)

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to encode response", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// statusFor maps an error kind onto an HTTP status
func statusFor(err error) int {
	var batch *workflow.BatchError
	switch {
	case errors.As(err, &batch):
		if batch.Succeeded == 0 {
			return http.StatusUnprocessableEntity
		}
		return http.StatusMultiStatus
	case errors.Is(err, workflow.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, workflow.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrInvalidFileType),
		errors.Is(err, service.ErrMissingOwner),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, errValidation):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondWithErr logs err and answers with the status of its kind.
// Store failures and unexpected errors are not echoed to the client.
func respondWithErr(w http.ResponseWriter, r *http.Request, msg string, err error, attrs ...any) {
	code := statusFor(err)
	attrs = append(attrs, "error", err, "method", r.Method, "path", r.URL.Path)

	switch {
	case code >= 500:
		slog.Error(msg, attrs...)
	default:
		slog.Warn(msg, attrs...)
	}

	switch code {
	case http.StatusServiceUnavailable:
		respondWithError(w, code, ErrMsgUnavailable)
	case http.StatusInternalServerError:
		respondWithError(w, code, ErrMsgInternal)
	default:
		respondWithError(w, code, err.Error())
	}
}

// logPartial records a batch where only some items went through
func logPartial(r *http.Request, err error, attrs ...any) {
	attrs = append(attrs, "error", err, "method", r.Method, "path", r.URL.Path)
	slog.Warn("Batch operation partially failed", attrs...)
}

var errValidation = errors.New("validation failed")

// decodeAndValidate reads a JSON body into dst and checks its validate tags
func decodeAndValidate(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %s", errValidation, ErrMsgInvalidRequestBody)
	}
	if err := validator.ValidateStruct(dst); err != nil {
		return fmt.Errorf("%w: %s", errValidation, err.Error())
	}
	return nil
}

// pathID parses the named path value as a positive id
func pathID(r *http.Request, name string) (uint, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", errValidation, name, raw)
	}
	return uint(id), nil
}

// queryID parses an optional id query parameter; absent yields 0
func queryID(r *http.Request, name string) (uint, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", errValidation, name, raw)
	}
	return uint(id), nil
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// Date accepts "2006-01-02" as well as RFC 3339 timestamps in JSON bodies.
// An empty string or null leaves the date unset.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("invalid date %q", s)
}

// Ptr returns nil for an unset date
func (d *Date) Ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}
