package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// responseWriter wraps http.ResponseWriter to capture status code and response body
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
	body       *bytes.Buffer
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	if rw.body != nil {
		rw.body.Write(b)
	}
	return rw.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// LoggingMiddleware logs all HTTP requests with level-based detail
//
// Log levels:
// - INFO: every completed request with method, path and status
// - DEBUG: additionally JSON request and response bodies and query parameters
// - WARN: failed requests (status 4xx)
// - ERROR: server errors (status 5xx)
//
// Bodies of multipart uploads and binary downloads are never logged.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		debug := slog.Default().Enabled(r.Context(), slog.LevelDebug)

		var requestBody []byte
		if debug && r.Body != nil && isJSON(r.Header.Get("Content-Type")) {
			requestBody, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		wrapped := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}
		if debug {
			wrapped.body = &bytes.Buffer{}
		}

		next.ServeHTTP(wrapped, r)

		var logLevel slog.Level
		var logMessage string
		switch {
		case wrapped.statusCode >= 500:
			logLevel, logMessage = slog.LevelError, "Request failed with error"
		case wrapped.statusCode >= 400:
			logLevel, logMessage = slog.LevelWarn, "Request failed"
		default:
			logLevel, logMessage = slog.LevelInfo, "Request completed"
		}

		attrs := []any{
			"remote_ip", getIP(r),
			"user_agent", r.UserAgent(),
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		}

		if debug {
			if len(r.URL.Query()) > 0 {
				attrs = append(attrs, "query_params", map[string][]string(r.URL.Query()))
			}
			if len(requestBody) > 0 {
				attrs = append(attrs, "request_body", redactBody(requestBody))
			}
			if wrapped.body.Len() > 0 && isJSON(wrapped.Header().Get("Content-Type")) {
				attrs = append(attrs, "response_body", wrapped.body.String())
			}
		}

		slog.Log(r.Context(), logLevel, logMessage, attrs...)
	})
}

var redactedFields = []string{"password", "token"}

// redactBody masks credential fields of a JSON object body
func redactBody(body []byte) string {
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return string(body)
	}
	changed := false
	for _, k := range redactedFields {
		if _, ok := fields[k]; ok {
			fields[k] = "[REDACTED]"
			changed = true
		}
	}
	if !changed {
		return string(body)
	}
	out, err := json.Marshal(fields)
	if err != nil {
		return "[unreadable body]"
	}
	return string(out)
}

func isJSON(contentType string) bool {
	return strings.HasPrefix(contentType, "application/json")
}
