package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/ctxlog"
)

// accessLog writes one line per request, at warn level for client errors and error
// level for server errors. Handlers get a logger that carries the request ID.
func accessLog(base context.Context) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			received := time.Now()
			logger := ctxlog.From(base).With("request_id", middleware.GetReqID(r.Context()))

			rec := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(rec, r.WithContext(ctxlog.With(r.Context(), logger)))

			status := rec.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Log(r.Context(), levelOf(status), "HTTP request",
				"method", r.Method,
				"path", r.URL.Path,
				"remote", r.RemoteAddr,
				"status", status,
				"bytes", rec.BytesWritten(),
				"elapsed_ms", time.Since(received).Milliseconds(),
			)
		})
	}
}

func levelOf(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// writeError answers with a JSON body of the form {"error": "..."}
func writeError(w http.ResponseWriter, r *http.Request, err error, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if encErr := json.NewEncoder(w).Encode(map[string]string{"error": err.Error()}); encErr != nil {
		ctxlog.From(r.Context()).Warn("Failed to encode error response", "error", encErr, "status", status)
	}
}
