package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/daap14/tasktrack/internal/api/response"
)

// headerTracker remembers whether the wrapped handler started its response.
type headerTracker struct {
	http.ResponseWriter
	wroteHeader bool
}

func (t *headerTracker) WriteHeader(status int) {
	t.wroteHeader = true
	t.ResponseWriter.WriteHeader(status)
}

func (t *headerTracker) Write(b []byte) (int, error) {
	t.wroteHeader = true
	return t.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (t *headerTracker) Unwrap() http.ResponseWriter {
	return t.ResponseWriter
}

// Recovery turns a handler panic into a 500 INTERNAL_ERROR envelope. If the
// handler already started its response, the panic is only logged. Aborted
// handlers (http.ErrAbortHandler) are re-panicked for net/http to handle.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tw := &headerTracker{ResponseWriter: w}
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			requestID := GetRequestID(r.Context())
			slog.Error("panic recovered",
				"error", rec,
				"method", r.Method,
				"path", r.URL.Path,
				"requestId", requestID,
				"responseStarted", tw.wroteHeader,
				"stack", string(debug.Stack()),
			)
			if tw.wroteHeader {
				return
			}
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", requestID)
		}()
		next.ServeHTTP(tw, r)
	})
}
