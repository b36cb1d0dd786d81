package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/baharkarakas/student-performance/internal/logger"
)

// RequestLogger logs one line per request at a level picked by status.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newRecorder(w)

			next.ServeHTTP(rec, r)

			logger.Log(r.Context(), log, rec.status, "http request",
				"method", r.Method,
				"route", routePattern(r),
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", RequestIDFrom(r.Context()),
			)
		})
	}
}
