package middleware

import (
	"log/slog"
	"net/http"

	"github.com/JaimeStill/addrsplit/pkg/handlers"
)

// Recover converts a panicking handler into a 500 response. The panic value
// is logged; the client only sees the generic status text.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					logger.Error(
						"handler panic",
						"method", r.Method,
						"path", r.URL.Path,
						"panic", rec,
					)
					handlers.RespondJSON(
						w, http.StatusInternalServerError,
						map[string]string{"error": http.StatusText(http.StatusInternalServerError)},
					)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// MaxBody caps request bodies at limit bytes.
func MaxBody(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && limit > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
