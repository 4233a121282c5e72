package middleware

import (
	"encoding/json"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/item-catalog/internal/model"
)

// quietPaths are logged at Debug level; probes hit them constantly.
var quietPaths = map[string]bool{
	"/health":  true,
	"/ready":   true,
	"/metrics": true,
}

// Logging logs one line per request with its route template and outcome.
func Logging(logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := unwrap(w)

			next.ServeHTTP(rw, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("route", routeTemplate(r)),
				zap.Int("status", rw.statusCode),
				zap.Int("bytes", rw.bytes),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
			}
			log := Logger(r.Context(), logger)

			if quietPaths[r.URL.Path] {
				log.Debug("http request", fields...)
			} else {
				log.Info("http request", fields...)
			}
		})
	}
}

// Recovery turns a handler panic into a 500 with the API error body.
func Recovery(logger *zap.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := unwrap(w)
			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}

				Logger(r.Context(), logger).Error("panic recovered",
					zap.Any("error", recovered),
					zap.String("stack", string(debug.Stack())),
					zap.String("path", r.URL.Path),
					zap.String("method", r.Method),
				)

				if rw.written {
					return
				}
				rw.Header().Set("Content-Type", "application/json")
				rw.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(rw).Encode(model.ErrorResponse{
					Code:    http.StatusInternalServerError,
					Message: "internal server error",
				})
			}()
			next.ServeHTTP(rw, r)
		})
	}
}

// routeTemplate returns the matched mux route template, or the raw path when
// no route matched.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return r.URL.Path
}
