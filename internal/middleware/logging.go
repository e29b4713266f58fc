package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/yusufkecer/macro-tracker-backend/internal/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

// AccessLog logs one line per request and records request metrics
// against the matched route template.
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		route := routeTemplate(r)
		metrics.ObserveRequest(route, r.Method, rec.status, elapsed)
		log.Printf("[http] %s %s %d %s req=%s", r.Method, r.URL.Path, rec.status, elapsed.Round(time.Microsecond), RequestIDFrom(r.Context()))
	})
}

func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
