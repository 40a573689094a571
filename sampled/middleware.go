package sampled

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Handler is the function form the per-route middleware wraps.
type Handler func(w http.ResponseWriter, r *http.Request)

type requestIDKey struct{}

// requestID returns the request's ID, or "" outside a request context.
func requestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// withRequestID honors an incoming X-Request-Id, minting a UUID otherwise.
// The ID rides the request context and is echoed in the response header.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-Id", id)

		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusRecorder remembers the status a handler wrote. A handler that never
// calls WriteHeader implicitly wrote 200.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// withObservability emits one access-log line and one duration observation
// per served request.
func (s *Server) withObservability(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		s.metrics.RecordRequest(routeLabel(r.URL.Path), strconv.Itoa(rec.status), elapsed)
		log.WithFields(log.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": elapsed.Milliseconds(),
			"request_id":  requestID(r.Context()),
		}).Info("request")
	})
}

// routeLabel keeps metric label cardinality down: unknown paths all share
// one label value.
func routeLabel(path string) string {
	switch path {
	case "/load", "/sample", "/stats", "/clear", "/reset", "/health", "/metrics":
		return path[1:]
	default:
		return "other"
	}
}
