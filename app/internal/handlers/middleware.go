package handlers

import (
	"context"
	"net/http"
	"time"

	"maintenance/app/internal/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries the per-request id in both directions
const RequestIDHeader = "X-Request-ID"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	routeKey
)

// unmatchedRoute labels requests no route matched (404, 405)
const unmatchedRoute = "unmatched"

// routeLabel is filled in by tagRoute once mux has matched a route
type routeLabel struct{ template string }

// RequestID returns the id assigned by RequestLogger, or ""
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// RequestLogger tags each request with an id, logs it once served and counts
// it by route template. It wraps the whole router so 404 and 405 answers are
// seen too; routes report their template through tagRoute.
func RequestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.New().String()
			}
			w.Header().Set(RequestIDHeader, id)
			label := &routeLabel{template: unmatchedRoute}
			ctx := context.WithValue(r.Context(), requestIDKey, id)
			ctx = context.WithValue(ctx, routeKey, label)
			r = r.WithContext(ctx)

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}

			metrics.ObserveRequest(label.template, r.Method, rec.status)

			entry := log.WithFields(logrus.Fields{
				"request_id":  id,
				"method":      r.Method,
				"path":        r.URL.Path,
				"route":       label.template,
				"status":      rec.status,
				"bytes":       rec.bytes,
				"duration_ms": time.Since(start).Milliseconds(),
			})
			if rec.status >= http.StatusInternalServerError {
				entry.Warn("Request served")
				return
			}
			entry.Debug("Request served")
		})
	}
}

// tagRoute records the matched route template for RequestLogger. mux only
// runs router middleware for matched routes.
func tagRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if label, ok := r.Context().Value(routeKey).(*routeLabel); ok {
			if cur := mux.CurrentRoute(r); cur != nil {
				if tpl, err := cur.GetPathTemplate(); err == nil {
					label.template = tpl
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}
