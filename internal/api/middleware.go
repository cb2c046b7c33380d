package api

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"esferas/internal/metrics"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

type ctxKey int

const requestIDKey ctxKey = iota

// RequestID returns the id assigned to the request by the access log.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *HTTPServer) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		label, _ := s.route(r)

		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, id))

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		// deferred so aborted requests are still logged
		defer func() {
			rec := recover()
			status := recorder.status
			if rec == http.ErrAbortHandler {
				// nothing reached the client
				status = 0
				metrics.IncHTTPAborted(label)
			} else {
				metrics.IncHTTP(label, status)
			}
			s.logger.Info().
				Str("request_id", id).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Bool("aborted", rec == http.ErrAbortHandler).
				Dur("duration", time.Since(start)).
				Msg("http request")
			if rec != nil {
				panic(rec)
			}
		}()
		next.ServeHTTP(recorder, r)
	})
}

// recoverer turns handler panics into a 500. http.ErrAbortHandler is passed
// through so net/http drops the connection.
func (s *HTTPServer) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			s.logger.Error().
				Str("request_id", RequestID(r.Context())).
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")
			writeError(w, http.StatusInternalServerError, "Internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}
