package logger

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/narwhalmedia/fantasycards/pkg/interfaces"
)

// RequestIDHeader is read from inbound requests and echoed on responses.
const RequestIDHeader = "X-Request-ID"

// HTTPMiddleware assigns a request id, puts a request scoped logger in the
// context and logs every request with its status and duration.
func HTTPMiddleware(logger interfaces.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			reqLogger := logger.WithFields(interfaces.String("request_id", requestID))
			ctx := WithRequestID(r.Context(), requestID)
			ctx = WithContext(ctx, reqLogger)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			fields := []interfaces.Field{
				interfaces.String("method", r.Method),
				interfaces.String("path", r.URL.Path),
				interfaces.Int("status", rec.status),
				interfaces.Any("duration_ms", time.Since(start).Milliseconds()),
			}

			if rec.status >= http.StatusInternalServerError {
				reqLogger.Error("HTTP request failed", fields...)
			} else {
				reqLogger.Info("HTTP request completed", fields...)
			}
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
