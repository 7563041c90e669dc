package logger

import (
	"net/http"
	"runtime/debug"

	"github.com/narwhalmedia/fantasycards/pkg/interfaces"
)

// Recovery turns a panicking handler into a 500 response and logs the
// panic with its stack on the request scoped logger.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			FromContext(r.Context()).Error("panic recovered",
				interfaces.String("method", r.Method),
				interfaces.String("path", r.URL.Path),
				interfaces.Any("panic", rec),
				interfaces.String("stack", string(debug.Stack())),
			)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"type":"INTERNAL","message":"internal server error"}}`))
		}()

		next.ServeHTTP(w, r)
	})
}
