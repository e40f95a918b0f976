package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/cedric28/spinbet-frontend/internal/platform/requestctx"
)

const maxRequestIDLen = 128

// RequestID returns middleware that tags each request with an id, reusing a
// sane inbound X-Request-ID. The id is echoed on the response and forwarded
// to the API by the client.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestctx.RequestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
		}
		w.Header().Set(requestctx.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(requestctx.WithRequestID(r.Context(), id)))
	})
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if c := id[i]; c < 0x21 || c > 0x7e {
			return false
		}
	}
	return true
}
