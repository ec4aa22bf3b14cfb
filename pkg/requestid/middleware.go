package requestid

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"
)

// Header is the correlation header honored and echoed by Middleware.
const Header = "X-Request-ID"

const maxIDLength = 128

var validID = regexp.MustCompile("^[a-zA-Z0-9_-]+$")

// Middleware ensures every request carries a correlation ID. A valid
// client-supplied header value is reused so an upstream gateway can trace
// a call across services; anything missing, oversized, or outside the
// allowed alphabet is replaced with a fresh UUID. The ID is stored on the
// request context and echoed in the response header.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(Header)
		if !isValidID(id) {
			id = uuid.New().String()
		}
		w.Header().Set(Header, id)
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), id)))
	})
}

func isValidID(id string) bool {
	return id != "" && len(id) <= maxIDLength && validID.MatchString(id)
}
