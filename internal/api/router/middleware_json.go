package router

import (
	"mime"
	"net/http"
	"strings"
)

// requireJSON rejects submissions that declare a non-JSON content type. A
// missing Content-Type is let through; the body decoder decides.
func requireJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ct := strings.TrimSpace(r.Header.Get("Content-Type"))
		if ct != "" {
			mediaType, _, err := mime.ParseMediaType(ct)
			if err != nil || (mediaType != "application/json" && !strings.HasSuffix(mediaType, "+json")) {
				http.Error(w, "content type must be application/json", http.StatusUnsupportedMediaType)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
