package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/synthbed/tts-api/pkg/requestid"
)

// RequestID gets the request ID from the x-request-id header or generates a
// unique one, and injects it into the request context for the logging
// middleware and handlers.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("x-request-id")

		if reqID == "" {
			reqID = middleware.GetReqID(r.Context())
		}

		if reqID == "" {
			reqID = requestid.Generate()
		}

		ctx := requestid.ToContext(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
