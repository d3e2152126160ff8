package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/stayfinder/stayfinder-api/internal/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID adds a unique request ID to each request and to its logger
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" || len(requestID) > 128 {
			requestID = uuid.New().String()
		}

		w.Header().Set(requestIDHeader, requestID)
		r.Header.Set(requestIDHeader, requestID)

		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), requestID)))
	})
}
