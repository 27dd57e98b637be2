package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimiter limits each client IP to requests per window and answers
// over-limit calls with the same JSON error shape as the API handlers
func RateLimiter(requests int, window time.Duration) func(http.Handler) http.Handler {
	if window <= 0 {
		window = time.Second
	}

	message := fmt.Sprintf("Rate limit of %d requests per %s exceeded", requests, window)

	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":   "Too many requests",
				"message": message,
			})
		}),
	)
}
