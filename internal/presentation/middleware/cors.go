package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS allows browser requests from the configured frontend origin
func CORS(allowedOrigin string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{allowedOrigin},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{"X-Request-Id", "X-Webhook-Receipt"},
		MaxAge:         300,
	})
}
