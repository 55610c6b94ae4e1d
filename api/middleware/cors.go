package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

var defaultCORSOrigins = []string{
	"http://localhost:5173", // vite dev server
	"http://localhost:3000",
}

// CORS returns middleware that applies the API's allowed origin policy. An
// empty list falls back to the local dev origins.
func CORS(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = defaultCORSOrigins
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id", "Range", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-Id", "Content-Disposition", "Content-Range", "Accept-Ranges", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}).Handler
}
