package middleware

import (
	"net/http"

	"github.com/rs/cors"

	"hu-tracker/internal/config"
)

// CORSMiddleware handles CORS
type CORSMiddleware struct {
	cors *cors.Cors
}

// NewCORSMiddleware creates a new CORS middleware
func NewCORSMiddleware(cfg *config.CORSConfig) *CORSMiddleware {
	return &CORSMiddleware{
		cors: cors.New(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   cfg.AllowedMethods,
			AllowedHeaders:   cfg.AllowedHeaders,
			ExposedHeaders:   cfg.ExposedHeaders,
			AllowCredentials: cfg.AllowCredentials,
			MaxAge:           cfg.MaxAge,
		}),
	}
}

// Handler handles CORS headers and answers preflight requests
func (m *CORSMiddleware) Handler(next http.Handler) http.Handler {
	return m.cors.Handler(next)
}
