package routes

import (
	"net/http"

	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"ELDEREASE_BACK-END/internal/config"
	"ELDEREASE_BACK-END/internal/handlers"
	"ELDEREASE_BACK-END/internal/metrics"
	"ELDEREASE_BACK-END/internal/middleware"
)

// Handlers groups everything the router mounts. Google is nil when Google
// sign-in is not configured.
type Handlers struct {
	Auth    *handlers.AuthHandler
	Health  *handlers.HealthHandler
	Google  *handlers.GoogleAuthHandler
	Tokens  *middleware.TokenIssuer
	Metrics *metrics.Metrics
}

// SetupRoutes configures all application routes on a new mux
func SetupRoutes(h Handlers) *http.ServeMux {
	mux := http.NewServeMux()

	// Health check routes
	mux.HandleFunc("/healthz", h.Health.HealthCheck)
	mux.HandleFunc("/livez", h.Health.LivenessCheck)
	mux.HandleFunc("/readyz", h.Health.ReadinessCheck)

	// Authentication routes
	mux.HandleFunc("/api/auth/register", h.Auth.Register)
	mux.HandleFunc("/api/auth/login", h.Auth.Login)
	mux.HandleFunc("/api/auth/profile", middleware.AuthMiddleware(h.Auth.GetProfile, h.Tokens))

	if h.Google != nil {
		mux.HandleFunc("/api/auth/google/login", h.Google.GoogleLogin)
		mux.HandleFunc("/api/auth/google/callback", h.Google.GoogleCallback)
	}

	// Observability and docs
	mux.Handle("/metrics", h.Metrics.Handler())
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Root route
	mux.HandleFunc("/", rootHandler)

	return mux
}

// NewHandler returns the routed mux wrapped with CORS.
func NewHandler(h Handlers, cfg config.CORSConfig) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		AllowCredentials: cfg.AllowCredentials,
	})
	return c.Handler(SetupRoutes(h))
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write([]byte("ElderEase backend is running."))
}
