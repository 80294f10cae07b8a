package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/archillexx/reviewnest/internal/auth"
	"github.com/archillexx/reviewnest/internal/service"
	"github.com/archillexx/reviewnest/pkg/health"
	"github.com/archillexx/reviewnest/pkg/middleware"
)

// feedCacheMaxAge is the max-age in seconds advertised on the public feed.
const feedCacheMaxAge = 30

// NewRouter creates a chi router with all review service routes registered.
func NewRouter(
	reviewService *service.ReviewService,
	userService *service.UserService,
	jwtManager *auth.JWTManager,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsConfig CORSConfig,
	rateLimitRPS, rateLimitBurst int,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS(corsConfig))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("reviewnest"))
	r.Use(middleware.RateLimit(rateLimitRPS, rateLimitBurst, logger))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Auth endpoints (public)
	authHandler := NewAuthHandler(userService, logger)
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	// Token validator that bridges to our internal JWTManager.
	tokenValidator := func(token string) (*middleware.Claims, error) {
		claims, err := jwtManager.ValidateAccessToken(token)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			UserID: claims.UserID,
			Email:  claims.Email,
		}, nil
	}

	reviewHandler := NewReviewHandler(reviewService, logger)

	r.Route("/api/v1/reviews", func(r chi.Router) {
		// Public feed of all reviews. No auth required.
		r.With(middleware.CacheControl(feedCacheMaxAge)).
			Get("/all", reviewHandler.ListAll)

		// Owner-scoped endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(ContentTypeJSON)
			r.Use(middleware.Auth(tokenValidator))

			r.Post("/", reviewHandler.Create)
			r.Get("/", reviewHandler.ListMine)
			r.Put("/{id}", reviewHandler.Update)
			r.Delete("/{id}", reviewHandler.Delete)
		})
	})

	// Profile endpoint (auth required)
	r.Route("/api/v1/users", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(middleware.Auth(tokenValidator))

		r.Get("/me", authHandler.Me)
	})

	return r
}
