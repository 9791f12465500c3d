package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.HealthCheckHandler)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	limiter := NewIPRateLimiter(s.config.RateLimit.RPS, s.config.RateLimit.Burst)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.OptionalSession)

			r.Group(func(r chi.Router) {
				r.Use(limiter.Middleware)
				r.Post("/auth/register", s.RegisterHandler)
				r.Post("/auth/login", s.LoginHandler)
				r.Post("/auth/forgot-password", s.ForgotPasswordHandler)
			})
			r.Post("/auth/refresh", s.RefreshTokenHandler)
			r.Post("/auth/change-password", s.ChangePasswordHandler)
			r.Get("/leaderboard", s.LeaderboardHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.SessionMiddleware)

			r.Get("/me", s.GetCurrentUserHandler)

			r.Group(func(r chi.Router) {
				r.Use(s.RequireAuth)
				r.Post("/auth/logout", s.LogoutHandler)

				r.Get("/sessions", s.ListSessionsHandler)
				r.Delete("/sessions/{sessionId}", s.DeleteSessionHandler)
				r.Post("/sessions/terminate_all", s.TerminateAllSessionsHandler)

				r.Get("/submissions", s.ListSubmissionsHandler)
				r.Get("/submissions/existing", s.CheckExistingSubmissionHandler)
				r.Post("/submissions", s.RecordSubmissionHandler)

				r.Post("/files/upload-url", s.UploadURLHandler)
				r.Post("/files/view-url", s.ViewURLHandler)
				r.Delete("/files", s.DeleteFileHandler)

				r.Get("/events", s.GetEventsHandler)
			})

			r.Group(func(r chi.Router) {
				r.Use(s.RequireAdmin)
				r.Post("/admin/points", s.UpdatePointsHandler)
			})
		})
	})

	return r
}
