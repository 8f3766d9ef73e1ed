package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Dosada05/tennis-planner/handlers"
	"github.com/Dosada05/tennis-planner/middleware"
	"github.com/Dosada05/tennis-planner/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Options carries the cross-cutting pieces the router needs.
type Options struct {
	AllowedOrigins []string
	Sessions       middleware.SessionVerifier
	SignInLimiter  *middleware.IPRateLimiter
	Metrics        *middleware.Metrics
	Registry       *prometheus.Registry
	Logger         *slog.Logger
}

func SetupRoutes(
	router chi.Router,
	opts Options,
	authHandler *handlers.AuthHandler,
	dashboardHandler *handlers.DashboardHandler,
	entryHandler *handlers.EntryHandler,
	exportHandler *handlers.ExportHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Instrument)
	}

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	if opts.Registry != nil {
		router.Handle("/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
	}

	authenticate := middleware.Authenticate(opts.Sessions, opts.Logger)

	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if opts.SignInLimiter != nil {
					r.Use(middleware.RateLimit(opts.SignInLimiter))
				}
				r.Post("/login", authHandler.Login)
				r.Get("/oauth", authHandler.OAuthStart)
				r.Get("/callback", authHandler.Callback)
			})
			r.Post("/logout", authHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Get("/me", authHandler.Me)
				r.Post("/password", authHandler.ChangePassword)
			})
		})

		r.Route("/parent", func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequireRole(models.RoleParent))
			r.Get("/dashboard", dashboardHandler.Parent)
			r.Post("/entries", entryHandler.Create)
			r.Put("/entries/{entryID}", entryHandler.Update)
			r.Delete("/entries/{entryID}", entryHandler.Delete)
		})

		r.Route("/coach", func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequireRole(models.RoleCoach))
			r.Get("/dashboard", dashboardHandler.Coach)
		})

		r.Route("/manager", func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequireRole(models.RoleManager))
			r.Get("/dashboard", dashboardHandler.Manager)
			r.Get("/export.xlsx", exportHandler.Workbook)
			r.Get("/chart.png", exportHandler.Chart)
			r.With(chiMiddleware.Timeout(time.Minute)).Post("/exports", exportHandler.Upload)
		})
	})

	router.With(authenticate).Get("/ws", webSocketHandler.ServeWs)
}
