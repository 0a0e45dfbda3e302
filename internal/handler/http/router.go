package http

import (
	"log/slog"
	"os"

	"github.com/cmlabs-hris/talent-backend-go/internal/handler/http/middleware"
	"github.com/cmlabs-hris/talent-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

type Handlers struct {
	Auth            AuthHandler
	Company         CompanyHandler
	Employee        EmployeeHandler
	External        ExternalHandler
	ProfileApproval ProfileApprovalHandler
	Request         RequestHandler
	Events          EventsHandler
}

type RouterOptions struct {
	FrontendURL  string
	Env          string
	Version      string
	CollectRate  rate.Limit
	CollectBurst int
	// RequestLogging is off in tests.
	RequestLogging bool
}

func NewRouter(opts RouterOptions, jwtService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{opts.FrontendURL},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	if opts.RequestLogging {
		logFormat := httplog.SchemaECS.Concise(false)
		logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			ReplaceAttr: logFormat.ReplaceAttr,
		})).With(
			slog.String("app", "talent-cmlabs"),
			slog.String("version", opts.Version),
			slog.String("env", opts.Env),
		)
		r.Use(httplog.RequestLogger(logger, &httplog.Options{
			Level:  slog.LevelInfo,
			Schema: httplog.SchemaECS,
		}))
	}

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(chiMiddleware.Heartbeat("/"))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Public
		r.Post("/auth/login", h.Auth.Login)
		r.Post("/companies/register", h.Company.Register)
		r.Get("/external/oauth/callback/{provider}", h.External.Callback)
		r.Get("/events/stream", h.Events.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired(jwtService.JWTAuth()))

			r.Post("/auth/sse-token", h.Auth.SSEToken)
			r.Get("/notifications", h.Events.Notifications)

			// HR only
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireHR)

				r.Route("/companies/{companyId}", func(r chi.Router) {
					r.Get("/", h.Company.GetByID)
					r.Post("/activate", h.Company.Activate)
					r.Put("/policy", h.Company.UpdatePolicy)
					r.Post("/departments", h.Company.AddDepartment)
					r.Post("/teams", h.Company.AddTeam)
				})

				r.Post("/employees", h.Employee.Create)
				r.Get("/employees", h.Employee.List)

				r.Get("/profile-approval/pending", h.ProfileApproval.Pending)
				r.Post("/profile-approval/{employeeId}/approve", h.ProfileApproval.Approve)
				r.Post("/profile-approval/{employeeId}/reject", h.ProfileApproval.Reject)

				r.Get("/requests/pending", h.Request.PendingForHR)
			})

			r.Get("/employees/{employeeId}", h.Employee.GetByID)
			r.Post("/profile-approval/{employeeId}/resubmit", h.ProfileApproval.Resubmit)

			r.Get("/external/status/{employeeId}", h.External.Status)
			r.With(middleware.RateLimitByEmployee(opts.CollectRate, opts.CollectBurst)).
				Post("/external/collect/{employeeId}", h.External.Collect)
			r.Delete("/external/disconnect/{employeeId}/{provider}", h.External.Disconnect)
			r.Get("/external/enrichment/{employeeId}", h.External.Enrichment)

			r.Put("/requests/{type}/{id}", h.Request.Resolve)

			// Employee accounts only
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireEmployee)

				r.Get("/external/oauth/{provider}", h.External.Authorize)

				r.Get("/requests/my", h.Request.My)
				r.Post("/requests/{type}/{id}", h.Request.Create)
				r.Get("/decision-maker/{employeeId}/pending-requests", h.Request.PendingForDecisionMaker)
			})
		})
	})
	return r
}
