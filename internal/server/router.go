package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"donation-platform/internal/handlers"
	"donation-platform/internal/middleware"
	"donation-platform/internal/models"
)

// Handlers groups the HTTP handlers the router mounts
type Handlers struct {
	Public    *handlers.PublicHandler
	Donations *handlers.DonationHandler
	Auth      *handlers.AuthHandler
	Admin     *handlers.AdminHandler
}

// Options configures the cross-cutting parts of the router
type Options struct {
	AllowedOrigins  []string
	UploadsDir      string // served under /uploads when set
	RequestTimeout  time.Duration
	InitiateLimiter *middleware.RateLimiter
	LoginLimiter    *middleware.RateLimiter
}

// NewRouter wires the public donation API and the back-office API
func NewRouter(h Handlers, auth *middleware.AuthMiddleware, csrf *middleware.CSRFMiddleware, opts Options) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.ErrorHandlingMiddleware)
	r.Use(chimiddleware.CleanPath)
	r.Use(middleware.CORSMiddleware(middleware.DefaultCORSConfig(opts.AllowedOrigins)))
	r.Use(middleware.SecurityHeadersMiddleware)
	r.Use(auth.LoadUser)
	r.Use(middleware.LoggingMiddleware)
	r.Use(chimiddleware.Timeout(opts.RequestTimeout))

	r.NotFound(middleware.NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler().ServeHTTP)

	if opts.UploadsDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(opts.UploadsDir))))
	}

	r.Get("/health", h.Public.Health)

	r.Get("/campaigns", h.Public.ListCampaigns)
	r.Get("/campaigns/{slug}", h.Public.GetCampaign)
	r.Get("/programs", h.Public.ListPrograms)
	r.Get("/programs/{slug}", h.Public.GetProgram)
	r.Get("/patients", h.Public.ListPatients)
	r.Get("/patients/{slug}", h.Public.GetPatient)

	r.Route("/donations", func(r chi.Router) {
		r.With(rateLimited(opts.InitiateLimiter, "Too many donation attempts. Please wait a moment and try again.")).
			Post("/initiate", h.Donations.Initiate)
		r.Get("/success", h.Donations.Success)
	})

	r.Route("/payment", func(r chi.Router) {
		r.Get("/callback", h.Donations.PaymentCallback)
		r.Post("/paystack/webhook", h.Donations.PaystackWebhook)
		r.Post("/midtrans/notification", h.Donations.MidtransNotification)
	})

	r.Route("/admin", func(r chi.Router) {
		r.With(rateLimited(opts.LoginLimiter, "Too many login attempts. Please try again later.")).
			Post("/login", h.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth)
			r.Use(csrf.CSRFProtection)

			r.Post("/logout", h.Auth.Logout)
			r.Get("/me", h.Auth.Me)

			r.Route("/{collection:campaigns|programs|patients}", func(r chi.Router) {
				r.Get("/", h.Admin.ListTargets)
				r.Post("/", h.Admin.CreateTarget)
				r.Put("/{id}", h.Admin.UpdateTarget)
				r.Delete("/{id}", h.Admin.DeleteTarget)
				r.Post("/{id}/image", h.Admin.UploadTargetImage)
			})

			r.Get("/donations", h.Admin.ListDonations)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(models.UserRoleAdmin))
				r.Get("/donations/export", h.Admin.ExportDonations)
				r.Get("/audit-logs", h.Admin.ListAuditLogs)
			})
		})
	})

	return r
}

func rateLimited(limiter *middleware.RateLimiter, message string) func(http.Handler) http.Handler {
	if limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.RateLimit(limiter, message)
}
