package router

import (
	"encoding/json"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	httpmiddleware "github.com/wolfman30/agency-leads/internal/http/middleware"
	"github.com/wolfman30/agency-leads/internal/leads"
	"github.com/wolfman30/agency-leads/internal/observability/metrics"
	"github.com/wolfman30/agency-leads/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger *logging.Logger
	// LeadHandler serves POST /api/leads and the admin read routes.
	LeadHandler *leads.Handler
	// ContactHandler serves POST /api/contact. Optional.
	ContactHandler     *leads.Handler
	AdminAuthSecret    string
	MetricsHandler     http.Handler
	Metrics            *metrics.LeadMetrics
	CORSAllowedOrigins []string
	// Throttler applies coarse per-IP flood protection. Optional.
	Throttler *httpmiddleware.Throttler
	// TrustForwardedFor lets chi's RealIP rewrite RemoteAddr from proxy
	// headers before throttling.
	TrustForwardedFor bool
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if cfg.TrustForwardedFor {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Public form submissions
	r.Group(func(public chi.Router) {
		if cfg.Throttler != nil {
			public.Use(httpmiddleware.Throttle(cfg.Throttler, remoteHost, cfg.Metrics.ObserveThrottled))
		}
		public.Use(requireJSON)
		if cfg.LeadHandler != nil {
			public.Post("/api/leads", cfg.LeadHandler.Submit)
		}
		if cfg.ContactHandler != nil {
			public.Post("/api/contact", cfg.ContactHandler.Submit)
		}
	})

	// Operator routes, only mounted when a signing secret is configured
	if cfg.AdminAuthSecret != "" && cfg.LeadHandler != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/leads", cfg.LeadHandler.ListLeads)
			admin.Get("/leads/{leadID}", cfg.LeadHandler.GetLead)
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
