// Package http serves the public donation dashboard and the admin write API.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"fooddrive/internal/auth"
	"fooddrive/internal/cache"
	"fooddrive/internal/core"
	"fooddrive/internal/log"
	"fooddrive/internal/middleware/ratelimit"
	"fooddrive/internal/middleware/security"
	"fooddrive/internal/middleware/trace"
	"fooddrive/internal/services"
	appweb "fooddrive/web"
)

// storeTimeout bounds every store call made on behalf of a request.
const storeTimeout = 7 * time.Second

// DonationService is the application layer the handlers drive.
type DonationService interface {
	CreateDonation(ctx context.Context, d core.Donation) (services.CreateResult, error)
	Recalculate(ctx context.Context) (core.RecalculationStats, error)
	Dashboard(ctx context.Context) (services.Dashboard, error)
	SearchDonors(ctx context.Context, query string) ([]string, error)
}

// Pinger backs the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Addr               string
	Donations          DonationService
	Auth               *auth.Authenticator
	Ready              Pinger
	RateLimitPerMinute int
	// SearchCacheStats feeds /metrics; optional.
	SearchCacheStats func() cache.Stats
	Logger           *log.Logger
}

type Server struct {
	http.Server
	templates *template.Template
	donations DonationService
	auth      *auth.Authenticator
	ready     Pinger
	cacheStat func() cache.Stats
	logger    *log.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default(log.ComponentHTTP)
	}

	s := &Server{
		donations: opts.Donations,
		auth:      opts.Auth,
		ready:     opts.Ready,
		cacheStat: opts.SearchCacheStats,
		logger:    logger,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:  security.NewDetector(),
		started:   time.Now(),
	}
	s.tracer = trace.NewMiddleware(s.detector.ClientIP, logger)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	mux := http.NewServeMux()

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	// Public, read-only
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ui/dashboard", s.handleDashboardPartial)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboardJSON)

	// Admin
	mux.HandleFunc("POST /admin/session", s.handleSession)
	mux.HandleFunc("POST /admin/logout", s.handleLogout)
	mux.Handle("GET /admin", s.requireAdmin(http.HandlerFunc(s.handleAdmin)))
	mux.Handle("POST /api/donations", s.requireAdmin(http.HandlerFunc(s.handleCreateDonation)))
	mux.Handle("POST /api/recalculate", s.requireAdmin(http.HandlerFunc(s.handleRecalculate)))
	mux.Handle("GET /api/donors/search", s.requireAdmin(http.HandlerFunc(s.handleSearchDonors)))

	var handler http.Handler = mux
	handler = s.limiter.Middleware(s.detector.ClientIP, s.onRateLimited)(handler)
	handler = s.withDetection(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = log.Middleware(logger, trace.RequestID)(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// withDetection logs probing requests; they are still routed normally.
func (s *Server) withDetection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.Suspicious(r) {
			log.FromContext(r.Context()).WithComponent(log.ComponentSecurity).WarnContext(r.Context(), "Suspicious request",
				log.FieldPath, r.URL.Path, log.FieldClientIP, s.detector.ClientIP(r))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.detector.ClientIP(r), log.FieldPath, r.URL.Path)
	if isHTMX(r) {
		ErrorResponse(http.StatusTooManyRequests, "Too many requests, try again in a minute").Write(w)
		return
	}
	writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
}

// requireAdmin rejects requests without a valid admin token. API clients get
// a JSON 401, browsers get the sign-in page with a 401 status.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var claims *auth.Claims
		err := auth.ErrUnauthenticated
		if s.auth != nil {
			claims, err = s.auth.Authenticate(r)
		}
		if err != nil {
			log.FromContext(r.Context()).WithComponent(log.ComponentAuth).InfoContext(r.Context(), "Admin authentication failed",
				log.FieldPath, r.URL.Path, log.FieldError, err)
			s.unauthorized(w, r)
			return
		}
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r.WithContext(auth.WithClaims(r.Context(), claims)))
	})
}

func (s *Server) unauthorized(w http.ResponseWriter, r *http.Request) {
	switch {
	case isHTMX(r):
		ErrorResponse(http.StatusUnauthorized, "Your admin session has expired. Sign in again.").Write(w)
	case wantsHTML(r):
		s.render(w, r, http.StatusUnauthorized, "admin_login.html", nil)
	default:
		writeJSONError(w, http.StatusUnauthorized, "unauthorized")
	}
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
