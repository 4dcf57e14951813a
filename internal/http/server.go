// Package http exposes the multitool JSON API, the landing page and the
// operational endpoints.
package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"multitool/internal/arith"
	applog "multitool/internal/log"
	"multitool/internal/metrics"
	"multitool/internal/middleware/ratelimit"
	"multitool/internal/middleware/security"
	"multitool/internal/middleware/trace"
	"multitool/internal/qrcode"
	"multitool/internal/services"
	appweb "multitool/web"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators behind the API. Metrics may be nil.
type Deps struct {
	DB        Pinger
	Auth      *services.AuthService
	Params    *services.TaxParameterService
	Calc      *services.CalculationService
	Reminders *services.ReminderService
	Activity  *services.ActivityService
	QR        *qrcode.Client
	History   *arith.History
	Metrics   *metrics.Metrics
	Logger    *applog.Logger
}

func (d Deps) validate() error {
	switch {
	case d.DB == nil:
		return errors.New("http: DB is required")
	case d.Auth == nil:
		return errors.New("http: Auth service is required")
	case d.Params == nil || d.Calc == nil:
		return errors.New("http: tax services are required")
	case d.Reminders == nil:
		return errors.New("http: Reminders service is required")
	case d.Activity == nil:
		return errors.New("http: Activity service is required")
	case d.QR == nil:
		return errors.New("http: QR client is required")
	case d.History == nil:
		return errors.New("http: calculator history is required")
	case d.Logger == nil:
		return errors.New("http: Logger is required")
	}
	return nil
}

// Options configures the listener and the request middleware.
type Options struct {
	Addr               string
	TrustedProxies     []string
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	Deps

	logger    *applog.Logger
	templates *template.Template
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	started   time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
// Shutdown releases the rate limiter along with the listener.
func NewServer(opts Options, deps Deps) (*Server, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	detector, err := security.NewDetector(opts.TrustedProxies...)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		Deps:      deps,
		logger:    deps.Logger.WithComponent(applog.ComponentHTTP),
		templates: t,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:  detector,
		started:   time.Now(),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	tracer := trace.NewMiddleware(deps.Logger, detector.ExtractClientIP, deps.Metrics)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig(deps.QR.Origin()))
	limit := s.limiter.Middleware(detector.ExtractClientIP, s.rejectRateLimited,
		http.MethodPost, http.MethodPut, http.MethodDelete)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           tracer.Middleware(detector.Middleware(headers.Middleware(limit(mux)))),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", s.Metrics.Handler())

	mux.Handle("POST /api/register", public(s.handleRegister))
	mux.Handle("POST /api/login", public(s.handleLogin))
	mux.Handle("POST /api/logout", s.private(s.handleLogout))
	mux.Handle("GET /api/me", s.private(s.handleMe))

	mux.Handle("POST /api/calculate", s.private(s.handleCalculate))
	mux.Handle("GET /api/calculate/summary", s.private(s.handleSummary))

	mux.Handle("GET /api/tax-parameters", s.private(s.handleListTaxParameters))
	mux.Handle("POST /api/tax-parameters", s.private(s.handleCreateTaxParameters))
	mux.Handle("PUT /api/tax-parameters/{id}", s.private(s.handleUpdateTaxParameters))
	mux.Handle("DELETE /api/tax-parameters/{id}", s.private(s.handleDeleteTaxParameters))
	mux.Handle("GET /api/years", s.private(s.handleYears))
	mux.Handle("GET /api/getYears", s.private(s.handleYears))

	mux.Handle("GET /api/reminders", s.private(s.handleListReminders))
	mux.Handle("POST /api/reminders", s.private(s.handleCreateReminder))
	mux.Handle("GET /api/reminders/{id}", s.private(s.handleGetReminder))
	mux.Handle("PUT /api/reminders", s.private(s.handleUpdateReminder))
	mux.Handle("PUT /api/reminders/{id}", s.private(s.handleUpdateReminder))
	mux.Handle("DELETE /api/reminders", s.private(s.handleDeleteReminder))
	mux.Handle("DELETE /api/reminders/{id}", s.private(s.handleDeleteReminder))

	mux.Handle("GET /api/qrcode", s.private(s.handleQRCode))
	mux.Handle("GET /api/qrcode/image", s.private(s.handleQRCodeImage))
	mux.Handle("POST /api/basiccalc", s.private(s.handleBasicCalc))
	mux.Handle("DELETE /api/basiccalc/history", s.private(s.handleClearCalcHistory))

	mux.Handle("GET /api/activity", s.private(s.handleActivity))
}

// public serves an unauthenticated API handler.
func public(h http.HandlerFunc) http.Handler {
	return security.NoStore(h)
}

// private serves an API handler that needs a signed-in user.
func (s *Server) private(h authedHandler) http.Handler {
	return security.NoStore(s.requireUser(h))
}

func (s *Server) rejectRateLimited(w http.ResponseWriter, r *http.Request) {
	s.Metrics.RateLimited()
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path,
		applog.FieldClientIP, s.detector.ExtractClientIP(r))
	writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}

// Shutdown stops the listener and the rate limiter cleanup. Safe to call
// more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
