package httpserver

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appauth "github.com/bryanwahyu/website-intel/internal/application/auth"
	appscans "github.com/bryanwahyu/website-intel/internal/application/scans"
	domain "github.com/bryanwahyu/website-intel/internal/domain/scans"
	"github.com/bryanwahyu/website-intel/internal/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

var errInvalidInput = errors.New("invalid input")

// Options for NewRouter. Limiter and Checkers are optional.
type Options struct {
	Logger       *log.Logger
	Limiter      *middleware.RateLimiter
	CORSOrigins  []string
	CookieSecure bool
	Checkers     map[string]middleware.HealthChecker
}

type Router struct {
	scansSvc     *appscans.Service
	authSvc      *appauth.Service
	logger       *log.Logger
	pages        map[string]*template.Template
	cookieSecure bool
}

func NewRouter(scansSvc *appscans.Service, authSvc *appauth.Service, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	r := &Router{
		scansSvc:     scansSvc,
		authSvc:      authSvc,
		logger:       opts.Logger,
		pages:        parsePages(),
		cookieSecure: opts.CookieSecure,
	}

	limit := func(h http.Handler) http.Handler { return h }
	if opts.Limiter != nil {
		limit = middleware.RateLimit(opts.Limiter)
	}

	mux := chi.NewRouter()
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.LoadSession(authSvc))
	mux.Use(middleware.Logging(opts.Logger))

	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/healthz", middleware.LivenessHandler)
	mux.Get("/readyz", middleware.HealthHandler(opts.Checkers))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Get("/", r.handleRoot)
	mux.Get("/login", r.wrap(r.handleLoginForm))
	mux.With(limit).Post("/login", r.wrap(r.handleLogin))
	mux.Post("/logout", r.wrap(r.handleLogout))

	mux.Group(func(rt chi.Router) {
		rt.Use(middleware.RequireSession)
		rt.Get("/dashboard", r.wrap(r.handleDashboard))
		rt.With(limit).Post("/dashboard/scan", r.wrap(r.handleSubmit))
		rt.Get("/history", r.wrap(r.handleHistory))
		rt.Get("/history/{id}", r.wrap(r.handleDetail))
		rt.Get("/history/{id}/delete", r.wrap(r.handleDeleteConfirm))
		rt.Post("/history/{id}/delete", r.wrap(r.handleDelete))
		rt.Post("/history/{id}/archive", r.wrap(r.handleArchive))
	})

	mux.Route("/api", func(rt chi.Router) {
		rt.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		rt.Use(middleware.RequireSession)
		rt.Get("/submission", r.wrap(r.handleSubmissionGet))
		rt.With(limit).Post("/submission", r.wrap(r.handleSubmissionPost))
	})

	return mux
}

func parsePages() map[string]*template.Template {
	pages := make(map[string]*template.Template)
	for _, name := range []string{"login", "dashboard", "history", "detail", "confirm_delete"} {
		pages[name] = template.Must(template.ParseFS(templateFS,
			"templates/layout.html", "templates/result.html", "templates/"+name+".html"))
	}
	return pages
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		api := strings.HasPrefix(req.URL.Path, "/api/")
		switch {
		case errors.Is(err, domain.ErrUnauthorized):
			// token sudah dihapus oleh hook, balik ke login
			if api {
				writeError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			http.Redirect(w, req, middleware.LoginPath, http.StatusSeeOther)
		case errors.Is(err, errInvalidInput):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, domain.ErrNotFound):
			http.Error(w, "not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrRateLimited):
			http.Error(w, appscans.RateLimitMessage, http.StatusTooManyRequests)
		default:
			r.logger.Error("request failed", "method", req.Method, "path", req.URL.Path, "err", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}

// page is the data handed to the layout template.
type page struct {
	Title   string
	Active  string
	User    string
	ShowNav bool
	Refresh int
	Content any
}

func (r *Router) render(w http.ResponseWriter, req *http.Request, status int, name string, p page) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	if sess := middleware.GetSessionFromContext(req.Context()); sess.Authenticated() {
		p.User = sess.Username
		p.ShowNav = true
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", p); err != nil {
		// header sudah terkirim, cukup log
		r.logger.Error("render failed", "page", name, "err", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	_ = writeJSON(w, status, map[string]string{"error": msg})
}

func scanIDParam(req *http.Request) (domain.ScanID, error) {
	id, err := middleware.ParseScanID(chi.URLParam(req, "id"))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errInvalidInput, err)
	}
	return id, nil
}
