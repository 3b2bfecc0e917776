// Package web renders the finance views. Every view is a thin
// presentation layer: it fetches from the remote API through the
// injected services, renders a template, and issues mutations that end
// in a refetch. Nothing here owns data.
package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"contas/internal/api"
	"contas/internal/busy"
	applog "contas/internal/log"
	"contas/internal/notify"
	"contas/internal/prefs"
	"contas/internal/session"
	appweb "contas/web"
)

// Deps bundles the service objects constructed in main. Everything is
// explicit injection: tests substitute fakes by building their own Deps.
type Deps struct {
	Sessions     *session.Store
	Prefs        *prefs.Store
	Notices      *notify.Broadcaster
	Busy         *busy.Indicator
	Auth         api.AuthService
	Transactions api.TransactionService
	Savings      api.SavingService
	Users        api.UserService
	Logger       *applog.Logger
}

type Server struct {
	http.Server
	templates *template.Template
	deps      Deps
	logger    *applog.Logger

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run
// server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		deps:   deps,
		logger: logger.WithComponent(applog.ComponentWeb),
	}

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Warn("failed to mount embedded static FS", applog.FieldError, err)
	}

	mux.HandleFunc("/healthz", handleHealth)

	// Public views
	mux.HandleFunc("GET /login", s.with(s.handleLoginPage))
	mux.HandleFunc("POST /login", s.with(s.handleLogin))
	mux.HandleFunc("GET /register", s.with(s.handleRegisterPage))
	mux.HandleFunc("POST /register", s.with(s.handleRegister))

	// Guarded resource views
	mux.HandleFunc("GET /{$}", s.with(s.requireSession(s.handleDashboard)))
	mux.HandleFunc("GET /transactions", s.with(s.requireSession(s.handleTransactions)))
	mux.HandleFunc("POST /transactions", s.with(s.requireSession(s.handleTransactionCreate)))
	mux.HandleFunc("POST /transactions/{id}/update", s.with(s.requireSession(s.handleTransactionUpdate)))
	mux.HandleFunc("POST /transactions/{id}/delete", s.with(s.requireSession(s.handleTransactionDelete)))
	mux.HandleFunc("GET /savings", s.with(s.requireSession(s.handleSavings)))
	mux.HandleFunc("POST /savings", s.with(s.requireSession(s.handleSavingCreate)))
	mux.HandleFunc("POST /savings/{id}/update", s.with(s.requireSession(s.handleSavingUpdate)))
	mux.HandleFunc("POST /savings/{id}/delete", s.with(s.requireSession(s.handleSavingDelete)))
	mux.HandleFunc("POST /savings/{id}/add", s.with(s.requireSession(s.handleSavingAddAmount)))
	mux.HandleFunc("GET /profile", s.with(s.requireSession(s.handleProfile)))
	mux.HandleFunc("POST /profile", s.with(s.requireSession(s.handleProfileUpdate)))
	mux.HandleFunc("POST /profile/photo", s.with(s.requireSession(s.handlePhotoUpload)))
	mux.HandleFunc("GET /settings", s.with(s.requireSession(s.handleSettings)))
	mux.HandleFunc("POST /settings", s.with(s.requireSession(s.handleSettingsUpdate)))
	mux.HandleFunc("POST /theme/toggle", s.with(s.requireSession(s.handleThemeToggle)))
	mux.HandleFunc("GET /users", s.with(s.requireSession(s.requireAdmin(s.handleUsers))))
	mux.HandleFunc("POST /users/{id}/update", s.with(s.requireSession(s.requireAdmin(s.handleUserUpdate))))
	mux.HandleFunc("POST /logout", s.with(s.handleLogout))
	mux.HandleFunc("POST /notices/dismiss", s.with(s.handleNoticeDismiss))

	return s
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// with adds security headers, a request ID, and request logging, the
// outermost wrapper on every route.
func (s *Server) with(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		fields := applog.NewFields().
			WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()).
			WithHTTPResponse(rw.statusCode, time.Since(start).Milliseconds())
		fields[applog.FieldRequestID] = requestID
		fields[applog.FieldClientIP] = clientIP
		s.logger.InfoContext(ctx, "request completed", fields.ToSlice()...)
	}
}

type contextKey string

const requestIDKey contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
