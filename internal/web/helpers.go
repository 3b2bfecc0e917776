package web

import (
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"contas/internal/api"
	"contas/internal/core"
	applog "contas/internal/log"
	"contas/internal/notify"
	"contas/internal/session"
)

// base carries what the layout needs on every page: identity for the
// navbar, display mode, the notification slot, and the busy overlay.
type base struct {
	Title    string
	Active   string
	DarkMode bool
	Session  *session.Session
	Notice   *notify.Notification
	Busy     bool
	Error    string
}

func (s *Server) viewData(r *http.Request, active string) base {
	return base{
		Active:   active,
		DarkMode: s.deps.Prefs.DarkMode(),
		Session:  s.deps.Sessions.Current(),
		Notice:   s.deps.Notices.Current(),
		Busy:     s.deps.Busy.Active(),
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "template execution failed",
			applog.FieldError, err, "template", name)
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

// redirectIfUnauthorized handles the global 401 reaction at the view
// layer: the session store has already been cleared by the client hook,
// so the only thing left is sending the browser to /login. Returns true
// when the response is done.
func (s *Server) redirectIfUnauthorized(w http.ResponseWriter, r *http.Request, err error) bool {
	if errors.Is(err, api.ErrUnauthorized) {
		http.Redirect(w, r, "/login", http.StatusFound)
		return true
	}
	return false
}

// errMessage renders an error for the user: the server-supplied message
// when there is one, a generic fallback otherwise.
func errMessage(err error) string {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, api.ErrNetwork) {
		return "Não foi possível conectar ao servidor. Tente novamente."
	}
	return "Erro ao carregar dados. Por favor, tente novamente."
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// pathID extracts the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// refererPath turns the Referer header into a local redirect target.
// Only the path survives, so the bounce can never leave this site;
// anything unparseable falls back to /.
func refererPath(r *http.Request) string {
	u, err := url.Parse(r.Header.Get("Referer"))
	if err != nil || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return "/"
	}
	return u.Path
}

// parseFormDate reads a YYYY-MM-DD form field.
func parseFormDate(value string) (core.Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(value))
	if err != nil {
		return core.Date{}, core.ErrInvalidDate
	}
	return core.Date{Time: t}, nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"brl": func(c core.Cents) string { return c.BRL() },
		// percent scales a value against a total for the bar widths.
		"percent": func(v, total core.Cents) int64 {
			if total <= 0 {
				return 0
			}
			p := int64(v) * 100 / int64(total)
			if p < 0 {
				p = 0
			}
			if p > 100 {
				p = 100
			}
			return p
		},
		"date": func(d core.Date) string {
			if d.IsZero() {
				return ""
			}
			return d.Format("02/01/2006")
		},
	}
}
