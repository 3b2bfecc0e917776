package web

import (
	"net/http"

	"contas/internal/core"
	applog "contas/internal/log"
)

// requireSession is the route guard: no current session, nothing is
// rendered in place of the guarded view, the browser goes to /login.
// Restore ran before the server started listening, so by the time a
// request arrives the check is a synchronous read.
func (s *Server) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.deps.Sessions.Current() == nil {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next(w, r)
	}
}

// requireAdmin gates role-restricted views. A logged-in non-admin gets
// an inline access notice, not a redirect.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := s.deps.Sessions.Current()
		if sess == nil || sess.User.Role != core.RoleAdmin {
			s.logger.WarnContext(r.Context(), "admin view denied",
				applog.FieldPath, r.URL.Path)
			data := s.viewData(r, "restricted")
			s.render(w, r, "restricted.html", data)
			return
		}
		next(w, r)
	}
}
