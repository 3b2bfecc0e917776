package web

import (
	"net/http"

	"contas/internal/api"
	"contas/internal/core"
	applog "contas/internal/log"
	"contas/internal/notify"
)

type usersPage struct {
	base
	List api.UserList
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	data := usersPage{base: s.viewData(r, "users")}
	data.Title = "Usuários"

	list, err := s.deps.Users.List(r.Context())
	if err != nil {
		if s.redirectIfUnauthorized(w, r, err) {
			return
		}
		s.logger.ErrorContext(r.Context(), "user list failed",
			applog.FieldOperation, applog.OpList, applog.FieldError, err)
		data.Error = errMessage(err)
		s.render(w, r, "users.html", data)
		return
	}

	data.List = list
	s.render(w, r, "users.html", data)
}

func (s *Server) handleUserUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	name := sanitizeInput(r.Form.Get("name"))
	role := core.Role(r.Form.Get("role"))
	if name == "" || (role != core.RoleAdmin && role != core.RoleVisitor) {
		s.deps.Notices.Notify("Dados inválidos.", notify.Warning)
		http.Redirect(w, r, "/users", http.StatusFound)
		return
	}

	release := s.deps.Busy.Acquire()
	_, err = s.deps.Users.Update(r.Context(), id, name, role)
	release()
	if err != nil {
		if s.redirectIfUnauthorized(w, r, err) {
			return
		}
		s.logger.ErrorContext(r.Context(), "user update failed",
			applog.FieldOperation, applog.OpUpdate,
			applog.FieldUserID, id, applog.FieldError, err)
		s.deps.Notices.Notify(errMessage(err), notify.Error)
		http.Redirect(w, r, "/users", http.StatusFound)
		return
	}

	s.deps.Notices.Notify("Usuário atualizado.", notify.Success)
	http.Redirect(w, r, "/users", http.StatusFound)
}
