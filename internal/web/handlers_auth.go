package web

import (
	"errors"
	"net/http"
	"strings"

	applog "contas/internal/log"
	"contas/internal/notify"
	"contas/internal/session"
)

type authPage struct {
	base
	Email string
	Name  string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.deps.Sessions.Current() != nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	data := authPage{base: s.viewData(r, "login")}
	data.Title = "Entrar"
	s.render(w, r, "login.html", data)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	email := sanitizeInput(r.Form.Get("email"))
	password := r.Form.Get("password")

	data := authPage{base: s.viewData(r, "login"), Email: email}
	data.Title = "Entrar"

	if email == "" || password == "" {
		data.Error = "Informe email e senha."
		s.render(w, r, "login.html", data)
		return
	}

	release := s.deps.Busy.Acquire()
	sess, err := s.deps.Sessions.Login(r.Context(), email, password)
	release()
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			data.Error = "Email ou senha inválidos."
		} else {
			data.Error = errMessage(err)
		}
		s.render(w, r, "login.html", data)
		return
	}

	s.logger.InfoContext(r.Context(), "user logged in",
		applog.FieldOperation, applog.OpLogin,
		applog.FieldUserID, sess.User.ID)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	data := authPage{base: s.viewData(r, "register")}
	data.Title = "Criar conta"
	s.render(w, r, "register.html", data)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	name := sanitizeInput(r.Form.Get("name"))
	email := sanitizeInput(r.Form.Get("email"))
	password := r.Form.Get("password")
	confirm := r.Form.Get("confirmPassword")

	data := authPage{base: s.viewData(r, "register"), Email: email, Name: name}
	data.Title = "Criar conta"

	// Validation failures never reach the network.
	switch {
	case name == "" || email == "" || password == "":
		data.Error = "Preencha todos os campos."
	case !strings.Contains(email, "@"):
		data.Error = "Email inválido."
	case len(password) < 6:
		data.Error = "A senha deve ter pelo menos 6 caracteres."
	case password != confirm:
		data.Error = "As senhas não coincidem."
	}
	if data.Error != "" {
		s.render(w, r, "register.html", data)
		return
	}

	release := s.deps.Busy.Acquire()
	err := s.deps.Sessions.Register(r.Context(), name, email, password)
	release()
	if err != nil {
		data.Error = errMessage(err)
		s.render(w, r, "register.html", data)
		return
	}

	// Registration does not authenticate; the user logs in next.
	s.deps.Notices.Notify("Conta criada com sucesso. Faça login.", notify.Success)
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.deps.Sessions.Logout()
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (s *Server) handleNoticeDismiss(w http.ResponseWriter, r *http.Request) {
	s.deps.Notices.Dismiss()
	http.Redirect(w, r, refererPath(r), http.StatusFound)
}
