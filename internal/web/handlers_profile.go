package web

import (
	"net/http"

	"contas/internal/api"
	"contas/internal/core"
	applog "contas/internal/log"
	"contas/internal/notify"
)

type profilePage struct {
	base
	Profile core.Profile
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	data := profilePage{base: s.viewData(r, "profile")}
	data.Title = "Perfil"

	profile, err := s.deps.Auth.Profile(r.Context())
	if err != nil {
		if s.redirectIfUnauthorized(w, r, err) {
			return
		}
		data.Error = errMessage(err)
		s.render(w, r, "profile.html", data)
		return
	}

	data.Profile = profile
	s.render(w, r, "profile.html", data)
}

func (s *Server) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	upd := api.ProfileUpdate{
		Name:            sanitizeInput(r.Form.Get("name")),
		CurrentPassword: r.Form.Get("currentPassword"),
		NewPassword:     r.Form.Get("newPassword"),
	}

	// Password confirmation is checked here, never sent.
	if upd.NewPassword != "" && upd.NewPassword != r.Form.Get("confirmPassword") {
		s.deps.Notices.Notify("As senhas não coincidem.", notify.Warning)
		http.Redirect(w, r, "/profile", http.StatusFound)
		return
	}
	if upd.NewPassword != "" && upd.CurrentPassword == "" {
		s.deps.Notices.Notify("Informe a senha atual para alterá-la.", notify.Warning)
		http.Redirect(w, r, "/profile", http.StatusFound)
		return
	}

	release := s.deps.Busy.Acquire()
	_, err := s.deps.Auth.UpdateProfile(r.Context(), upd)
	release()
	if err != nil {
		if s.redirectIfUnauthorized(w, r, err) {
			return
		}
		s.logger.ErrorContext(r.Context(), "profile update failed",
			applog.FieldOperation, applog.OpUpdate, applog.FieldError, err)
		s.deps.Notices.Notify(errMessage(err), notify.Error)
		http.Redirect(w, r, "/profile", http.StatusFound)
		return
	}

	// Navbar identity comes from the session store, refresh it.
	if err := s.deps.Sessions.Refresh(r.Context()); err != nil {
		s.logger.WarnContext(r.Context(), "session refresh failed", applog.FieldError, err)
	}
	s.deps.Notices.Notify("Perfil atualizado com sucesso.", notify.Success)
	http.Redirect(w, r, "/profile", http.StatusFound)
}

// handlePhotoUpload relays the multipart photo; on failure the previous
// photo simply stays.
func (s *Server) handlePhotoUpload(w http.ResponseWriter, r *http.Request) {
	// Accept up to 8MB in memory before spilling to disk.
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		s.deps.Notices.Notify("Arquivo inválido.", notify.Warning)
		http.Redirect(w, r, "/profile", http.StatusFound)
		return
	}
	file, header, err := r.FormFile("photo")
	if err != nil {
		s.deps.Notices.Notify("Selecione uma foto.", notify.Warning)
		http.Redirect(w, r, "/profile", http.StatusFound)
		return
	}
	defer file.Close()

	release := s.deps.Busy.Acquire()
	_, err = s.deps.Auth.UploadPhoto(r.Context(), header.Filename, file)
	release()
	if err != nil {
		if s.redirectIfUnauthorized(w, r, err) {
			return
		}
		s.logger.ErrorContext(r.Context(), "photo upload failed",
			applog.FieldOperation, applog.OpUpdate, applog.FieldError, err)
		s.deps.Notices.Notify(errMessage(err), notify.Error)
		http.Redirect(w, r, "/profile", http.StatusFound)
		return
	}

	if err := s.deps.Sessions.Refresh(r.Context()); err != nil {
		s.logger.WarnContext(r.Context(), "session refresh failed", applog.FieldError, err)
	}
	s.deps.Notices.Notify("Foto atualizada.", notify.Success)
	http.Redirect(w, r, "/profile", http.StatusFound)
}

type settingsPage struct {
	base
	Settings core.Settings
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	data := settingsPage{base: s.viewData(r, "settings")}
	data.Title = "Configurações"

	profile, err := s.deps.Auth.Profile(r.Context())
	if err != nil {
		if s.redirectIfUnauthorized(w, r, err) {
			return
		}
		data.Error = errMessage(err)
		s.render(w, r, "settings.html", data)
		return
	}
	if profile.Settings != nil {
		data.Settings = *profile.Settings
	}
	// Display mode always reflects the local store, not the remote copy.
	data.Settings.DarkMode = s.deps.Prefs.DarkMode()
	s.render(w, r, "settings.html", data)
}

func (s *Server) handleSettingsUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	settings := core.Settings{
		EmailNotifications: r.Form.Get("emailNotifications") == "on",
		MonthlyReport:      r.Form.Get("monthlyReport") == "on",
		DarkMode:           r.Form.Get("darkMode") == "on",
		Language:           sanitizeInput(r.Form.Get("language")),
	}
	if settings.Language == "" {
		settings.Language = "pt-BR"
	}

	release := s.deps.Busy.Acquire()
	err := s.deps.Auth.UpdateSettings(r.Context(), settings)
	release()
	if err != nil {
		if s.redirectIfUnauthorized(w, r, err) {
			return
		}
		s.logger.ErrorContext(r.Context(), "settings update failed",
			applog.FieldOperation, applog.OpUpdate, applog.FieldError, err)
		s.deps.Notices.Notify(errMessage(err), notify.Error)
		http.Redirect(w, r, "/settings", http.StatusFound)
		return
	}

	// The form already pushed the full settings object; align the local
	// display-mode slot without a second remote write.
	s.deps.Prefs.SetLocal(settings.DarkMode)
	s.deps.Notices.Notify("Configurações salvas.", notify.Success)
	http.Redirect(w, r, "/settings", http.StatusFound)
}

// handleThemeToggle is the navbar shortcut: local flip now, remote push
// in the background.
func (s *Server) handleThemeToggle(w http.ResponseWriter, r *http.Request) {
	dark := s.deps.Prefs.Toggle(r.Context())
	s.logger.DebugContext(r.Context(), "display mode toggled",
		applog.FieldOperation, applog.OpToggle, applog.FieldDarkMode, dark)
	http.Redirect(w, r, refererPath(r), http.StatusFound)
}
