package web

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"contas/internal/api"
	"contas/internal/core"
	applog "contas/internal/log"
	"contas/internal/notify"
)

type savingsPage struct {
	base
	List   api.SavingList
	Stats  core.SavingStats
	Filter api.SavingFilter
}

func (s *Server) handleSavings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := api.SavingFilter{
		Category: sanitizeInput(q.Get("category")),
		Status:   q.Get("status"),
		Page:     atoiDefault(q.Get("page"), 0),
		Limit:    atoiDefault(q.Get("limit"), 0),
	}

	data := savingsPage{base: s.viewData(r, "savings"), Filter: filter}
	data.Title = "Economias"

	var (
		list  api.SavingList
		stats core.SavingStats
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		list, err = s.deps.Savings.List(ctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = s.deps.Savings.Stats(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		if s.redirectIfUnauthorized(w, r, err) {
			return
		}
		s.logger.ErrorContext(r.Context(), "savings fetch failed",
			applog.FieldOperation, applog.OpList, applog.FieldError, err)
		data.Error = errMessage(err)
		s.render(w, r, "savings.html", data)
		return
	}

	data.List = list
	data.Stats = stats
	s.render(w, r, "savings.html", data)
}

func savingFromForm(r *http.Request) (core.Saving, error) {
	target, err := core.ParseDecimalToCents(r.Form.Get("targetAmount"))
	if err != nil {
		return core.Saving{}, err
	}
	deadline, err := parseFormDate(r.Form.Get("deadline"))
	if err != nil {
		return core.Saving{}, err
	}
	g := core.Saving{
		Name:         sanitizeInput(r.Form.Get("name")),
		TargetAmount: target,
		Deadline:     deadline,
		Category:     sanitizeInput(r.Form.Get("category")),
		Status:       core.SavingStatus(r.Form.Get("status")),
		Description:  sanitizeInput(r.Form.Get("description")),
	}
	if g.Status == "" {
		g.Status = core.SavingInProgress
	}
	return g, g.Validate()
}

func (s *Server) handleSavingCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	g, err := savingFromForm(r)
	if err != nil {
		s.deps.Notices.Notify("Dados inválidos: verifique o formulário.", notify.Warning)
		http.Redirect(w, r, "/savings", http.StatusFound)
		return
	}

	release := s.deps.Busy.Acquire()
	_, err = s.deps.Savings.Create(r.Context(), g)
	release()
	if err != nil {
		if s.redirectIfUnauthorized(w, r, err) {
			return
		}
		s.logger.ErrorContext(r.Context(), "saving create failed",
			applog.FieldOperation, applog.OpCreate, applog.FieldError, err)
		s.deps.Notices.Notify(errMessage(err), notify.Error)
		http.Redirect(w, r, "/savings", http.StatusFound)
		return
	}

	s.deps.Notices.Notify("Meta de economia criada.", notify.Success)
	http.Redirect(w, r, "/savings", http.StatusFound)
}

func (s *Server) handleSavingUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	g, err := savingFromForm(r)
	if err != nil {
		s.deps.Notices.Notify("Dados inválidos: verifique o formulário.", notify.Warning)
		http.Redirect(w, r, "/savings", http.StatusFound)
		return
	}

	release := s.deps.Busy.Acquire()
	_, err = s.deps.Savings.Update(r.Context(), id, g)
	release()
	if err != nil {
		if s.redirectIfUnauthorized(w, r, err) {
			return
		}
		s.logger.ErrorContext(r.Context(), "saving update failed",
			applog.FieldOperation, applog.OpUpdate, applog.FieldError, err)
		s.deps.Notices.Notify(errMessage(err), notify.Error)
		http.Redirect(w, r, "/savings", http.StatusFound)
		return
	}

	s.deps.Notices.Notify("Meta atualizada.", notify.Success)
	http.Redirect(w, r, "/savings", http.StatusFound)
}

func (s *Server) handleSavingDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	release := s.deps.Busy.Acquire()
	err = s.deps.Savings.Delete(r.Context(), id)
	release()
	if err != nil {
		if s.redirectIfUnauthorized(w, r, err) {
			return
		}
		s.logger.ErrorContext(r.Context(), "saving delete failed",
			applog.FieldOperation, applog.OpDelete, applog.FieldError, err)
		s.deps.Notices.Notify(errMessage(err), notify.Error)
		http.Redirect(w, r, "/savings", http.StatusFound)
		return
	}

	s.deps.Notices.Notify("Meta excluída.", notify.Success)
	http.Redirect(w, r, "/savings", http.StatusFound)
}

// handleSavingAddAmount increments currentAmount remotely and refetches;
// the accumulation happens server-side, in cents.
func (s *Server) handleSavingAddAmount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	amount, err := core.ParseDecimalToCents(r.Form.Get("amount"))
	if err != nil {
		s.deps.Notices.Notify("Valor inválido.", notify.Warning)
		http.Redirect(w, r, "/savings", http.StatusFound)
		return
	}

	release := s.deps.Busy.Acquire()
	_, err = s.deps.Savings.AddAmount(r.Context(), id, amount)
	release()
	if err != nil {
		if s.redirectIfUnauthorized(w, r, err) {
			return
		}
		s.logger.ErrorContext(r.Context(), "saving add amount failed",
			applog.FieldOperation, applog.OpUpdate, applog.FieldError, err)
		s.deps.Notices.Notify(errMessage(err), notify.Error)
		http.Redirect(w, r, "/savings", http.StatusFound)
		return
	}

	s.deps.Notices.Notify("Valor adicionado à meta.", notify.Success)
	http.Redirect(w, r, "/savings", http.StatusFound)
}
