package web

import (
	"net/http"
	"strconv"

	"contas/internal/api"
	"contas/internal/core"
	applog "contas/internal/log"
	"contas/internal/notify"
)

type transactionsPage struct {
	base
	List   api.TransactionList
	Filter api.TransactionFilter
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := api.TransactionFilter{
		Search:    sanitizeInput(q.Get("search")),
		Category:  sanitizeInput(q.Get("category")),
		Type:      q.Get("type"),
		Status:    q.Get("status"),
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
		Page:      atoiDefault(q.Get("page"), 0),
		Limit:     atoiDefault(q.Get("limit"), 0),
	}

	data := transactionsPage{base: s.viewData(r, "transactions"), Filter: filter}
	data.Title = "Transações"

	list, err := s.deps.Transactions.List(r.Context(), filter)
	if err != nil {
		if s.redirectIfUnauthorized(w, r, err) {
			return
		}
		s.logger.ErrorContext(r.Context(), "transaction list failed",
			applog.FieldOperation, applog.OpList, applog.FieldError, err)
		// Inline error in place of the list; nothing else on the page breaks.
		data.Error = errMessage(err)
		s.render(w, r, "transactions.html", data)
		return
	}

	data.List = list
	s.render(w, r, "transactions.html", data)
}

// transactionFromForm builds and validates a transaction from form
// fields; validation failures never reach the network.
func transactionFromForm(r *http.Request) (core.Transaction, error) {
	amount, err := core.ParseDecimalToCents(r.Form.Get("amount"))
	if err != nil {
		return core.Transaction{}, err
	}
	date, err := parseFormDate(r.Form.Get("date"))
	if err != nil {
		return core.Transaction{}, err
	}
	t := core.Transaction{
		Description:  sanitizeInput(r.Form.Get("description")),
		Amount:       amount,
		Type:         core.TransactionType(r.Form.Get("type")),
		Category:     sanitizeInput(r.Form.Get("category")),
		Date:         date,
		Status:       core.TransactionStatus(r.Form.Get("status")),
		Observations: sanitizeInput(r.Form.Get("observations")),
	}
	if t.Status == "" {
		t.Status = core.StatusCompleted
	}
	return t, t.Validate()
}

func (s *Server) handleTransactionCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	t, err := transactionFromForm(r)
	if err != nil {
		s.deps.Notices.Notify("Dados inválidos: verifique o formulário.", notify.Warning)
		http.Redirect(w, r, "/transactions", http.StatusFound)
		return
	}

	release := s.deps.Busy.Acquire()
	_, err = s.deps.Transactions.Create(r.Context(), t)
	release()
	if err != nil {
		if s.redirectIfUnauthorized(w, r, err) {
			return
		}
		s.logger.ErrorContext(r.Context(), "transaction create failed",
			applog.FieldOperation, applog.OpCreate, applog.FieldError, err)
		s.deps.Notices.Notify(errMessage(err), notify.Error)
		http.Redirect(w, r, "/transactions", http.StatusFound)
		return
	}

	s.deps.Notices.Notify("Transação criada com sucesso.", notify.Success)
	// Redirect-after-POST refetches the authoritative list.
	http.Redirect(w, r, "/transactions", http.StatusFound)
}

func (s *Server) handleTransactionUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	t, err := transactionFromForm(r)
	if err != nil {
		s.deps.Notices.Notify("Dados inválidos: verifique o formulário.", notify.Warning)
		http.Redirect(w, r, "/transactions", http.StatusFound)
		return
	}

	release := s.deps.Busy.Acquire()
	_, err = s.deps.Transactions.Update(r.Context(), id, t)
	release()
	if err != nil {
		if s.redirectIfUnauthorized(w, r, err) {
			return
		}
		s.logger.ErrorContext(r.Context(), "transaction update failed",
			applog.FieldOperation, applog.OpUpdate, applog.FieldError, err)
		s.deps.Notices.Notify(errMessage(err), notify.Error)
		http.Redirect(w, r, "/transactions", http.StatusFound)
		return
	}

	s.deps.Notices.Notify("Transação atualizada com sucesso.", notify.Success)
	http.Redirect(w, r, "/transactions", http.StatusFound)
}

func (s *Server) handleTransactionDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	release := s.deps.Busy.Acquire()
	err = s.deps.Transactions.Delete(r.Context(), id)
	release()
	if err != nil {
		if s.redirectIfUnauthorized(w, r, err) {
			return
		}
		s.logger.ErrorContext(r.Context(), "transaction delete failed",
			applog.FieldOperation, applog.OpDelete, applog.FieldError, err)
		s.deps.Notices.Notify(errMessage(err), notify.Error)
		http.Redirect(w, r, "/transactions", http.StatusFound)
		return
	}

	s.deps.Notices.Notify("Transação excluída.", notify.Success)
	http.Redirect(w, r, "/transactions", http.StatusFound)
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return def
	}
	return n
}
