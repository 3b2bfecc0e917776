package web

import (
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"contas/internal/api"
	"contas/internal/core"
	applog "contas/internal/log"
)

type dashboardPage struct {
	base
	Stats      core.TransactionStats
	Monthly    []core.MonthBucket
	Categories []core.CategoryBucket
	// MaxAmount is the largest income or expense across the window,
	// scaling the month bars in the template.
	MaxAmount core.Cents
	// CategoryTotal scales the category rows.
	CategoryTotal core.Cents
}

// handleDashboard fans the two independent reads out concurrently; the
// page needs both, neither depends on the other.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data := dashboardPage{base: s.viewData(r, "dashboard")}
	data.Title = "Dashboard"

	var (
		list  api.TransactionList
		stats core.TransactionStats
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		list, err = s.deps.Transactions.List(ctx, api.TransactionFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		stats, err = s.deps.Transactions.Stats(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		if s.redirectIfUnauthorized(w, r, err) {
			return
		}
		s.logger.ErrorContext(r.Context(), "dashboard fetch failed",
			applog.FieldOperation, applog.OpList, applog.FieldError, err)
		data.Error = errMessage(err)
		s.render(w, r, "dashboard.html", data)
		return
	}

	data.Stats = stats
	data.Monthly = core.MonthlyBuckets(list.Transactions, time.Now())
	data.Categories = core.CategoryBuckets(list.Transactions)
	for _, b := range data.Monthly {
		if b.Expense > data.MaxAmount {
			data.MaxAmount = b.Expense
		}
		if b.Income > data.MaxAmount {
			data.MaxAmount = b.Income
		}
	}
	for _, c := range data.Categories {
		data.CategoryTotal += c.Value
	}

	s.render(w, r, "dashboard.html", data)
}
