package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"contas/internal/core"
)

// TransactionService wraps the /transactions endpoints.
type TransactionService struct {
	c *Client
}

func NewTransactionService(c *Client) TransactionService {
	return TransactionService{c: c}
}

// TransactionFilter narrows a listing; zero values are omitted from the
// query string.
type TransactionFilter struct {
	Search    string
	Category  string
	Type      string
	Status    string
	StartDate string
	EndDate   string
	Page      int
	Limit     int
}

func (f TransactionFilter) query() url.Values {
	q := url.Values{}
	set := func(key, v string) {
		if v != "" {
			q.Set(key, v)
		}
	}
	set("search", f.Search)
	set("category", f.Category)
	set("type", f.Type)
	set("status", f.Status)
	set("startDate", f.StartDate)
	set("endDate", f.EndDate)
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

type TransactionList struct {
	Transactions []core.Transaction `json:"transactions"`
	Total        int                `json:"total"`
	Page         int                `json:"page"`
	Pages        int                `json:"pages"`
}

func (s TransactionService) List(ctx context.Context, filter TransactionFilter) (TransactionList, error) {
	var out TransactionList
	err := s.c.Do(ctx, http.MethodGet, "/transactions", filter.query(), nil, &out)
	return out, err
}

func (s TransactionService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	var out core.Transaction
	err := s.c.Do(ctx, http.MethodGet, "/transactions/"+strconv.FormatInt(id, 10), nil, nil, &out)
	return out, err
}

func (s TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	var out core.Transaction
	err := s.c.Do(ctx, http.MethodPost, "/transactions", nil, t, &out)
	return out, err
}

func (s TransactionService) Update(ctx context.Context, id int64, t core.Transaction) (core.Transaction, error) {
	var out core.Transaction
	err := s.c.Do(ctx, http.MethodPut, "/transactions/"+strconv.FormatInt(id, 10), nil, t, &out)
	return out, err
}

func (s TransactionService) Delete(ctx context.Context, id int64) error {
	return s.c.Do(ctx, http.MethodDelete, "/transactions/"+strconv.FormatInt(id, 10), nil, nil, nil)
}

func (s TransactionService) Stats(ctx context.Context) (core.TransactionStats, error) {
	var out core.TransactionStats
	err := s.c.Do(ctx, http.MethodGet, "/transactions/stats", nil, nil, &out)
	return out, err
}
