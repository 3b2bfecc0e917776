package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"contas/internal/core"
)

// SavingService wraps the /savings endpoints.
type SavingService struct {
	c *Client
}

func NewSavingService(c *Client) SavingService {
	return SavingService{c: c}
}

type SavingFilter struct {
	Category string
	Status   string
	Page     int
	Limit    int
}

func (f SavingFilter) query() url.Values {
	q := url.Values{}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

type SavingList struct {
	Savings []core.Saving `json:"savings"`
	Total   int           `json:"total"`
	Page    int           `json:"page"`
	Pages   int           `json:"pages"`
}

func (s SavingService) List(ctx context.Context, filter SavingFilter) (SavingList, error) {
	var out SavingList
	err := s.c.Do(ctx, http.MethodGet, "/savings", filter.query(), nil, &out)
	return out, err
}

func (s SavingService) Create(ctx context.Context, g core.Saving) (core.Saving, error) {
	var out core.Saving
	err := s.c.Do(ctx, http.MethodPost, "/savings", nil, g, &out)
	return out, err
}

func (s SavingService) Update(ctx context.Context, id int64, g core.Saving) (core.Saving, error) {
	var out core.Saving
	err := s.c.Do(ctx, http.MethodPut, "/savings/"+strconv.FormatInt(id, 10), nil, g, &out)
	return out, err
}

func (s SavingService) Delete(ctx context.Context, id int64) error {
	return s.c.Do(ctx, http.MethodDelete, "/savings/"+strconv.FormatInt(id, 10), nil, nil, nil)
}

// AddAmount increments the goal's currentAmount remotely; the updated
// record comes back but callers refetch the list anyway.
func (s SavingService) AddAmount(ctx context.Context, id int64, amount core.Cents) (core.Saving, error) {
	var out core.Saving
	err := s.c.Do(ctx, http.MethodPost, "/savings/"+strconv.FormatInt(id, 10)+"/add", nil,
		map[string]core.Cents{"amount": amount}, &out)
	return out, err
}

func (s SavingService) Stats(ctx context.Context) (core.SavingStats, error) {
	var out core.SavingStats
	err := s.c.Do(ctx, http.MethodGet, "/savings/stats", nil, nil, &out)
	return out, err
}
