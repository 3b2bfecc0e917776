package api

import (
	"context"
	"net/http"
	"strconv"

	"contas/internal/core"
)

// UserService wraps the admin-only /users endpoints.
type UserService struct {
	c *Client
}

func NewUserService(c *Client) UserService {
	return UserService{c: c}
}

type UserList struct {
	Users []core.User `json:"users"`
}

func (s UserService) List(ctx context.Context) (UserList, error) {
	var out UserList
	err := s.c.Do(ctx, http.MethodGet, "/users", nil, nil, &out)
	return out, err
}

// Update changes a user's name and role.
func (s UserService) Update(ctx context.Context, id int64, name string, role core.Role) (core.User, error) {
	var out core.User
	err := s.c.Do(ctx, http.MethodPut, "/users/"+strconv.FormatInt(id, 10), nil, map[string]any{
		"name": name,
		"role": role,
	}, &out)
	return out, err
}
