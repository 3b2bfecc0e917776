package api

import (
	"context"
	"io"
	"net/http"

	"contas/internal/core"
)

// AuthService wraps the /auth endpoints.
type AuthService struct {
	c *Client
}

func NewAuthService(c *Client) AuthService {
	return AuthService{c: c}
}

// LoginResponse is the credential exchange result: an opaque bearer
// token plus the user record it belongs to.
type LoginResponse struct {
	Token string    `json:"token"`
	User  core.User `json:"user"`
}

func (s AuthService) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var out LoginResponse
	err := s.c.Do(ctx, http.MethodPost, "/auth/login", nil, map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	return out, err
}

// Register creates an account. It does not authenticate; the caller must
// follow up with Login.
func (s AuthService) Register(ctx context.Context, name, email, password string) error {
	return s.c.Do(ctx, http.MethodPost, "/auth/register", nil, map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, nil)
}

func (s AuthService) Profile(ctx context.Context) (core.Profile, error) {
	var out core.Profile
	err := s.c.Do(ctx, http.MethodGet, "/auth/profile", nil, nil, &out)
	return out, err
}

// ProfileUpdate carries only the fields being changed.
type ProfileUpdate struct {
	Name            string `json:"name,omitempty"`
	CurrentPassword string `json:"currentPassword,omitempty"`
	NewPassword     string `json:"newPassword,omitempty"`
	Photo           string `json:"photo,omitempty"`
}

func (s AuthService) UpdateProfile(ctx context.Context, upd ProfileUpdate) (core.Profile, error) {
	var out core.Profile
	err := s.c.Do(ctx, http.MethodPut, "/auth/profile", nil, upd, &out)
	return out, err
}

func (s AuthService) UpdateSettings(ctx context.Context, settings core.Settings) error {
	return s.c.Do(ctx, http.MethodPut, "/auth/settings", nil, settings, nil)
}

// UploadPhoto sends a multipart photo and returns the new photo path;
// the previous photo stays in place when the upload fails.
func (s AuthService) UploadPhoto(ctx context.Context, filename string, file io.Reader) (string, error) {
	var out struct {
		Photo string `json:"photo"`
	}
	if err := s.c.DoMultipart(ctx, "/auth/upload-photo", "photo", filename, file, &out); err != nil {
		return "", err
	}
	return out.Photo, nil
}
