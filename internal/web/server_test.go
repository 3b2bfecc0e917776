package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"contas/internal/api"
	"contas/internal/busy"
	"contas/internal/core"
	applog "contas/internal/log"
	"contas/internal/notify"
	"contas/internal/prefs"
	"contas/internal/session"
	"contas/internal/storage"
)

// fakeFinanceAPI serves just enough of the remote API for handler tests.
type fakeFinanceAPI struct {
	role      core.Role
	expireAll bool // every authenticated call answers 401
}

func (f *fakeFinanceAPI) user() core.User {
	return core.User{ID: 1, Name: "Ana", Email: "ana@example.com", Role: f.role}
}

func (f *fakeFinanceAPI) handler() http.Handler {
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if f.expireAll || r.Header.Get("Authorization") != "Bearer tok-1" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next(w, r)
		}
	}
	write := func(w http.ResponseWriter, v any) { json.NewEncoder(w).Encode(v) }

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		write(w, map[string]any{"token": "tok-1", "user": f.user()})
	})
	mux.HandleFunc("GET /auth/profile", authed(func(w http.ResponseWriter, r *http.Request) {
		write(w, core.Profile{User: f.user()})
	}))
	mux.HandleFunc("PUT /auth/settings", authed(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	mux.HandleFunc("GET /transactions", authed(func(w http.ResponseWriter, r *http.Request) {
		write(w, api.TransactionList{
			Transactions: []core.Transaction{{
				ID: 1, Description: "Mercado", Amount: 12050,
				Type: core.Expense, Category: "Alimentação",
				// Current month, so the dashboard's trailing window picks
				// it up regardless of when the test runs.
				Date: core.Date{Time: time.Now().UTC()},
			}},
			Total: 1, Page: 1, Pages: 1,
		})
	}))
	mux.HandleFunc("GET /transactions/stats", authed(func(w http.ResponseWriter, r *http.Request) {
		write(w, core.TransactionStats{TotalIncome: 500000, TotalExpense: 12050, Balance: 487950})
	}))
	mux.HandleFunc("GET /savings", authed(func(w http.ResponseWriter, r *http.Request) {
		write(w, api.SavingList{Savings: []core.Saving{{
			ID: 3, Name: "Viagem", TargetAmount: 100000, CurrentAmount: 25000,
			Deadline: core.Date{Time: time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)},
			Category: "Lazer", Status: core.SavingInProgress,
		}}, Total: 1, Page: 1, Pages: 1})
	}))
	mux.HandleFunc("GET /savings/stats", authed(func(w http.ResponseWriter, r *http.Request) {
		write(w, core.SavingStats{TotalTarget: 100000, TotalCurrent: 25000, InProgress: 1})
	}))
	mux.HandleFunc("POST /savings/{id}/add", authed(func(w http.ResponseWriter, r *http.Request) {
		write(w, core.Saving{ID: 3, Name: "Viagem", TargetAmount: 100000, CurrentAmount: 35000})
	}))
	mux.HandleFunc("GET /users", authed(func(w http.ResponseWriter, r *http.Request) {
		write(w, api.UserList{Users: []core.User{f.user()}})
	}))
	return mux
}

// newTestServer wires the whole stack against the fake remote, mirroring
// the production composition.
func newTestServer(t *testing.T, remote *fakeFinanceAPI) (*Server, *session.Store) {
	t.Helper()

	apiSrv := httptest.NewServer(remote.handler())
	t.Cleanup(apiSrv.Close)

	slot, err := storage.OpenSlot(filepath.Join(t.TempDir(), "slot.db"))
	if err != nil {
		t.Fatalf("OpenSlot: %v", err)
	}
	t.Cleanup(func() { slot.Close() })

	logger := applog.New(applog.DefaultConfig())
	var sessions *session.Store
	client, err := api.NewClient(api.Options{
		BaseURL:        apiSrv.URL,
		Tokens:         api.TokenFunc(func() string { return sessions.Token() }),
		OnUnauthorized: func() { sessions.HandleUnauthorized() },
		Logger:         logger,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	auth := api.NewAuthService(client)
	sessions = session.NewStore(slot, auth, logger)

	srv := NewServer(":0", Deps{
		Sessions:     sessions,
		Prefs:        prefs.NewStore(slot, auth, logger),
		Notices:      notify.NewBroadcaster(4 * time.Second),
		Busy:         busy.NewIndicator(),
		Auth:         auth,
		Transactions: api.NewTransactionService(client),
		Savings:      api.NewSavingService(client),
		Users:        api.NewUserService(client),
		Logger:       logger,
	})
	return srv, sessions
}

func doLogin(t *testing.T, srv *Server) {
	t.Helper()
	form := url.Values{"email": {"ana@example.com"}, "password": {"secret"}}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	srv.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/" {
		t.Fatalf("login: status=%d location=%q", rr.Code, rr.Header().Get("Location"))
	}
}

func get(srv *Server, path string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, &fakeFinanceAPI{role: core.RoleVisitor})
	if rr := get(srv, "/healthz"); rr.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rr.Code)
	}
}

func TestGuardRedirectsWhenLoggedOut(t *testing.T) {
	srv, _ := newTestServer(t, &fakeFinanceAPI{role: core.RoleVisitor})

	for _, path := range []string{"/", "/transactions", "/savings", "/profile", "/settings", "/users"} {
		rr := get(srv, path)
		if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/login" {
			t.Fatalf("%s: status=%d location=%q, want redirect to /login",
				path, rr.Code, rr.Header().Get("Location"))
		}
	}
}

func TestLoginThenDashboard(t *testing.T) {
	srv, _ := newTestServer(t, &fakeFinanceAPI{role: core.RoleVisitor})
	doLogin(t, srv)

	rr := get(srv, "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status = %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "R$ 5000,00") {
		t.Fatalf("dashboard missing income total:\n%s", body)
	}
	if !strings.Contains(body, "Ana") {
		t.Fatal("dashboard missing user name")
	}
	// The single expense is the largest amount in the window, so its
	// month bar fills the full width.
	if !strings.Contains(body, `width: 100%`) {
		t.Fatalf("dashboard bars not scaled to the largest amount:\n%s", body)
	}
}

func TestLoginPageEmptyFields(t *testing.T) {
	srv, _ := newTestServer(t, &fakeFinanceAPI{role: core.RoleVisitor})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("email=&password="))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), "Informe email e senha.") {
		t.Fatalf("status=%d, body missing validation message", rr.Code)
	}
}

func TestRegisterValidationStaysLocal(t *testing.T) {
	srv, _ := newTestServer(t, &fakeFinanceAPI{role: core.RoleVisitor})

	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"missing fields", url.Values{"name": {"Ana"}}, "Preencha todos os campos."},
		{"bad email", url.Values{"name": {"Ana"}, "email": {"nope"}, "password": {"secret1"}, "confirmPassword": {"secret1"}}, "Email inválido."},
		{"short password", url.Values{"name": {"Ana"}, "email": {"a@b.c"}, "password": {"abc"}, "confirmPassword": {"abc"}}, "pelo menos 6 caracteres"},
		{"mismatch", url.Values{"name": {"Ana"}, "email": {"a@b.c"}, "password": {"secret1"}, "confirmPassword": {"secret2"}}, "As senhas não coincidem."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(tt.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			srv.Handler.ServeHTTP(rr, req)
			if !strings.Contains(rr.Body.String(), tt.want) {
				t.Fatalf("body missing %q", tt.want)
			}
		})
	}
}

func TestVisitorBlockedFromUsers(t *testing.T) {
	srv, _ := newTestServer(t, &fakeFinanceAPI{role: core.RoleVisitor})
	doLogin(t, srv)

	rr := get(srv, "/users")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Acesso restrito") {
		t.Fatal("restricted notice missing")
	}
}

func TestAdminSeesUsers(t *testing.T) {
	srv, _ := newTestServer(t, &fakeFinanceAPI{role: core.RoleAdmin})
	doLogin(t, srv)

	rr := get(srv, "/users")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	if strings.Contains(body, "Acesso restrito") {
		t.Fatal("admin hit the restricted notice")
	}
	if !strings.Contains(body, "ana@example.com") {
		t.Fatal("user listing missing")
	}
}

func TestExpiredTokenClearsSessionEverywhere(t *testing.T) {
	remote := &fakeFinanceAPI{role: core.RoleVisitor}
	srv, sessions := newTestServer(t, remote)
	doLogin(t, srv)

	// The token dies server-side; the next write beats a 401, the global
	// hook clears the session and the caller is bounced to login.
	remote.expireAll = true
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/savings/3/add", strings.NewReader("amount=100,00"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/login" {
		t.Fatalf("status=%d location=%q", rr.Code, rr.Header().Get("Location"))
	}
	if sessions.Current() != nil {
		t.Fatal("session survived the 401")
	}

	// Every other guarded view now redirects too.
	if rr := get(srv, "/transactions"); rr.Code != http.StatusFound || rr.Header().Get("Location") != "/login" {
		t.Fatalf("guard after 401: status=%d location=%q", rr.Code, rr.Header().Get("Location"))
	}
}

func TestLogoutRedirects(t *testing.T) {
	srv, sessions := newTestServer(t, &fakeFinanceAPI{role: core.RoleVisitor})
	doLogin(t, srv)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/login" {
		t.Fatalf("status=%d location=%q", rr.Code, rr.Header().Get("Location"))
	}
	if sessions.Current() != nil {
		t.Fatal("session survived logout")
	}
}

func TestNoticeDismissRedirectStaysLocal(t *testing.T) {
	srv, _ := newTestServer(t, &fakeFinanceAPI{role: core.RoleVisitor})

	tests := []struct {
		name    string
		referer string
		want    string
	}{
		{"no referer", "", "/"},
		{"same site", "http://localhost:3000/transactions", "/transactions"},
		{"external host", "https://evil.example.com", "/"},
		{"protocol relative", "//evil.example.com", "/"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/notices/dismiss", nil)
			if tt.referer != "" {
				req.Header.Set("Referer", tt.referer)
			}
			srv.Handler.ServeHTTP(rr, req)
			if rr.Code != http.StatusFound || rr.Header().Get("Location") != tt.want {
				t.Fatalf("status=%d location=%q, want %q", rr.Code, rr.Header().Get("Location"), tt.want)
			}
		})
	}
}

func TestThemeToggleRedirectStaysLocal(t *testing.T) {
	srv, _ := newTestServer(t, &fakeFinanceAPI{role: core.RoleVisitor})
	doLogin(t, srv)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/theme/toggle", nil)
	req.Header.Set("Referer", "https://evil.example.com/phish")
	srv.Handler.ServeHTTP(rr, req)

	// Only the path survives; the host is never echoed back.
	if rr.Code != http.StatusFound || rr.Header().Get("Location") != "/phish" {
		t.Fatalf("status=%d location=%q", rr.Code, rr.Header().Get("Location"))
	}
}

func TestTransactionsPageRenders(t *testing.T) {
	srv, _ := newTestServer(t, &fakeFinanceAPI{role: core.RoleVisitor})
	doLogin(t, srv)

	rr := get(srv, "/transactions?type=despesa")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Mercado") || !strings.Contains(body, "R$ 120,50") {
		t.Fatalf("transaction row missing:\n%s", body)
	}
}

func TestSavingsPageRenders(t *testing.T) {
	srv, _ := newTestServer(t, &fakeFinanceAPI{role: core.RoleVisitor})
	doLogin(t, srv)

	rr := get(srv, "/savings")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Viagem") || !strings.Contains(body, "25%") {
		t.Fatalf("saving card missing:\n%s", body)
	}
}
