package prefs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"contas/internal/api"
	"contas/internal/core"
	applog "contas/internal/log"
	"contas/internal/storage"
)

// fakeProfileAPI serves the two endpoints the store talks to and records
// every settings push it receives.
type fakeProfileAPI struct {
	mu       sync.Mutex
	settings *core.Settings // nil means profile without a settings record
	status   int            // non-zero: fail /auth/profile with this status
	pushed   []core.Settings
	pushedCh chan core.Settings

	profileGate chan struct{} // when set, /auth/profile blocks until closed
}

func newFakeProfileAPI() *fakeProfileAPI {
	return &fakeProfileAPI{pushedCh: make(chan core.Settings, 8)}
}

func (f *fakeProfileAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/profile", func(w http.ResponseWriter, r *http.Request) {
		if f.profileGate != nil {
			<-f.profileGate
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.status != 0 {
			w.WriteHeader(f.status)
			return
		}
		json.NewEncoder(w).Encode(core.Profile{
			User:     core.User{ID: 1, Name: "Ana"},
			Settings: f.settings,
		})
	})
	mux.HandleFunc("PUT /auth/settings", func(w http.ResponseWriter, r *http.Request) {
		var s core.Settings
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.pushed = append(f.pushed, s)
		f.mu.Unlock()
		f.pushedCh <- s
	})
	return mux
}

func (f *fakeProfileAPI) waitPush(t *testing.T) core.Settings {
	t.Helper()
	select {
	case s := <-f.pushedCh:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no settings push arrived")
		return core.Settings{}
	}
}

func newTestStore(t *testing.T, remote *fakeProfileAPI, seedDark string) (*Store, *storage.Slot) {
	t.Helper()

	srv := httptest.NewServer(remote.handler())
	t.Cleanup(srv.Close)

	slot, err := storage.OpenSlot(filepath.Join(t.TempDir(), "slot.db"))
	if err != nil {
		t.Fatalf("OpenSlot: %v", err)
	}
	t.Cleanup(func() { slot.Close() })
	if seedDark != "" {
		if err := slot.Put(storage.KeyDarkMode, seedDark); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}

	logger := applog.New(applog.DefaultConfig())
	client, err := api.NewClient(api.Options{BaseURL: srv.URL, Logger: logger})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return NewStore(slot, api.NewAuthService(client), logger), slot
}

func TestNewStoreReadsSlot(t *testing.T) {
	remote := newFakeProfileAPI()

	store, _ := newTestStore(t, remote, "true")
	if !store.DarkMode() {
		t.Fatal("persisted dark mode not loaded")
	}
	if store.State() != Local {
		t.Fatalf("state = %v, want Local", store.State())
	}

	store, _ = newTestStore(t, remote, "")
	if store.DarkMode() {
		t.Fatal("empty slot must default to light")
	}
}

func TestReconcileAdoptsRemoteWhenNoLocal(t *testing.T) {
	remote := newFakeProfileAPI()
	remote.settings = &core.Settings{DarkMode: true, Language: "pt-BR"}

	store, slot := newTestStore(t, remote, "")
	store.Reconcile(context.Background())

	if !store.DarkMode() {
		t.Fatal("remote dark mode not adopted")
	}
	if store.State() != Reconciled {
		t.Fatalf("state = %v, want Reconciled", store.State())
	}
	if value, _, ok, _ := slot.Get(storage.KeyDarkMode); !ok || value != "true" {
		t.Fatalf("slot = %q ok=%v, want persisted true", value, ok)
	}
}

func TestReconcilePushesLocalWhenSlotPopulated(t *testing.T) {
	remote := newFakeProfileAPI()
	remote.settings = &core.Settings{DarkMode: false, Language: "en-US"}

	store, _ := newTestStore(t, remote, "true")
	store.Reconcile(context.Background())

	// Local wins; the push carries the remote record with only the
	// display mode replaced.
	pushed := remote.waitPush(t)
	if !pushed.DarkMode {
		t.Fatal("push did not carry local dark mode")
	}
	if pushed.Language != "en-US" {
		t.Fatalf("push clobbered language: %q", pushed.Language)
	}
	if !store.DarkMode() {
		t.Fatal("local value changed by push-side reconcile")
	}
}

func TestReconcileNewerRemoteTimestampWins(t *testing.T) {
	remote := newFakeProfileAPI()
	later := time.Now().Add(time.Hour).UTC()
	remote.settings = &core.Settings{DarkMode: true, UpdatedAt: &later}

	store, _ := newTestStore(t, remote, "false")
	store.Reconcile(context.Background())

	if !store.DarkMode() {
		t.Fatal("newer remote value must win over older local")
	}
}

func TestReconcileOlderRemoteTimestampLoses(t *testing.T) {
	remote := newFakeProfileAPI()
	earlier := time.Now().Add(-time.Hour).UTC()
	remote.settings = &core.Settings{DarkMode: true, UpdatedAt: &earlier}

	store, _ := newTestStore(t, remote, "false")
	store.Reconcile(context.Background())

	if store.DarkMode() {
		t.Fatal("older remote value must not override local")
	}
	pushed := remote.waitPush(t)
	if pushed.DarkMode {
		t.Fatal("push must carry the winning local value")
	}
}

func TestReconcileUnauthenticatedLeavesLocal(t *testing.T) {
	remote := newFakeProfileAPI()
	remote.status = http.StatusUnauthorized

	store, _ := newTestStore(t, remote, "true")
	store.Reconcile(context.Background())

	if !store.DarkMode() {
		t.Fatal("local value lost on failed reconcile")
	}
	if store.State() != Local {
		t.Fatalf("state = %v, want Local", store.State())
	}
}

func TestToggleFlipsAndPersists(t *testing.T) {
	remote := newFakeProfileAPI()
	store, slot := newTestStore(t, remote, "")

	if got := store.Toggle(context.Background()); !got {
		t.Fatal("first toggle must report dark")
	}
	if value, _, ok, _ := slot.Get(storage.KeyDarkMode); !ok || value != "true" {
		t.Fatalf("slot = %q ok=%v after toggle", value, ok)
	}
	if pushed := remote.waitPush(t); !pushed.DarkMode {
		t.Fatal("remote push missing dark mode")
	}

	if got := store.Toggle(context.Background()); got {
		t.Fatal("second toggle must report light")
	}
	if value, _, _, _ := slot.Get(storage.KeyDarkMode); value != "false" {
		t.Fatalf("slot = %q after second toggle", value)
	}
	remote.waitPush(t)
}

func TestStaleReconcileDiscardedAfterToggle(t *testing.T) {
	remote := newFakeProfileAPI()
	remote.settings = &core.Settings{DarkMode: true}
	// Hold the profile response until the test releases it.
	release := make(chan struct{})
	remote.profileGate = release

	store, _ := newTestStore(t, remote, "")

	// With an empty slot the reconcile would adopt remote dark=true, but
	// a toggle lands between its fetch and its apply. Two flips leave the
	// value light with a bumped generation, so the fetched value is stale
	// and must be discarded.
	done := make(chan struct{})
	go func() {
		store.Reconcile(context.Background())
		close(done)
	}()

	store.Toggle(context.Background())
	store.Toggle(context.Background())
	close(release)
	<-done

	if store.DarkMode() {
		t.Fatal("stale reconcile overwrote a newer toggle")
	}
	remote.waitPush(t)
	remote.waitPush(t)
}
