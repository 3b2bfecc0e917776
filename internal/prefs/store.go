// Package prefs holds the display-mode preference. The durable slot is
// the source of truth for the current process; the remote profile's
// settings are reconciled opportunistically, never blocking first paint.
//
// The store moves through Uninitialized -> Local -> Reconciled. Every
// asynchronous apply (the reconcile itself, the fire-and-forget remote
// push after a toggle) captures a generation number when it starts and
// is discarded if a user action bumped the generation in the meantime,
// so a stale response can never clobber a newer toggle.
package prefs

import (
	"context"
	"strconv"
	"sync"
	"time"

	"contas/internal/api"
	"contas/internal/core"
	applog "contas/internal/log"
	"contas/internal/storage"
)

type State int

const (
	Uninitialized State = iota
	Local
	Reconciled
)

type Store struct {
	mu       sync.Mutex
	dark     bool
	state    State
	gen      uint64
	hadLocal bool      // slot was populated at startup
	localAt  time.Time // slot timestamp at startup
	base     core.Settings

	slot   *storage.Slot
	auth   api.AuthService
	logger *applog.Logger
}

// defaultSettings is what gets pushed when the remote side has no
// settings record yet.
var defaultSettings = core.Settings{
	EmailNotifications: true,
	MonthlyReport:      true,
	Language:           "pt-BR",
}

// NewStore reads the durable slot synchronously so the first render
// already uses the persisted value; an absent slot defaults to false.
func NewStore(slot *storage.Slot, auth api.AuthService, logger *applog.Logger) *Store {
	s := &Store{
		state:  Uninitialized,
		base:   defaultSettings,
		slot:   slot,
		auth:   auth,
		logger: logger.WithComponent(applog.ComponentPrefs),
	}
	if value, at, ok, err := slot.Get(storage.KeyDarkMode); err != nil {
		s.logger.Warn("slot read failed, defaulting to light mode", applog.FieldSlotKey, storage.KeyDarkMode, applog.FieldError, err)
	} else if ok {
		s.dark = value == "true"
		s.hadLocal = true
		s.localAt = at
	}
	s.state = Local
	return s
}

// DarkMode returns the current value.
func (s *Store) DarkMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dark
}

// State reports where in the lifecycle the store is.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Reconcile aligns the local value with the remote profile. Callers run
// it in a goroutine after the session restores; failure leaves the store
// in Local and surfaces nowhere but the log.
//
// Precedence: with no local slot the remote value is adopted; with a
// local slot the local value is pushed. When the remote settings carry a
// timestamp the newer side wins instead.
func (s *Store) Reconcile(ctx context.Context) {
	s.mu.Lock()
	gen := s.gen
	local := s.dark
	hadLocal := s.hadLocal
	localAt := s.localAt
	base := s.base
	s.mu.Unlock()

	profile, err := s.auth.Profile(ctx)
	if err != nil {
		// Likely just not authenticated yet.
		s.logger.DebugContext(ctx, "reconcile skipped", applog.FieldError, err)
		return
	}

	remote := profile.Settings
	adoptRemote := false
	if remote != nil {
		switch {
		case !hadLocal:
			adoptRemote = true
		case remote.UpdatedAt != nil:
			adoptRemote = remote.UpdatedAt.After(localAt)
		}
	}

	if adoptRemote {
		s.mu.Lock()
		if s.gen != gen {
			// A toggle happened while we were fetching; its value wins.
			s.mu.Unlock()
			return
		}
		s.dark = remote.DarkMode
		s.state = Reconciled
		s.base = *remote
		s.mu.Unlock()
		if err := s.slot.Put(storage.KeyDarkMode, strconv.FormatBool(remote.DarkMode)); err != nil {
			s.logger.Warn("slot write failed after adopt", applog.FieldSlotKey, storage.KeyDarkMode, applog.FieldError, err)
		}
		s.logger.DebugContext(ctx, "adopted remote display mode", applog.FieldDarkMode, remote.DarkMode)
		return
	}

	// Local wins: overwrite the remote record.
	push := mergedSettings(base, remote, local)
	if err := s.auth.UpdateSettings(ctx, push); err != nil {
		s.logger.DebugContext(ctx, "remote settings push failed", applog.FieldError, err)
		return
	}
	s.mu.Lock()
	if s.gen == gen {
		s.state = Reconciled
		if remote != nil {
			s.base = *remote
			s.base.DarkMode = local
		}
	}
	s.mu.Unlock()
	s.logger.DebugContext(ctx, "pushed local display mode", applog.FieldDarkMode, local)
}

// Toggle flips the value. The slot write is synchronous — local state is
// the source of truth for this session — and the remote write rides a
// goroutine whose failure is swallowed, never rolled back.
func (s *Store) Toggle(ctx context.Context) bool {
	s.mu.Lock()
	s.dark = !s.dark
	s.gen++
	gen := s.gen
	value := s.dark
	push := mergedSettings(s.base, nil, value)
	s.mu.Unlock()

	if err := s.slot.Put(storage.KeyDarkMode, strconv.FormatBool(value)); err != nil {
		s.logger.Warn("slot write failed on toggle", applog.FieldSlotKey, storage.KeyDarkMode, applog.FieldError, err)
	}

	go s.pushRemote(context.WithoutCancel(ctx), gen, push)
	return value
}

// SetLocal records a value decided elsewhere (the settings form pushes
// the full settings object itself); memory and slot only.
func (s *Store) SetLocal(dark bool) {
	s.mu.Lock()
	changed := s.dark != dark
	s.dark = dark
	if changed {
		s.gen++
	}
	s.mu.Unlock()
	if err := s.slot.Put(storage.KeyDarkMode, strconv.FormatBool(dark)); err != nil {
		s.logger.Warn("slot write failed", applog.FieldSlotKey, storage.KeyDarkMode, applog.FieldError, err)
	}
}

func (s *Store) pushRemote(ctx context.Context, gen uint64, push core.Settings) {
	if err := s.auth.UpdateSettings(ctx, push); err != nil {
		s.logger.Debug("remote settings push failed", applog.FieldError, err)
		return
	}
	s.mu.Lock()
	if s.gen == gen && s.state == Local {
		s.state = Reconciled
	}
	s.mu.Unlock()
}

// mergedSettings builds the settings object to push: the freshest known
// remote record when we have one, the stored base otherwise, with the
// display mode set to the winning value.
func mergedSettings(base core.Settings, remote *core.Settings, dark bool) core.Settings {
	out := base
	if remote != nil {
		out = *remote
	}
	out.DarkMode = dark
	out.UpdatedAt = nil
	return out
}
