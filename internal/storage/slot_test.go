package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestSlot(t *testing.T) *Slot {
	t.Helper()
	s, err := OpenSlot(filepath.Join(t.TempDir(), "slot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSlotRoundTrip(t *testing.T) {
	s := openTestSlot(t)

	_, _, ok, err := s.Get(KeyToken)
	require.NoError(t, err)
	require.False(t, ok, "absent key must report ok=false")

	require.NoError(t, s.Put(KeyToken, "t1"))
	v, at, ok, err := s.Get(KeyToken)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "t1", v)
	require.WithinDuration(t, time.Now().UTC(), at, time.Minute)
}

func TestSlotOverwriteBumpsTimestamp(t *testing.T) {
	s := openTestSlot(t)

	require.NoError(t, s.Put(KeyDarkMode, "false"))
	_, first, _, err := s.Get(KeyDarkMode)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, s.Put(KeyDarkMode, "true"))
	v, second, ok, err := s.Get(KeyDarkMode)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "true", v)
	require.False(t, second.Before(first), "overwrite must not move updated_at backwards")
}

func TestSlotDelete(t *testing.T) {
	s := openTestSlot(t)

	require.NoError(t, s.Put(KeyToken, "t1"))
	require.NoError(t, s.Delete(KeyToken))
	_, _, ok, err := s.Get(KeyToken)
	require.NoError(t, err)
	require.False(t, ok)

	// Deleting again is fine.
	require.NoError(t, s.Delete(KeyToken))
}
