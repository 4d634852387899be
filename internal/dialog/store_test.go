package dialog

import (
	"testing"
	"time"
)

func TestSessionStoreGetOrCreate(t *testing.T) {
	store := NewSessionStore()

	s1, existed := store.GetOrCreate("call-1", "+61412345678")
	if existed {
		t.Error("first GetOrCreate reported an existing session")
	}
	if s1.CallerPhone != "+61412345678" {
		t.Errorf("CallerPhone = %q, want caller ID", s1.CallerPhone)
	}

	s2, existed := store.GetOrCreate("call-1", "")
	if !existed {
		t.Error("second GetOrCreate did not find the session")
	}
	if s1 != s2 {
		t.Error("GetOrCreate returned a different session for the same call")
	}
}

func TestSessionStoreDelete(t *testing.T) {
	store := NewSessionStore()
	store.GetOrCreate("call-1", "")
	store.Delete("call-1")
	if _, err := store.Get("call-1"); err != ErrSessionNotFound {
		t.Errorf("Get after Delete error = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionStorePruneIdle(t *testing.T) {
	store := NewSessionStore()
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	stale, _ := store.GetOrCreate("stale", "")
	stale.LastActivity = now.Add(-time.Hour)
	fresh, _ := store.GetOrCreate("fresh", "")
	fresh.LastActivity = now.Add(-time.Minute)

	pruned := store.PruneIdle(30 * time.Minute)
	if len(pruned) != 1 || pruned[0].ID != "stale" {
		t.Fatalf("pruned = %v, want only the stale session", pruned)
	}
	if pruned[0].State() != StateEnded {
		t.Errorf("pruned session state = %s, want ended", pruned[0].State())
	}
	if store.Len() != 1 {
		t.Errorf("Len() = %d, want 1 remaining", store.Len())
	}
}

func TestSessionStoreEndedTombstone(t *testing.T) {
	store := NewSessionStore()
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	store.GetOrCreate("call-1", "")
	store.Delete("call-1")
	if !store.Ended("call-1") {
		t.Error("Ended() = false right after Delete, want true")
	}
	if store.Ended("call-2") {
		t.Error("Ended() = true for a call that never existed")
	}

	now = now.Add(tombstoneTTL + time.Minute)
	if store.Ended("call-1") {
		t.Error("Ended() = true after the tombstone expired, want false")
	}
}
