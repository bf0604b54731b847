package session

import (
	"context"
	"testing"
	"time"

	apperrors "github.com/cataloghq/idkit/errors"
	"github.com/cataloghq/idkit/store"
)

func newTestGovernor(t *testing.T, cfg Config) (*Governor, *store.Memory) {
	t.Helper()
	m := store.NewMemory()
	g, err := NewGovernor(cfg, m, nil)
	if err != nil {
		t.Fatal(err)
	}
	return g, m
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.MaxConcurrentSessions != 5 {
		t.Errorf("MaxConcurrentSessions = %d, want 5", cfg.MaxConcurrentSessions)
	}
	if cfg.SessionTimeout != 24*time.Hour {
		t.Errorf("SessionTimeout = %v, want 24h", cfg.SessionTimeout)
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	g, m := newTestGovernor(t, Config{SessionTimeout: time.Hour})

	s, err := g.Create(ctx, "user@example.com", "203.0.113.7", "cli/1.0")
	if err != nil {
		t.Fatal(err)
	}
	if s.SessionID == "" {
		t.Error("expected a generated session id")
	}
	if got := s.ExpiresAt.Sub(s.CreatedAt); got != time.Hour {
		t.Errorf("lifetime = %v, want 1h", got)
	}

	stored, err := m.GetSession(ctx, s.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.UserEmail != "user@example.com" || stored.IPAddress != "203.0.113.7" {
		t.Errorf("unexpected stored session: %+v", stored)
	}
}

func TestEnforceLimitEvictsOldest(t *testing.T) {
	ctx := context.Background()
	g, m := newTestGovernor(t, Config{MaxConcurrentSessions: 3})

	base := time.Now().UTC()
	var ids []string
	for i := 0; i < 7; i++ {
		s, err := g.Create(ctx, "user@example.com", "", "")
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, s.SessionID)
		// Distinct activity times so ordering is deterministic.
		if err := m.TouchSession(ctx, s.SessionID, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatal(err)
		}
	}

	evicted, err := g.EnforceLimit(ctx, "user@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if evicted != 4 {
		t.Fatalf("evicted = %d, want 4", evicted)
	}

	left, err := m.ListSessions(ctx, "user@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 3 {
		t.Fatalf("remaining = %d, want 3", len(left))
	}
	// The three most recently active survive, newest first.
	for i, want := range []string{ids[6], ids[5], ids[4]} {
		if left[i].SessionID != want {
			t.Errorf("survivor[%d] = %s, want %s", i, left[i].SessionID, want)
		}
	}
}

func TestEnforceLimitUnderCap(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGovernor(t, Config{MaxConcurrentSessions: 5})

	for i := 0; i < 3; i++ {
		if _, err := g.Create(ctx, "user@example.com", "", ""); err != nil {
			t.Fatal(err)
		}
	}
	evicted, err := g.EnforceLimit(ctx, "user@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if evicted != 0 {
		t.Errorf("evicted = %d, want 0", evicted)
	}
}

func TestTouchReorders(t *testing.T) {
	ctx := context.Background()
	g, m := newTestGovernor(t, Config{})

	s1, _ := g.Create(ctx, "user@example.com", "", "")
	s2, _ := g.Create(ctx, "user@example.com", "", "")

	// Both stamps in the past so the real Touch below outranks them.
	base := time.Now().UTC().Add(-time.Hour)
	_ = m.TouchSession(ctx, s1.SessionID, base)
	_ = m.TouchSession(ctx, s2.SessionID, base.Add(time.Minute))

	if err := g.Touch(ctx, s1.SessionID); err != nil {
		t.Fatal(err)
	}
	all, err := g.List(ctx, "user@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if all[0].SessionID != s1.SessionID {
		t.Errorf("expected touched session first, got %s", all[0].SessionID)
	}

	err = g.Touch(ctx, "no-such-session")
	if !apperrors.IsCode(err, apperrors.ErrCodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestDeleteExpired(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGovernor(t, Config{SessionTimeout: time.Hour})

	for i := 0; i < 2; i++ {
		if _, err := g.Create(ctx, "user@example.com", "", ""); err != nil {
			t.Fatal(err)
		}
	}

	// Nothing has expired yet.
	n, err := g.DeleteExpired(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("deleted = %d, want 0", n)
	}

	// Jump the governor's clock past the expiry.
	g.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	n, err = g.DeleteExpired(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("deleted = %d, want 2", n)
	}

	// Idempotent.
	n, err = g.DeleteExpired(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("second sweep deleted = %d, want 0", n)
	}
}

func TestDeleteUserSessions(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGovernor(t, Config{})

	for i := 0; i < 3; i++ {
		if _, err := g.Create(ctx, "a@example.com", "", ""); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := g.Create(ctx, "b@example.com", "", ""); err != nil {
		t.Fatal(err)
	}

	n, err := g.DeleteUserSessions(ctx, "a@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("deleted = %d, want 3", n)
	}
	left, _ := g.List(ctx, "b@example.com")
	if len(left) != 1 {
		t.Errorf("unrelated user's sessions affected: %d left", len(left))
	}
}
