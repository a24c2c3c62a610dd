package engine

import (
	"context"
	"io"
	"log/slog"
	mathrand "math/rand"
	"testing"
	"time"
)

func testService(seed int64) *Service {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &Service{
		now:      func() time.Time { return fixed },
		rand:     mathrand.New(mathrand.NewSource(seed)),
		sessions: make(map[string]*DivingSession),
	}
}

// diveRecorder counts what the terminal-transition hooks were asked to do.
type diveRecorder struct {
	lifesavers     int
	saves          int
	commits        int
	committedCoins int64
	discards       int
	notes          []string
}

func (r *diveRecorder) hasNote(noteType string) bool {
	for _, n := range r.notes {
		if n == noteType {
			return true
		}
	}
	return false
}

// testDiveService wires a Service whose dive settlement runs against the
// recorder instead of a database.
func testDiveService(seed int64, rec *diveRecorder) *Service {
	s := testService(seed)
	s.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	s.spendLifesaver = func(ctx context.Context, playerID string) (bool, error) {
		if rec.lifesavers > 0 {
			rec.lifesavers--
			rec.saves++
			return true, nil
		}
		return false, nil
	}
	s.commitDive = func(ctx context.Context, sess *DivingSession) (GrantResult, error) {
		rec.commits++
		rec.committedCoins += sess.PendingCoins
		return GrantResult{CoinsGranted: sess.PendingCoins, XPGranted: int64(sess.Depth / 10)}, nil
	}
	s.discardDive = func(ctx context.Context, playerID string) error {
		rec.discards++
		return nil
	}
	s.noteSink = func(ctx context.Context, playerID, noteType string, payload map[string]any) error {
		rec.notes = append(rec.notes, noteType)
		return nil
	}
	return s
}

func TestRollDiveLootAlwaysValid(t *testing.T) {
	s := testService(1)
	for i := 0; i < 10_000; i++ {
		key := s.rollDiveLoot()
		if _, ok := Items[key]; !ok {
			t.Fatalf("rolled unknown loot %q", key)
		}
	}
}

func TestRollPetAlwaysValid(t *testing.T) {
	s := testService(2)
	seen := make(map[string]int)
	for i := 0; i < 10_000; i++ {
		key := s.rollPet()
		if _, ok := Pets[key]; !ok {
			t.Fatalf("rolled unknown pet %q", key)
		}
		seen[key]++
	}
	// Common pets should dominate rare ones over ten thousand draws.
	if seen["dog"] <= seen["phoenix"] {
		t.Fatalf("weights ignored: dog=%d phoenix=%d", seen["dog"], seen["phoenix"])
	}
}

func TestRandBetweenBounds(t *testing.T) {
	s := testService(3)
	for i := 0; i < 1_000; i++ {
		v := s.randBetween(diveOxygenLossMin, diveOxygenLossMax)
		if v < diveOxygenLossMin || v > diveOxygenLossMax {
			t.Fatalf("randBetween out of range: %d", v)
		}
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := testService(4)
	if _, err := s.session("alice"); err != ErrNotDiving {
		t.Fatalf("expected ErrNotDiving, got %v", err)
	}

	sess := &DivingSession{
		ID:           "test",
		PlayerID:     "alice",
		Oxygen:       diveOxygenStart,
		PendingItems: make(map[string]int),
	}
	s.sessions["alice"] = sess

	got, err := s.session("alice")
	if err != nil || got != sess {
		t.Fatalf("session lookup failed: %v", err)
	}

	s.dropSession("alice")
	if _, err := s.session("alice"); err != ErrNotDiving {
		t.Fatalf("session survived drop: %v", err)
	}
}

func TestSnapshotCopiesPendingItems(t *testing.T) {
	sess := &DivingSession{
		ID:           "test",
		PlayerID:     "alice",
		Depth:        150,
		Oxygen:       30,
		PendingCoins: 420,
		PendingItems: map[string]int{"fish": 2},
	}
	out := sess.snapshot(DiveStatusDiving)
	if out.Depth != 150 || out.Oxygen != 30 || out.PendingCoins != 420 {
		t.Fatalf("snapshot mismatch: %+v", out)
	}
	out.PendingItems["fish"] = 99
	if sess.PendingItems["fish"] != 2 {
		t.Fatalf("snapshot aliased the session's item map")
	}
}

func TestSurfacePaysPendingExactlyOnce(t *testing.T) {
	rec := &diveRecorder{}
	s := testDiveService(5, rec)
	ctx := context.Background()

	s.sessions["alice"] = &DivingSession{
		ID:           "test",
		PlayerID:     "alice",
		Depth:        200,
		Oxygen:       20,
		PendingCoins: 640,
		PendingItems: map[string]int{"fish": 2},
	}

	out, err := s.Surface(ctx, "alice")
	if err != nil {
		t.Fatalf("surface failed: %v", err)
	}
	if out.Status != DiveStatusSurfaced {
		t.Fatalf("expected surfaced, got %q", out.Status)
	}
	if out.CoinsGranted != 640 {
		t.Fatalf("expected 640 coins granted, got %d", out.CoinsGranted)
	}
	if rec.commits != 1 || rec.committedCoins != 640 {
		t.Fatalf("expected exactly one settlement of 640, got %d of %d", rec.commits, rec.committedCoins)
	}

	// The session is gone; surfacing again must not pay again.
	if _, err := s.Surface(ctx, "alice"); err != ErrNotDiving {
		t.Fatalf("expected ErrNotDiving on second surface, got %v", err)
	}
	if rec.commits != 1 {
		t.Fatalf("second surface settled again: %d commits", rec.commits)
	}
}

func TestDeathWithoutLifesaverForfeitsHaul(t *testing.T) {
	rec := &diveRecorder{}
	s := testDiveService(6, rec)
	ctx := context.Background()

	// One point of oxygen guarantees the next step drowns the diver.
	s.sessions["alice"] = &DivingSession{
		ID:           "test",
		PlayerID:     "alice",
		Depth:        100,
		Oxygen:       1,
		PendingCoins: 999,
		PendingItems: map[string]int{"fish": 3},
	}

	out, err := s.DiveDeeper(ctx, "alice")
	if err != nil {
		t.Fatalf("dive step failed: %v", err)
	}
	if out.Status != DiveStatusDead {
		t.Fatalf("expected dead, got %q", out.Status)
	}
	if out.PendingCoins != 0 || len(out.PendingItems) != 0 {
		t.Fatalf("death paid out: coins=%d items=%v", out.PendingCoins, out.PendingItems)
	}
	if rec.commits != 0 {
		t.Fatalf("death settled the haul: %d commits", rec.commits)
	}
	if rec.discards != 1 {
		t.Fatalf("expected one marker discard, got %d", rec.discards)
	}
	if !rec.hasNote(NoteDeath) {
		t.Fatalf("expected a death notification, got %v", rec.notes)
	}
	if _, err := s.session("alice"); err != ErrNotDiving {
		t.Fatalf("session survived death: %v", err)
	}
}

func TestLifesaverSaveKeepsDiving(t *testing.T) {
	rec := &diveRecorder{lifesavers: 1}
	s := testDiveService(7, rec)
	ctx := context.Background()

	s.sessions["alice"] = &DivingSession{
		ID:           "test",
		PlayerID:     "alice",
		Depth:        100,
		Oxygen:       1,
		PendingCoins: 500,
		PendingItems: map[string]int{"fish": 1},
	}

	out, err := s.DiveDeeper(ctx, "alice")
	if err != nil {
		t.Fatalf("dive step failed: %v", err)
	}
	if out.Status != DiveStatusNearDeath {
		t.Fatalf("expected near_death, got %q", out.Status)
	}
	if out.PendingCoins != 500 || out.PendingItems["fish"] != 1 {
		t.Fatalf("save changed the haul: coins=%d items=%v", out.PendingCoins, out.PendingItems)
	}
	if rec.saves != 1 {
		t.Fatalf("expected one lifesaver spent, got %d", rec.saves)
	}
	if !rec.hasNote(NoteNearDeath) {
		t.Fatalf("expected a near-death notification, got %v", rec.notes)
	}
	if _, err := s.session("alice"); err != nil {
		t.Fatalf("save ended the session: %v", err)
	}

	// The save restores nothing: oxygen is still gone, so the next step
	// kills a diver with no lifesaver left.
	out, err = s.DiveDeeper(ctx, "alice")
	if err != nil {
		t.Fatalf("second step failed: %v", err)
	}
	if out.Status != DiveStatusDead {
		t.Fatalf("expected dead on second step, got %q", out.Status)
	}
	if rec.commits != 0 {
		t.Fatalf("death settled the haul: %d commits", rec.commits)
	}
}

func TestDiveTerminalOutcomes(t *testing.T) {
	var sawSwept, sawDead, sawLoot bool
	for seed := int64(0); seed < 200; seed++ {
		rec := &diveRecorder{}
		s := testDiveService(seed, rec)
		ctx := context.Background()

		sess := &DivingSession{
			ID:           "test",
			PlayerID:     "alice",
			Oxygen:       diveOxygenStart,
			PendingItems: make(map[string]int),
		}
		s.sessions["alice"] = sess

		for {
			out, err := s.DiveDeeper(ctx, "alice")
			if err != nil {
				t.Fatalf("seed %d: dive step failed: %v", seed, err)
			}
			if out.Status == DiveStatusDiving {
				if out.FoundItem == "" {
					continue
				}
				sawLoot = true
				// The result must hold its own copy of the haul, immune
				// to later session mutation.
				before := out.PendingItems[out.FoundItem]
				sess.mu.Lock()
				sess.PendingItems[out.FoundItem] += 100
				sess.mu.Unlock()
				if got := out.PendingItems[out.FoundItem]; got != before {
					t.Fatalf("seed %d: result shares the live item map: %d -> %d", seed, before, got)
				}
				sess.mu.Lock()
				sess.PendingItems[out.FoundItem] -= 100
				sess.mu.Unlock()
				continue
			}

			// Swept and dead both forfeit everything and settle nothing.
			if out.Status != DiveStatusSwept && out.Status != DiveStatusDead {
				t.Fatalf("seed %d: unexpected terminal status %q", seed, out.Status)
			}
			if out.PendingCoins != 0 || len(out.PendingItems) != 0 {
				t.Fatalf("seed %d: %s kept a haul: coins=%d items=%v", seed, out.Status, out.PendingCoins, out.PendingItems)
			}
			if rec.commits != 0 {
				t.Fatalf("seed %d: %s settled the haul", seed, out.Status)
			}
			if rec.discards != 1 {
				t.Fatalf("seed %d: expected one marker discard, got %d", seed, rec.discards)
			}
			if _, err := s.session("alice"); err != ErrNotDiving {
				t.Fatalf("seed %d: session survived %s", seed, out.Status)
			}
			if out.Status == DiveStatusSwept {
				sawSwept = true
			} else {
				sawDead = true
			}
			break
		}
	}
	if !sawSwept || !sawDead || !sawLoot {
		t.Fatalf("outcomes not covered: swept=%v dead=%v loot=%v", sawSwept, sawDead, sawLoot)
	}
}

func TestDiveConstants(t *testing.T) {
	// A fresh diver must survive at least the first step even with the
	// worst oxygen roll.
	if diveOxygenStart <= diveOxygenLossMax {
		t.Fatalf("first step could drown the diver: start=%d maxLoss=%d", diveOxygenStart, diveOxygenLossMax)
	}
	// Pressure only rolls once the diver is past the safe band.
	if PressureChance(diveDepthStep) != 0 {
		t.Fatalf("first step should be pressure-free")
	}
}
