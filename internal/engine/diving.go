package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Diving is push-your-luck: rewards accumulate in a session that lives only
// in process memory, and nothing is owed to the player until they surface.
// A marker row in diving_sessions keeps other processes from opening a
// second session; markers left behind by a crash are swept at startup and
// the loot they pointed at is simply gone.

const (
	diveDepthThreshold = 50 // metres before pressure starts rolling
	diveDepthStep      = 50
	diveOxygenStart    = 50
	diveOxygenLossMin  = 5
	diveOxygenLossMax  = 15
	diveCoinMin        = 100
	diveCoinMax        = 250
	diveLootChance     = 0.20
	diveSweepChance    = 0.13
	diveFlatDeathRisk  = 0.01
)

type DivingSession struct {
	ID       string
	PlayerID string

	mu           sync.Mutex
	Depth        int
	Oxygen       int
	PendingCoins int64
	PendingItems map[string]int
}

func (d *DivingSession) snapshot(status DiveStatus) DiveResult {
	out := DiveResult{
		SessionID:    d.ID,
		Status:       status,
		Depth:        d.Depth,
		Oxygen:       d.Oxygen,
		PendingCoins: d.PendingCoins,
	}
	if len(d.PendingItems) > 0 {
		out.PendingItems = make(map[string]int, len(d.PendingItems))
		for k, v := range d.PendingItems {
			out.PendingItems[k] = v
		}
	}
	return out
}

// StartDive opens a session at the surface. The marker insert is the
// mutual-exclusion point; the dive cooldown only arms once the marker is
// ours.
func (s *Service) StartDive(ctx context.Context, playerID string) (DiveResult, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `
		SELECT true FROM players WHERE player_id = $1
	`, playerID).Scan(&exists)
	if err == pgx.ErrNoRows {
		return DiveResult{}, ErrPlayerNotFound
	}
	if err != nil {
		return DiveResult{}, err
	}

	id := uuid.NewString()
	tag, err := s.db.Exec(ctx, `
		INSERT INTO diving_sessions (player_id, session_id, started_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (player_id) DO NOTHING
	`, playerID, id, s.now())
	if err != nil {
		return DiveResult{}, err
	}
	if tag.RowsAffected() == 0 {
		return DiveResult{}, ErrAlreadyDiving
	}

	if err := s.tryConsumeCooldown(ctx, s.db, playerID, "dive", DiveCooldown); err != nil {
		if derr := s.clearDiveMarker(ctx, playerID); derr != nil {
			s.log.Error("dive marker cleanup failed", "player_id", playerID, "err", derr)
		}
		return DiveResult{}, err
	}

	sess := &DivingSession{
		ID:           id,
		PlayerID:     playerID,
		Oxygen:       diveOxygenStart,
		PendingItems: make(map[string]int),
	}
	s.divemu.Lock()
	s.sessions[playerID] = sess
	s.divemu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := sess.snapshot(DiveStatusDiving)
	out.Message = "You take a deep breath and dive in."
	return out, nil
}

func (s *Service) session(playerID string) (*DivingSession, error) {
	s.divemu.Lock()
	defer s.divemu.Unlock()
	sess, ok := s.sessions[playerID]
	if !ok {
		return nil, ErrNotDiving
	}
	return sess, nil
}

func (s *Service) dropSession(playerID string) {
	s.divemu.Lock()
	delete(s.sessions, playerID)
	s.divemu.Unlock()
}

func (s *Service) clearDiveMarker(ctx context.Context, playerID string) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM diving_sessions WHERE player_id = $1
	`, playerID)
	return err
}

// DiveDeeper descends one step and resolves hazards in order: oxygen, then
// pressure, then the flat hazard roll, then the current. Only a surviving
// step rolls rewards. Deaths and sweeps are outcomes carried in the result,
// not errors.
func (s *Service) DiveDeeper(ctx context.Context, playerID string) (DiveResult, error) {
	sess, err := s.session(playerID)
	if err != nil {
		return DiveResult{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.Depth += diveDepthStep
	sess.Oxygen -= s.randBetween(diveOxygenLossMin, diveOxygenLossMax)

	if sess.Oxygen <= 0 {
		sess.Oxygen = 0
		return s.resolveDeath(ctx, sess, "You ran out of oxygen.")
	}
	if s.nextFloat() < PressureChance(sess.Depth) {
		return s.resolveDeath(ctx, sess, fmt.Sprintf("The pressure at %dm crushed you.", sess.Depth))
	}
	if s.nextFloat() < diveFlatDeathRisk {
		return s.resolveDeath(ctx, sess, "Something in the dark got you.")
	}
	if s.nextFloat() < diveSweepChance {
		// Swept by the current: alive, but the haul is gone.
		out := sess.snapshot(DiveStatusSwept)
		out.PendingCoins = 0
		out.PendingItems = nil
		out.Message = "A current sweeps you to the surface. Your haul scatters into the deep."
		s.endSession(ctx, sess)
		return out, nil
	}

	coins := int64(s.randBetween(diveCoinMin, diveCoinMax))
	sess.PendingCoins += coins
	var found string
	if s.nextFloat() < diveLootChance {
		found = s.rollDiveLoot()
		sess.PendingItems[found]++
	}
	// Snapshot after the loot lands so the result never shares the live map.
	out := sess.snapshot(DiveStatusDiving)
	out.FoundCoins = coins
	out.FoundItem = found
	return out, nil
}

// resolveDeath consumes a lifesaver if the player carries one. A saved
// diver stays down with the haul intact; the save restores nothing, it only
// cancels the death. Without one, everything pending is forfeit. Caller
// holds the session lock.
func (s *Service) resolveDeath(ctx context.Context, sess *DivingSession, cause string) (DiveResult, error) {
	saved, err := s.spendLifesaver(ctx, sess.PlayerID)
	if err != nil {
		return DiveResult{}, err
	}

	if saved {
		out := sess.snapshot(DiveStatusNearDeath)
		out.Message = cause + " Your lifesaver yanks you back from the brink. You are still down here."
		s.notify(ctx, sess.PlayerID, NoteNearDeath, map[string]any{
			"depth": sess.Depth,
			"cause": cause,
		})
		return out, nil
	}

	out := sess.snapshot(DiveStatusDead)
	out.PendingCoins = 0
	out.PendingItems = nil
	out.Message = cause + " Your haul is lost."
	s.endSession(ctx, sess)
	s.notify(ctx, sess.PlayerID, NoteDeath, map[string]any{
		"depth": sess.Depth,
		"cause": cause,
	})
	return out, nil
}

// Surface ends the session voluntarily and pays out everything pending.
func (s *Service) Surface(ctx context.Context, playerID string) (DiveResult, error) {
	sess, err := s.session(playerID)
	if err != nil {
		return DiveResult{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	out, err := s.settle(ctx, sess, DiveStatusSurfaced)
	if err != nil {
		return DiveResult{}, err
	}
	out.Message = "You surface and haul in your loot."
	return out, nil
}

// settle credits the session's pending haul and removes the marker in one
// transaction, then drops the in-memory session. Caller holds the session
// lock.
func (s *Service) settle(ctx context.Context, sess *DivingSession, status DiveStatus) (DiveResult, error) {
	granted, err := s.commitDive(ctx, sess)
	if err != nil {
		return DiveResult{}, err
	}

	out := sess.snapshot(status)
	out.CoinsGranted = granted.CoinsGranted
	s.dropSession(sess.PlayerID)
	if granted.LeveledUp {
		s.notify(ctx, sess.PlayerID, NoteLevelUp, map[string]any{
			"level":  granted.Level,
			"crates": granted.MilestoneCrates,
			"reason": "diving",
		})
	}
	return out, nil
}

// endSession discards a session with no payout. Caller holds the session
// lock.
func (s *Service) endSession(ctx context.Context, sess *DivingSession) {
	s.dropSession(sess.PlayerID)
	if err := s.discardDive(ctx, sess.PlayerID); err != nil {
		s.log.Error("dive marker cleanup failed", "player_id", sess.PlayerID, "err", err)
	}
}

// spendLifesaverTx debits one lifesaver, reporting whether the player had
// one to spend.
func (s *Service) spendLifesaverTx(ctx context.Context, playerID string) (bool, error) {
	saved := false
	err := s.withSerializableTx(ctx, func(tx pgx.Tx) error {
		saved = false
		err := debitItemsTx(ctx, tx, playerID, map[string]int64{ItemLifesaver: 1})
		if err == nil {
			saved = true
			return nil
		}
		if errors.Is(err, ErrInsufficientItems) {
			return nil
		}
		return err
	})
	return saved, err
}

// commitDiveTx pays out a session's pending haul and deletes its marker in
// one transaction.
func (s *Service) commitDiveTx(ctx context.Context, sess *DivingSession) (GrantResult, error) {
	var granted GrantResult
	err := s.withSerializableTx(ctx, func(tx pgx.Tx) error {
		var err error
		granted, err = s.grantTx(ctx, tx, GrantInput{
			PlayerID: sess.PlayerID,
			Coins:    sess.PendingCoins,
			XP:       int64(sess.Depth / 10),
			Reason:   "diving",
		})
		if err != nil {
			return err
		}
		for item, qty := range sess.PendingItems {
			if err := creditItemTx(ctx, tx, sess.PlayerID, item, int64(qty)); err != nil {
				return err
			}
		}
		_, err = tx.Exec(ctx, `
			DELETE FROM diving_sessions WHERE player_id = $1
		`, sess.PlayerID)
		return err
	})
	return granted, err
}

// CurrentDive reports the live session state without advancing it.
func (s *Service) CurrentDive(ctx context.Context, playerID string) (DiveResult, error) {
	sess, err := s.session(playerID)
	if err != nil {
		return DiveResult{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.snapshot(DiveStatusDiving), nil
}

func (s *Service) rollDiveLoot() string {
	var total float64
	for _, e := range diveLoot {
		total += e.Weight
	}
	roll := s.nextFloat() * total
	for _, e := range diveLoot {
		roll -= e.Weight
		if roll <= 0 {
			return e.Key
		}
	}
	return diveLoot[0].Key
}

// ReapAbandonedSessions deletes marker rows left behind by a previous
// process. Run at startup, before serving: any haul those markers pointed
// at died with the process.
func (s *Service) ReapAbandonedSessions(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM diving_sessions`)
	if err != nil {
		return 0, err
	}
	if n := tag.RowsAffected(); n > 0 {
		s.log.Info("reaped abandoned diving sessions", "count", n)
		return n, nil
	}
	return 0, nil
}
