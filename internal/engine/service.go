package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, letting single
// statement read-modify-writes run standalone or inside a larger
// transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PrestigeCheck decides whether a player may prestige. It runs inside the
// prestige transaction; returning false aborts with no state change.
type PrestigeCheck func(wallet, bank, totalXP int64, level int, prestige int32) bool

func defaultPrestigeCheck(wallet, bank, _ int64, level int, prestige int32) bool {
	tier := int64(prestige) + 1
	return wallet+bank >= 500_000*tier && int64(level) >= 20*tier
}

type Service struct {
	db   *pgxpool.Pool
	log  *slog.Logger
	now  func() time.Time
	mu   sync.Mutex
	rand *mathrand.Rand

	checkPrestige PrestigeCheck

	divemu   sync.Mutex
	sessions map[string]*DivingSession

	// Terminal dive transitions and the notification sink run through these
	// hooks so the session loop can be driven without a database.
	spendLifesaver func(ctx context.Context, playerID string) (bool, error)
	commitDive     func(ctx context.Context, sess *DivingSession) (GrantResult, error)
	discardDive    func(ctx context.Context, playerID string) error
	noteSink       func(ctx context.Context, playerID, noteType string, payload map[string]any) error
}

func NewService(db *pgxpool.Pool, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		db:            db,
		log:           logger,
		now:           time.Now,
		rand:          mathrand.New(mathrand.NewSource(time.Now().UnixNano())),
		checkPrestige: defaultPrestigeCheck,
		sessions:      make(map[string]*DivingSession),
	}
	s.spendLifesaver = s.spendLifesaverTx
	s.commitDive = s.commitDiveTx
	s.discardDive = s.clearDiveMarker
	s.noteSink = s.insertNotification
	return s
}

// SetPrestigeCheck replaces the eligibility rule, for operators running
// custom seasons.
func (s *Service) SetPrestigeCheck(check PrestigeCheck) {
	if check != nil {
		s.checkPrestige = check
	}
}

// EnsurePlayer creates the player row on first contact. Safe to call on
// every command.
func (s *Service) EnsurePlayer(ctx context.Context, playerID string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO players (player_id, wallet, bank, max_bank)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (player_id) DO NOTHING
	`, playerID, BaselineWallet, BaselineBank, BaselineMaxBank)
	return err
}

// Profile reads a player's full public state. Pet energy shown is the lazily
// decayed live value; this read does not write back.
func (s *Service) Profile(ctx context.Context, playerID string) (Profile, error) {
	var out Profile
	out.PlayerID = playerID

	err := s.db.QueryRow(ctx, `
		SELECT wallet, bank, max_bank, exp, prestige, orbs, daily_streak, hp, stamina
		FROM players
		WHERE player_id = $1
	`, playerID).Scan(
		&out.Wallet, &out.Bank, &out.MaxBank, &out.TotalXP,
		&out.Prestige, &out.Orbs, &out.DailyStreak, &out.HP, &out.Stamina,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return out, ErrPlayerNotFound
		}
		return out, err
	}
	out.Level, out.LevelXP, out.NextLevelXP = LevelForXP(out.TotalXP)

	now := s.now()
	rows, err := s.db.Query(ctx, `
		SELECT pet, exp, equipped, energy, max_energy, last_fed
		FROM pets
		WHERE player_id = $1
		ORDER BY pet
	`, playerID)
	if err != nil {
		return out, err
	}
	defer rows.Close()
	for rows.Next() {
		var v PetView
		var lastFed time.Time
		if err := rows.Scan(&v.Pet, &v.XP, &v.Equipped, &v.Energy, &v.MaxEnergy, &lastFed); err != nil {
			return out, err
		}
		if info, ok := Pets[v.Pet]; ok {
			v.Energy = DecayedEnergy(v.Energy, lastFed, now, info.DecayPerMinute)
		}
		out.Pets = append(out.Pets, v)
	}
	if err := rows.Err(); err != nil {
		return out, err
	}

	sRows, err := s.db.Query(ctx, `
		SELECT skill, points FROM skills WHERE player_id = $1 ORDER BY skill
	`, playerID)
	if err != nil {
		return out, err
	}
	defer sRows.Close()
	for sRows.Next() {
		var v SkillView
		if err := sRows.Scan(&v.Skill, &v.Points); err != nil {
			return out, err
		}
		out.Skills = append(out.Skills, v)
	}
	if err := sRows.Err(); err != nil {
		return out, err
	}

	iRows, err := s.db.Query(ctx, `
		SELECT item, quantity FROM items WHERE player_id = $1 AND quantity > 0 ORDER BY item
	`, playerID)
	if err != nil {
		return out, err
	}
	defer iRows.Close()
	for iRows.Next() {
		var v ItemView
		if err := iRows.Scan(&v.Item, &v.Quantity); err != nil {
			return out, err
		}
		out.Items = append(out.Items, v)
	}
	return out, iRows.Err()
}

// withSerializableTx runs fn in a serializable transaction, retrying a
// bounded number of times on serialization failures. Failed attempts leave
// no partial writes.
func (s *Service) withSerializableTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	const maxAttempts = 8
	retryDelay := 75 * time.Millisecond
	for attempt := 0; attempt < maxAttempts; attempt++ {
		tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
		if err != nil {
			return err
		}
		err = func() error {
			defer tx.Rollback(ctx)
			if err := fn(tx); err != nil {
				return err
			}
			return tx.Commit(ctx)
		}()
		if err == nil {
			return nil
		}
		if !isSerializationError(err) {
			return err
		}
		if attempt == maxAttempts-1 {
			return ErrConflict
		}
		if err := sleepWithContext(ctx, retryDelay); err != nil {
			return err
		}
		if retryDelay < 1200*time.Millisecond {
			retryDelay *= 2
		}
	}
	return ErrConflict
}

// notify appends a notification row after the primary transaction has
// committed. Best-effort: failures are logged, never propagated, and never
// roll back game state.
func (s *Service) notify(ctx context.Context, playerID, noteType string, payload map[string]any) {
	if err := s.noteSink(ctx, playerID, noteType, payload); err != nil {
		s.log.Error("notification write failed", "player_id", playerID, "type", noteType, "err", err)
	}
}

func (s *Service) insertNotification(ctx context.Context, playerID, noteType string, payload map[string]any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO notifications (player_id, created_at, type, payload)
		VALUES ($1, $2, $3, $4::jsonb)
	`, playerID, s.now(), noteType, string(raw))
	return err
}

func isSerializationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *Service) nextFloat() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.Float64()
}

// randBetween returns a uniform int in [lo, hi].
func (s *Service) randBetween(lo, hi int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo + s.rand.Intn(hi-lo+1)
}
