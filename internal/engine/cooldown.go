package engine

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// Cooldown rows gate every rate-limited action. A missing or expired row
// means the action is unlocked; consumption overwrites in place so there is
// never more than one row per (player, action) and no background sweep.

// tryConsumeCooldown atomically arms the (player, action) gate for duration.
// The insert-or-overwrite-if-expired is a single statement, so two
// concurrent callers cannot both pass a single-use gate. Returns a
// CooldownActiveError carrying the remaining time when the gate is live.
func (s *Service) tryConsumeCooldown(ctx context.Context, q querier, playerID, action string, duration time.Duration) error {
	now := s.now()
	tag, err := q.Exec(ctx, `
		INSERT INTO cooldowns (player_id, action, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (player_id, action) DO UPDATE
		SET expires_at = $3
		WHERE cooldowns.expires_at <= $4
	`, playerID, action, now.Add(duration), now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	remaining, _, err := s.peekCooldown(ctx, q, playerID, action)
	if err != nil {
		return err
	}
	return &CooldownActiveError{Action: action, Remaining: remaining}
}

// TryConsume is the public single-use gate: arm the cooldown or report the
// remaining wait.
func (s *Service) TryConsume(ctx context.Context, playerID, action string, duration time.Duration) (ConsumeResult, error) {
	err := s.tryConsumeCooldown(ctx, s.db, playerID, action, duration)
	if ce, ok := IsCooldownActive(err); ok {
		return ConsumeResult{Allowed: false, Remaining: ce.Remaining}, nil
	}
	if err != nil {
		return ConsumeResult{}, err
	}
	return ConsumeResult{Allowed: true}, nil
}

// Peek reports the remaining cooldown without consuming it.
func (s *Service) Peek(ctx context.Context, playerID, action string) (time.Duration, bool, error) {
	return s.peekCooldown(ctx, s.db, playerID, action)
}

func (s *Service) peekCooldown(ctx context.Context, q querier, playerID, action string) (time.Duration, bool, error) {
	var expiresAt time.Time
	err := q.QueryRow(ctx, `
		SELECT expires_at FROM cooldowns WHERE player_id = $1 AND action = $2
	`, playerID, action).Scan(&expiresAt)
	if err == pgx.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	remaining := expiresAt.Sub(s.now())
	if remaining <= 0 {
		return 0, false, nil
	}
	return remaining, true, nil
}

// tryConsumeBudget spends costTenths from a fixed-window fractional budget.
// Costs are tenths of a unit so fractional prices (half a swap) never leak
// through float rounding. The window rolls over in the same statement that
// spends from it; a live window over capacity affects zero rows.
func (s *Service) tryConsumeBudget(ctx context.Context, q querier, playerID, budget string, costTenths, capacityTenths int32, window time.Duration) (BudgetResult, error) {
	if costTenths > capacityTenths {
		return BudgetResult{Allowed: false}, nil
	}
	now := s.now()
	cutoff := now.Add(-window)
	var used int32
	err := q.QueryRow(ctx, `
		INSERT INTO budget_windows (player_id, budget, window_start, used_tenths)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (player_id, budget) DO UPDATE
		SET window_start = CASE
				WHEN budget_windows.window_start <= $5 THEN $3
				ELSE budget_windows.window_start
			END,
			used_tenths = CASE
				WHEN budget_windows.window_start <= $5 THEN $4
				ELSE budget_windows.used_tenths + $4
			END
		WHERE budget_windows.window_start <= $5
		   OR budget_windows.used_tenths + $4 <= $6
		RETURNING used_tenths
	`, playerID, budget, now, costTenths, cutoff, capacityTenths).Scan(&used)
	if err == pgx.ErrNoRows {
		return BudgetResult{Allowed: false}, nil
	}
	if err != nil {
		return BudgetResult{}, err
	}
	return BudgetResult{Allowed: true, RemainingTenths: capacityTenths - used}, nil
}

// TryConsumeBudget is the public budget gate.
func (s *Service) TryConsumeBudget(ctx context.Context, playerID, budget string, costTenths, capacityTenths int32, window time.Duration) (BudgetResult, error) {
	return s.tryConsumeBudget(ctx, s.db, playerID, budget, costTenths, capacityTenths, window)
}

// SwapBudget reports the player's remaining pet-swap budget for display.
func (s *Service) SwapBudget(ctx context.Context, playerID string) (SwapBudgetView, error) {
	now := s.now()
	var windowStart time.Time
	var used int32
	err := s.db.QueryRow(ctx, `
		SELECT window_start, used_tenths
		FROM budget_windows
		WHERE player_id = $1 AND budget = $2
	`, playerID, SwapBudgetKey).Scan(&windowStart, &used)
	if err == pgx.ErrNoRows || (err == nil && windowStart.Add(SwapBudgetWindow).Before(now)) {
		return SwapBudgetView{
			RemainingSwaps: float64(SwapBudgetCapacity) / 10,
			ReplenishesAt:  now,
		}, nil
	}
	if err != nil {
		return SwapBudgetView{}, err
	}
	remaining := SwapBudgetCapacity - used
	if remaining < 0 {
		remaining = 0
	}
	return SwapBudgetView{
		RemainingSwaps: float64(remaining) / 10,
		ReplenishesAt:  windowStart.Add(SwapBudgetWindow),
	}, nil
}
