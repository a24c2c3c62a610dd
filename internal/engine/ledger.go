package engine

import (
	"context"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
)

// playerRow is the locked snapshot every coin-mutating transaction starts
// from.
type playerRow struct {
	Wallet      int64
	Bank        int64
	MaxBank     int64
	XP          int64
	Prestige    int32
	BaseBonus   float64
	TempBonus   float64
	DailyStreak int32
	LastDaily   *time.Time
}

func lockPlayerRowTx(ctx context.Context, tx pgx.Tx, playerID string) (playerRow, error) {
	var p playerRow
	err := tx.QueryRow(ctx, `
		SELECT wallet, bank, max_bank, exp, prestige, exp_multiplier, temp_multiplier, daily_streak, last_daily
		FROM players
		WHERE player_id = $1
		FOR UPDATE
	`, playerID).Scan(
		&p.Wallet, &p.Bank, &p.MaxBank, &p.XP, &p.Prestige,
		&p.BaseBonus, &p.TempBonus, &p.DailyStreak, &p.LastDaily,
	)
	if err == pgx.ErrNoRows {
		return p, ErrPlayerNotFound
	}
	return p, err
}

// grantTx applies a coin/XP grant inside an open transaction. Coins scale by
// the coin multiplier, XP by the summed additive XP bonuses; both truncate
// to integers. Level is recomputed from cumulative XP; milestone crates are
// credited for every fifth level crossed.
func (s *Service) grantTx(ctx context.Context, tx pgx.Tx, in GrantInput) (GrantResult, error) {
	var out GrantResult
	p, err := lockPlayerRowTx(ctx, tx, in.PlayerID)
	if err != nil {
		return out, err
	}

	coins := in.Coins
	if coins > 0 {
		coins = int64(float64(coins) * CoinMultiplier(p.Prestige))
	}
	if p.Wallet+coins < 0 {
		return out, ErrInsufficientFunds
	}
	xp := in.XP
	if xp > 0 {
		xp = int64(float64(xp) * XPMultiplier(p.BaseBonus, p.TempBonus, in.ServerBonus, p.Prestige))
	}

	oldLevel, _, _ := LevelForXP(p.XP)
	newLevel, _, _ := LevelForXP(p.XP + xp)

	// Earning actions occasionally grow bank space, scaled by prestige.
	var grown int64
	if coins > 0 && s.nextFloat() < 0.5 {
		grown = int64(math.Round(float64(s.randBetween(10, 15)) * BankGrowthMultiplier(p.Prestige)))
	}

	if _, err := tx.Exec(ctx, `
		UPDATE players
		SET wallet = wallet + $2,
		    exp = exp + $3,
		    max_bank = max_bank + $4,
		    updated_at = now()
		WHERE player_id = $1
	`, in.PlayerID, coins, xp, grown); err != nil {
		return out, err
	}

	out.CoinsGranted = coins
	out.XPGranted = xp
	out.Level = newLevel
	out.LeveledUp = newLevel > oldLevel
	out.BankSpaceGrown = grown
	for l := oldLevel + 1; l <= newLevel; l++ {
		if l%5 == 0 {
			out.MilestoneCrates++
		}
	}
	if out.MilestoneCrates > 0 {
		if err := creditItemTx(ctx, tx, in.PlayerID, ItemCrate, int64(out.MilestoneCrates)); err != nil {
			return out, err
		}
	}
	return out, nil
}

// Grant adds coins and XP atomically and reports level-ups. The level-up
// notification is best-effort: the coins and XP are authoritative once
// committed, a failed notification write is only logged.
func (s *Service) Grant(ctx context.Context, in GrantInput) (GrantResult, error) {
	var out GrantResult
	err := s.withSerializableTx(ctx, func(tx pgx.Tx) error {
		var err error
		out, err = s.grantTx(ctx, tx, in)
		return err
	})
	if err != nil {
		return GrantResult{}, err
	}
	if out.LeveledUp {
		s.notify(ctx, in.PlayerID, NoteLevelUp, map[string]any{
			"level":  out.Level,
			"crates": out.MilestoneCrates,
			"reason": in.Reason,
		})
	}
	return out, nil
}

// Deposit moves coins from wallet to bank. A single conditional update
// enforces both the funds and the capacity guard atomically; on failure the
// row is read back to name the reason.
func (s *Service) Deposit(ctx context.Context, playerID string, amount int64) (BalanceResult, error) {
	var out BalanceResult
	if amount <= 0 {
		return out, ErrInvalidAmount
	}
	err := s.db.QueryRow(ctx, `
		UPDATE players
		SET wallet = wallet - $2, bank = bank + $2, updated_at = now()
		WHERE player_id = $1 AND wallet >= $2 AND bank + $2 <= max_bank
		RETURNING wallet, bank
	`, playerID, amount).Scan(&out.Wallet, &out.Bank)
	if err == nil {
		return out, nil
	}
	if err != pgx.ErrNoRows {
		return out, err
	}
	var wallet, bank, maxBank int64
	if err := s.db.QueryRow(ctx, `
		SELECT wallet, bank, max_bank FROM players WHERE player_id = $1
	`, playerID).Scan(&wallet, &bank, &maxBank); err != nil {
		if err == pgx.ErrNoRows {
			return out, ErrPlayerNotFound
		}
		return out, err
	}
	if wallet < amount {
		return out, ErrInsufficientFunds
	}
	return out, ErrBankCapacity
}

// Withdraw moves coins from bank to wallet.
func (s *Service) Withdraw(ctx context.Context, playerID string, amount int64) (BalanceResult, error) {
	var out BalanceResult
	if amount <= 0 {
		return out, ErrInvalidAmount
	}
	err := s.db.QueryRow(ctx, `
		UPDATE players
		SET wallet = wallet + $2, bank = bank - $2, updated_at = now()
		WHERE player_id = $1 AND bank >= $2
		RETURNING wallet, bank
	`, playerID, amount).Scan(&out.Wallet, &out.Bank)
	if err == nil {
		return out, nil
	}
	if err != pgx.ErrNoRows {
		return out, err
	}
	var exists bool
	if err := s.db.QueryRow(ctx, `
		SELECT true FROM players WHERE player_id = $1
	`, playerID).Scan(&exists); err != nil {
		if err == pgx.ErrNoRows {
			return out, ErrPlayerNotFound
		}
		return out, err
	}
	return out, ErrInsufficientFunds
}

// ClaimDaily pays the daily reward, advancing the streak. The 24h gate and
// the payout commit in one transaction; a lapse past the grace window resets
// the streak to 1.
func (s *Service) ClaimDaily(ctx context.Context, playerID string) (DailyResult, error) {
	var out DailyResult
	err := s.withSerializableTx(ctx, func(tx pgx.Tx) error {
		if err := s.tryConsumeCooldown(ctx, tx, playerID, "daily", DailyCooldown); err != nil {
			return err
		}
		p, err := lockPlayerRowTx(ctx, tx, playerID)
		if err != nil {
			return err
		}
		now := s.now()
		streak := int32(1)
		if p.LastDaily != nil && now.Sub(*p.LastDaily) <= DailyStreakGrace {
			streak = p.DailyStreak + 1
		}
		reward := int64(float64(DailyReward(streak)) * CoinMultiplier(p.Prestige))
		err = tx.QueryRow(ctx, `
			UPDATE players
			SET wallet = wallet + $2, daily_streak = $3, last_daily = $4, updated_at = now()
			WHERE player_id = $1
			RETURNING wallet
		`, playerID, reward, streak, now).Scan(&out.Wallet)
		if err != nil {
			return err
		}
		out.Reward = reward
		out.Streak = streak
		return nil
	})
	if err != nil {
		return DailyResult{}, err
	}
	return out, nil
}

// Prestige performs the all-or-nothing reset. Either every effect below
// commits or none do: wallet, bank, and bank capacity return to baseline;
// non-exempt inventory is wiped; crop plantings are cleared but plot
// ownership survives; prestige increments; scaled rewards are credited.
// Skills, pets, cooldowns, and notifications are untouched.
func (s *Service) Prestige(ctx context.Context, playerID string) (PrestigeResult, error) {
	var out PrestigeResult
	err := s.withSerializableTx(ctx, func(tx pgx.Tx) error {
		p, err := lockPlayerRowTx(ctx, tx, playerID)
		if err != nil {
			return err
		}
		level, _, _ := LevelForXP(p.XP)
		if !s.checkPrestige(p.Wallet, p.Bank, p.XP, level, p.Prestige) {
			return ErrNotEligible
		}

		newPrestige := p.Prestige + 1
		if _, err := tx.Exec(ctx, `
			UPDATE players
			SET wallet = $2, bank = $3, max_bank = $4, prestige = $5, updated_at = now()
			WHERE player_id = $1
		`, playerID, BaselineWallet, BaselineBank, BaselineMaxBank, newPrestige); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			DELETE FROM items
			WHERE player_id = $1 AND NOT (item = ANY($2))
		`, playerID, PrestigeKeepList()); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `
			UPDATE plots
			SET crop = NULL, planted_at = NULL, matures_at = NULL, ripe_notified = false
			WHERE player_id = $1
		`, playerID); err != nil {
			return err
		}

		banknotes, crates := PrestigeRewards(newPrestige)
		if err := creditItemTx(ctx, tx, playerID, ItemBanknote, int64(banknotes)); err != nil {
			return err
		}
		if err := creditItemTx(ctx, tx, playerID, ItemCrate, int64(crates)); err != nil {
			return err
		}
		out = PrestigeResult{Prestige: newPrestige, Banknotes: banknotes, Crates: crates}
		return nil
	})
	if err != nil {
		return PrestigeResult{}, err
	}
	s.notify(ctx, playerID, NotePrestige, map[string]any{
		"prestige":  out.Prestige,
		"banknotes": out.Banknotes,
		"crates":    out.Crates,
	})
	return out, nil
}
