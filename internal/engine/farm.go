package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Plot ownership is a row in plots; a NULL crop means Owned(empty).
// Ripeness is derived from matures_at, never polled: the maturity duration
// is fixed at plant time.

// Farm lists a player's plots with live ripeness.
func (s *Service) Farm(ctx context.Context, playerID string) (FarmView, error) {
	var out FarmView
	rows, err := s.db.Query(ctx, `
		SELECT plot, crop, planted_at, matures_at
		FROM plots
		WHERE player_id = $1
		ORDER BY plot
	`, playerID)
	if err != nil {
		return out, err
	}
	defer rows.Close()
	now := s.now()
	for rows.Next() {
		var v PlotView
		var crop *string
		if err := rows.Scan(&v.Plot, &crop, &v.PlantedAt, &v.MaturesAt); err != nil {
			return out, err
		}
		if crop != nil {
			v.Crop = *crop
			v.Ripe = v.MaturesAt != nil && !now.Before(*v.MaturesAt)
		}
		out.Plots = append(out.Plots, v)
	}
	if err := rows.Err(); err != nil {
		return out, err
	}
	out.NextPrice = PlotPrice(len(out.Plots))
	return out, nil
}

// BuyPlot unlocks the next plot for a growing price. Plots must be bought
// in order; plot numbers start at zero.
func (s *Service) BuyPlot(ctx context.Context, playerID string, plot int32) (FarmView, error) {
	err := s.withSerializableTx(ctx, func(tx pgx.Tx) error {
		p, err := lockPlayerRowTx(ctx, tx, playerID)
		if err != nil {
			return err
		}
		var owned int
		if err := tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM plots WHERE player_id = $1
		`, playerID).Scan(&owned); err != nil {
			return err
		}
		if int(plot) != owned {
			return fmt.Errorf("%w: next purchasable plot is %d", ErrPlotLocked, owned)
		}
		price := PlotPrice(owned)
		if p.Wallet < price {
			return ErrInsufficientFunds
		}
		if _, err := tx.Exec(ctx, `
			UPDATE players SET wallet = wallet - $2, updated_at = now() WHERE player_id = $1
		`, playerID, price); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO plots (player_id, plot) VALUES ($1, $2)
		`, playerID, plot)
		return err
	})
	if err != nil {
		return FarmView{}, err
	}
	return s.Farm(ctx, playerID)
}

// Plant sows a crop on an owned, empty plot. Seed cost is paid from the
// wallet; the maturity deadline is locked in at plant time.
func (s *Service) Plant(ctx context.Context, playerID string, plot int32, crop string) (PlotView, error) {
	info, ok := Crops[crop]
	if !ok {
		return PlotView{}, fmt.Errorf("%w: %s", ErrUnknownCrop, crop)
	}
	var out PlotView
	err := s.withSerializableTx(ctx, func(tx pgx.Tx) error {
		p, err := lockPlayerRowTx(ctx, tx, playerID)
		if err != nil {
			return err
		}
		var existing *string
		err = tx.QueryRow(ctx, `
			SELECT crop FROM plots WHERE player_id = $1 AND plot = $2 FOR UPDATE
		`, playerID, plot).Scan(&existing)
		if err == pgx.ErrNoRows {
			return ErrPlotLocked
		}
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: %s at plot %d", ErrPlotOccupied, *existing, plot)
		}
		if p.Wallet < info.SeedCost {
			return ErrInsufficientFunds
		}
		if _, err := tx.Exec(ctx, `
			UPDATE players SET wallet = wallet - $2, updated_at = now() WHERE player_id = $1
		`, playerID, info.SeedCost); err != nil {
			return err
		}
		now := s.now()
		matures := now.Add(info.Maturity)
		if _, err := tx.Exec(ctx, `
			UPDATE plots
			SET crop = $3, planted_at = $4, matures_at = $5, ripe_notified = false
			WHERE player_id = $1 AND plot = $2
		`, playerID, plot, crop, now, matures); err != nil {
			return err
		}
		out = PlotView{Plot: plot, Crop: crop, PlantedAt: &now, MaturesAt: &matures}
		return nil
	})
	if err != nil {
		return PlotView{}, err
	}
	return out, nil
}

// HarvestAll clears every ripe plot in one transaction, crediting yields to
// inventory. Immature plots are untouched and reported pending with their
// remaining time. No reader ever observes a cleared plot without its yield.
func (s *Service) HarvestAll(ctx context.Context, playerID string) (HarvestResult, error) {
	var out HarvestResult
	var granted GrantResult
	err := s.withSerializableTx(ctx, func(tx pgx.Tx) error {
		out = HarvestResult{}
		granted = GrantResult{}
		if _, err := lockPlayerRowTx(ctx, tx, playerID); err != nil {
			return err
		}
		rows, err := tx.Query(ctx, `
			SELECT plot, crop, matures_at
			FROM plots
			WHERE player_id = $1 AND crop IS NOT NULL
			ORDER BY plot
			FOR UPDATE
		`, playerID)
		if err != nil {
			return err
		}
		type planted struct {
			plot    int32
			crop    string
			matures time.Time
		}
		var all []planted
		for rows.Next() {
			var p planted
			if err := rows.Scan(&p.plot, &p.crop, &p.matures); err != nil {
				rows.Close()
				return err
			}
			all = append(all, p)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}

		now := s.now()
		var totalXP int64
		for _, p := range all {
			res := HarvestPlotResult{Plot: p.plot, Crop: p.crop}
			if now.Before(p.matures) {
				res.Remaining = p.matures.Sub(now)
				out.Plots = append(out.Plots, res)
				continue
			}
			info, ok := Crops[p.crop]
			if !ok {
				return fmt.Errorf("%w: %s", ErrUnknownCrop, p.crop)
			}
			qty := s.randBetween(info.YieldMin, info.YieldMax)
			if err := creditItemTx(ctx, tx, playerID, info.ItemKey, int64(qty)); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, `
				UPDATE plots
				SET crop = NULL, planted_at = NULL, matures_at = NULL, ripe_notified = false
				WHERE player_id = $1 AND plot = $2
			`, playerID, p.plot); err != nil {
				return err
			}
			totalXP += info.HarvestXP
			res.Harvested = true
			res.ItemKey = info.ItemKey
			res.Quantity = qty
			out.Plots = append(out.Plots, res)
		}
		if totalXP > 0 {
			var err error
			granted, err = s.grantTx(ctx, tx, GrantInput{
				PlayerID: playerID,
				XP:       totalXP,
				Reason:   "farming",
			})
			return err
		}
		return nil
	})
	if err != nil {
		return HarvestResult{}, err
	}
	out.XPGained = granted.XPGranted
	if granted.LeveledUp {
		s.notify(ctx, playerID, NoteLevelUp, map[string]any{
			"level":  granted.Level,
			"crates": granted.MilestoneCrates,
			"reason": "farming",
		})
	}
	return out, nil
}

// NotifyRipeCrops records a crop-ripe notification for plots that matured
// since the last sweep. Idempotent via the ripe_notified flag; run from the
// worker loop.
func (s *Service) NotifyRipeCrops(ctx context.Context) (int, error) {
	rows, err := s.db.Query(ctx, `
		UPDATE plots
		SET ripe_notified = true
		WHERE crop IS NOT NULL AND matures_at <= $1 AND NOT ripe_notified
		RETURNING player_id, plot, crop
	`, s.now())
	if err != nil {
		return 0, err
	}
	defer rows.Close()
	type ripe struct {
		playerID string
		plot     int32
		crop     string
	}
	var ripened []ripe
	for rows.Next() {
		var r ripe
		if err := rows.Scan(&r.playerID, &r.plot, &r.crop); err != nil {
			return 0, err
		}
		ripened = append(ripened, r)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	for _, r := range ripened {
		s.notify(ctx, r.playerID, NoteCropRipe, map[string]any{"plot": r.plot, "crop": r.crop})
	}
	return len(ripened), nil
}
