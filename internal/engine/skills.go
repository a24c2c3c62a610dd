package engine

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TrainSkill spends coins to add a skill point, gated by the skill's
// training cooldown. Skill rows are created lazily on first training.
func (s *Service) TrainSkill(ctx context.Context, playerID, skill string) (TrainResult, error) {
	info, ok := Skills[skill]
	if !ok {
		return TrainResult{}, fmt.Errorf("%w: %s", ErrUnknownSkill, skill)
	}
	var out TrainResult
	err := s.withSerializableTx(ctx, func(tx pgx.Tx) error {
		if err := s.tryConsumeCooldown(ctx, tx, playerID, "train:"+skill, info.TrainingCooldown); err != nil {
			return err
		}
		p, err := lockPlayerRowTx(ctx, tx, playerID)
		if err != nil {
			return err
		}

		var points int32
		err = tx.QueryRow(ctx, `
			SELECT points FROM skills WHERE player_id = $1 AND skill = $2 FOR UPDATE
		`, playerID, skill).Scan(&points)
		if err != nil && err != pgx.ErrNoRows {
			return err
		}
		if info.MaxPoints > 0 && points >= info.MaxPoints {
			return fmt.Errorf("skill %s is already at maximum points", info.Name)
		}

		cost := TrainingCost(points)
		if p.Wallet < cost {
			return ErrInsufficientFunds
		}
		if _, err := tx.Exec(ctx, `
			UPDATE players SET wallet = wallet - $2, updated_at = now() WHERE player_id = $1
		`, playerID, cost); err != nil {
			return err
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO skills (player_id, skill, points)
			VALUES ($1, $2, 1)
			ON CONFLICT (player_id, skill) DO UPDATE
			SET points = skills.points + 1
			RETURNING points
		`, playerID, skill).Scan(&out.Points)
		if err != nil {
			return err
		}
		out.Skill = skill
		out.Cost = cost
		return nil
	})
	if err != nil {
		return TrainResult{}, err
	}
	return out, nil
}
