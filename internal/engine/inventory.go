package engine

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Inventory rows hold (player, item, quantity). The engine only needs
// credit, debit, and count; catalog content and shop pricing live elsewhere.

func creditItemTx(ctx context.Context, tx pgx.Tx, playerID, item string, qty int64) error {
	if _, ok := Items[item]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, item)
	}
	if qty <= 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO items (player_id, item, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (player_id, item) DO UPDATE
		SET quantity = items.quantity + $3
	`, playerID, item, qty)
	return err
}

// debitItemsTx removes a batch of items all-or-nothing: any shortfall fails
// the statement, and the enclosing transaction rolls everything back.
func debitItemsTx(ctx context.Context, tx pgx.Tx, playerID string, batch map[string]int64) error {
	for item, qty := range batch {
		if qty <= 0 {
			continue
		}
		tag, err := tx.Exec(ctx, `
			UPDATE items
			SET quantity = quantity - $3
			WHERE player_id = $1 AND item = $2 AND quantity >= $3
		`, playerID, item, qty)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: %s x%d", ErrInsufficientItems, item, qty)
		}
	}
	return nil
}

func itemCountTx(ctx context.Context, tx pgx.Tx, playerID, item string) (int64, error) {
	var qty int64
	err := tx.QueryRow(ctx, `
		SELECT quantity FROM items WHERE player_id = $1 AND item = $2
	`, playerID, item).Scan(&qty)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	return qty, err
}

// ItemCount answers "has(player, item, qty)"-style queries for dispatchers.
func (s *Service) ItemCount(ctx context.Context, playerID, item string) (int64, error) {
	var qty int64
	err := s.db.QueryRow(ctx, `
		SELECT quantity FROM items WHERE player_id = $1 AND item = $2
	`, playerID, item).Scan(&qty)
	if err == pgx.ErrNoRows {
		return 0, nil
	}
	return qty, err
}
