package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is idempotent and applied at API startup. Player state is keyed by
// the chat platform's user id; every per-player table hangs off players so
// one row lock covers a player's whole partition.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS players (
		player_id     text PRIMARY KEY,
		wallet        bigint NOT NULL DEFAULT 0,
		bank          bigint NOT NULL DEFAULT 0,
		max_bank      bigint NOT NULL DEFAULT 500,
		exp           bigint NOT NULL DEFAULT 0,
		prestige      int NOT NULL DEFAULT 0,
		orbs          bigint NOT NULL DEFAULT 0,
		hp            int NOT NULL DEFAULT 100,
		stamina       int NOT NULL DEFAULT 100,
		defeated      text[] NOT NULL DEFAULT '{}',
		exp_multiplier  double precision NOT NULL DEFAULT 0,
		temp_multiplier double precision NOT NULL DEFAULT 0,
		daily_streak  int NOT NULL DEFAULT 0,
		last_daily    timestamptz,
		created_at    timestamptz NOT NULL DEFAULT now(),
		updated_at    timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS cooldowns (
		player_id  text NOT NULL REFERENCES players(player_id) ON DELETE CASCADE,
		action     text NOT NULL,
		expires_at timestamptz NOT NULL,
		PRIMARY KEY (player_id, action)
	)`,
	`CREATE TABLE IF NOT EXISTS budget_windows (
		player_id    text NOT NULL REFERENCES players(player_id) ON DELETE CASCADE,
		budget       text NOT NULL,
		window_start timestamptz NOT NULL,
		used_tenths  int NOT NULL,
		PRIMARY KEY (player_id, budget)
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		player_id text NOT NULL REFERENCES players(player_id) ON DELETE CASCADE,
		item      text NOT NULL,
		quantity  bigint NOT NULL DEFAULT 0,
		PRIMARY KEY (player_id, item)
	)`,
	`CREATE TABLE IF NOT EXISTS skills (
		player_id text NOT NULL REFERENCES players(player_id) ON DELETE CASCADE,
		skill     text NOT NULL,
		points    int NOT NULL DEFAULT 0,
		PRIMARY KEY (player_id, skill)
	)`,
	`CREATE TABLE IF NOT EXISTS pets (
		player_id  text NOT NULL REFERENCES players(player_id) ON DELETE CASCADE,
		pet        text NOT NULL,
		exp        bigint NOT NULL DEFAULT 0,
		equipped   boolean NOT NULL DEFAULT false,
		energy     int NOT NULL DEFAULT 0,
		max_energy int NOT NULL DEFAULT 0,
		last_fed   timestamptz NOT NULL DEFAULT now(),
		PRIMARY KEY (player_id, pet)
	)`,
	`CREATE TABLE IF NOT EXISTS plots (
		player_id     text NOT NULL REFERENCES players(player_id) ON DELETE CASCADE,
		plot          int NOT NULL,
		crop          text,
		planted_at    timestamptz,
		matures_at    timestamptz,
		ripe_notified boolean NOT NULL DEFAULT false,
		PRIMARY KEY (player_id, plot)
	)`,
	`CREATE INDEX IF NOT EXISTS plots_ripe_idx
		ON plots (matures_at)
		WHERE crop IS NOT NULL AND NOT ripe_notified`,
	`CREATE TABLE IF NOT EXISTS diving_sessions (
		player_id  text PRIMARY KEY REFERENCES players(player_id) ON DELETE CASCADE,
		session_id uuid NOT NULL,
		started_at timestamptz NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id         bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
		player_id  text NOT NULL,
		created_at timestamptz NOT NULL DEFAULT now(),
		type       text NOT NULL,
		payload    jsonb NOT NULL DEFAULT '{}'::jsonb,
		delivered  boolean NOT NULL DEFAULT false
	)`,
	`CREATE INDEX IF NOT EXISTS notifications_pending_idx
		ON notifications (player_id, created_at)
		WHERE NOT delivered`,
}

// Migrate applies the schema. Every statement is IF NOT EXISTS so repeated
// startups are no-ops.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
