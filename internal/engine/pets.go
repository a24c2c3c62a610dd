package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Pet rows store (energy, last_fed); live energy is derived from elapsed
// time and written back opportunistically whenever a row is touched, so
// decay compounds from a correct baseline without any background process.

type petRow struct {
	XP        int64
	Equipped  bool
	Energy    int32
	MaxEnergy int32
	LastFed   time.Time
}

func lockPetTx(ctx context.Context, tx pgx.Tx, playerID, pet string) (petRow, error) {
	var p petRow
	err := tx.QueryRow(ctx, `
		SELECT exp, equipped, energy, max_energy, last_fed
		FROM pets
		WHERE player_id = $1 AND pet = $2
		FOR UPDATE
	`, playerID, pet).Scan(&p.XP, &p.Equipped, &p.Energy, &p.MaxEnergy, &p.LastFed)
	if err == pgx.ErrNoRows {
		return p, fmt.Errorf("%w: %s", ErrPetNotFound, pet)
	}
	return p, err
}

func equippedCountTx(ctx context.Context, tx pgx.Tx, playerID string) (int, error) {
	var n int
	err := tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM pets WHERE player_id = $1 AND equipped
	`, playerID).Scan(&n)
	return n, err
}

// Hunt rolls for a new pet. A duplicate catch converts into XP for the pet
// already owned.
func (s *Service) Hunt(ctx context.Context, playerID string) (HuntResult, error) {
	var out HuntResult
	err := s.withSerializableTx(ctx, func(tx pgx.Tx) error {
		if err := s.tryConsumeCooldown(ctx, tx, playerID, "hunt", HuntCooldown); err != nil {
			return err
		}
		if _, err := lockPlayerRowTx(ctx, tx, playerID); err != nil {
			return err
		}

		// Roughly 40% of hunts come back empty-handed.
		if s.nextFloat() < 0.4 {
			out = HuntResult{Found: false}
			return nil
		}
		key := s.rollPet()
		info := Pets[key]

		tag, err := tx.Exec(ctx, `
			INSERT INTO pets (player_id, pet, max_energy, energy, last_fed)
			VALUES ($1, $2, $3, $3, $4)
			ON CONFLICT (player_id, pet) DO NOTHING
		`, playerID, key, info.MaxEnergy, s.now())
		if err != nil {
			return err
		}
		if tag.RowsAffected() > 0 {
			out = HuntResult{Found: true, Pet: key}
			return nil
		}
		xp := int64(s.randBetween(25, 75))
		if _, err := tx.Exec(ctx, `
			UPDATE pets SET exp = exp + $3 WHERE player_id = $1 AND pet = $2
		`, playerID, key, xp); err != nil {
			return err
		}
		out = HuntResult{Found: true, Pet: key, Duplicate: true, XPGained: xp}
		return nil
	})
	if err != nil {
		return HuntResult{}, err
	}
	return out, nil
}

func (s *Service) rollPet() string {
	var total float64
	for _, info := range Pets {
		total += info.HuntWeight
	}
	roll := s.nextFloat() * total
	for key, info := range Pets {
		roll -= info.HuntWeight
		if roll <= 0 {
			return key
		}
	}
	return "dog"
}

// Equip activates a pet's abilities. Costs half a swap from the shared
// budget; the 3-slot cap is enforced here, under the player's partition
// lock, never at storage time.
func (s *Service) Equip(ctx context.Context, playerID, pet string) (SwapBudgetView, error) {
	err := s.withSerializableTx(ctx, func(tx pgx.Tx) error {
		if _, err := lockPlayerRowTx(ctx, tx, playerID); err != nil {
			return err
		}
		row, err := lockPetTx(ctx, tx, playerID, pet)
		if err != nil {
			return err
		}
		if row.Equipped {
			return ErrAlreadyEquipped
		}
		n, err := equippedCountTx(ctx, tx, playerID)
		if err != nil {
			return err
		}
		if n >= MaxEquippedPets {
			return ErrEquipSlotsFull
		}
		res, err := s.tryConsumeBudget(ctx, tx, playerID, SwapBudgetKey, SwapCostHalf, SwapBudgetCapacity, SwapBudgetWindow)
		if err != nil {
			return err
		}
		if !res.Allowed {
			return ErrBudgetExhausted
		}
		return s.writePetStateTx(ctx, tx, playerID, pet, row, true)
	})
	if err != nil {
		return SwapBudgetView{}, err
	}
	return s.SwapBudget(ctx, playerID)
}

// Unequip deactivates a pet. Costs half a swap.
func (s *Service) Unequip(ctx context.Context, playerID, pet string) (SwapBudgetView, error) {
	err := s.withSerializableTx(ctx, func(tx pgx.Tx) error {
		if _, err := lockPlayerRowTx(ctx, tx, playerID); err != nil {
			return err
		}
		row, err := lockPetTx(ctx, tx, playerID, pet)
		if err != nil {
			return err
		}
		if !row.Equipped {
			return ErrNotEquipped
		}
		res, err := s.tryConsumeBudget(ctx, tx, playerID, SwapBudgetKey, SwapCostHalf, SwapBudgetCapacity, SwapBudgetWindow)
		if err != nil {
			return err
		}
		if !res.Allowed {
			return ErrBudgetExhausted
		}
		return s.writePetStateTx(ctx, tx, playerID, pet, row, false)
	})
	if err != nil {
		return SwapBudgetView{}, err
	}
	return s.SwapBudget(ctx, playerID)
}

// Swap unequips one pet and equips another as a single action for one full
// swap of budget. Fails whole: no partial swap is ever visible.
func (s *Service) Swap(ctx context.Context, playerID, petOut, petIn string) (SwapBudgetView, error) {
	if petOut == petIn {
		return SwapBudgetView{}, fmt.Errorf("%w: cannot swap a pet with itself", ErrAlreadyEquipped)
	}
	err := s.withSerializableTx(ctx, func(tx pgx.Tx) error {
		if _, err := lockPlayerRowTx(ctx, tx, playerID); err != nil {
			return err
		}
		outRow, err := lockPetTx(ctx, tx, playerID, petOut)
		if err != nil {
			return err
		}
		inRow, err := lockPetTx(ctx, tx, playerID, petIn)
		if err != nil {
			return err
		}
		if !outRow.Equipped {
			return ErrNotEquipped
		}
		if inRow.Equipped {
			return ErrAlreadyEquipped
		}
		res, err := s.tryConsumeBudget(ctx, tx, playerID, SwapBudgetKey, SwapCostFull, SwapBudgetCapacity, SwapBudgetWindow)
		if err != nil {
			return err
		}
		if !res.Allowed {
			return ErrBudgetExhausted
		}
		if err := s.writePetStateTx(ctx, tx, playerID, petOut, outRow, false); err != nil {
			return err
		}
		return s.writePetStateTx(ctx, tx, playerID, petIn, inRow, true)
	})
	if err != nil {
		return SwapBudgetView{}, err
	}
	return s.SwapBudget(ctx, playerID)
}

// writePetStateTx persists the equipped flag and opportunistically writes
// back the decayed energy baseline.
func (s *Service) writePetStateTx(ctx context.Context, tx pgx.Tx, playerID, pet string, row petRow, equipped bool) error {
	info, ok := Pets[pet]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPet, pet)
	}
	now := s.now()
	live := DecayedEnergy(row.Energy, row.LastFed, now, info.DecayPerMinute)
	_, err := tx.Exec(ctx, `
		UPDATE pets
		SET equipped = $3, energy = $4, last_fed = $5
		WHERE player_id = $1 AND pet = $2
	`, playerID, pet, equipped, live, now)
	return err
}

// Feed restores a pet's energy from food items. The inventory debit and the
// energy write commit together; if the player lacks any listed food the
// whole feed is rejected with no energy change.
func (s *Service) Feed(ctx context.Context, playerID, pet string, foods map[string]int64) (FeedResult, error) {
	if len(foods) == 0 {
		return FeedResult{}, fmt.Errorf("%w: no food given", ErrNotFood)
	}
	var restore int64
	for item, qty := range foods {
		info, ok := Items[item]
		if !ok {
			return FeedResult{}, fmt.Errorf("%w: %s", ErrUnknownItem, item)
		}
		if info.FeedEnergy <= 0 {
			return FeedResult{}, fmt.Errorf("%w: %s", ErrNotFood, item)
		}
		restore += int64(info.FeedEnergy) * qty
	}

	var out FeedResult
	err := s.withSerializableTx(ctx, func(tx pgx.Tx) error {
		if _, err := lockPlayerRowTx(ctx, tx, playerID); err != nil {
			return err
		}
		row, err := lockPetTx(ctx, tx, playerID, pet)
		if err != nil {
			return err
		}
		if !row.Equipped {
			return ErrNotEquipped
		}
		if err := debitItemsTx(ctx, tx, playerID, foods); err != nil {
			return err
		}
		info := Pets[pet]
		now := s.now()
		live := DecayedEnergy(row.Energy, row.LastFed, now, info.DecayPerMinute)
		next := live + int32(min64(restore, int64(row.MaxEnergy)))
		if next > row.MaxEnergy {
			next = row.MaxEnergy // excess is discarded
		}
		if _, err := tx.Exec(ctx, `
			UPDATE pets SET energy = $3, last_fed = $4 WHERE player_id = $1 AND pet = $2
		`, playerID, pet, next, now); err != nil {
			return err
		}
		out = FeedResult{Pet: pet, Energy: next, MaxEnergy: row.MaxEnergy, Restored: next - live}
		return nil
	})
	if err != nil {
		return FeedResult{}, err
	}
	return out, nil
}

// UseAbility debits a pet's energy for one ability invocation. The pet must
// be equipped and have enough live energy after decay.
func (s *Service) UseAbility(ctx context.Context, playerID, pet string) (AbilityResult, error) {
	info, ok := Pets[pet]
	if !ok {
		return AbilityResult{}, fmt.Errorf("%w: %s", ErrUnknownPet, pet)
	}
	var out AbilityResult
	err := s.withSerializableTx(ctx, func(tx pgx.Tx) error {
		row, err := lockPetTx(ctx, tx, playerID, pet)
		if err != nil {
			return err
		}
		if !row.Equipped {
			return ErrNotEquipped
		}
		now := s.now()
		live := DecayedEnergy(row.Energy, row.LastFed, now, info.DecayPerMinute)
		if live < info.AbilityCost {
			return ErrInsufficientEnergy
		}
		next := live - info.AbilityCost
		if _, err := tx.Exec(ctx, `
			UPDATE pets SET energy = $3, last_fed = $4 WHERE player_id = $1 AND pet = $2
		`, playerID, pet, next, now); err != nil {
			return err
		}
		out = AbilityResult{Pet: pet, Energy: next, CostPaid: info.AbilityCost}
		return nil
	})
	if err != nil {
		return AbilityResult{}, err
	}
	return out, nil
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
