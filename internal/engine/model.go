package engine

import (
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	// Baselines restored by a prestige reset.
	BaselineWallet  = int64(0)
	BaselineBank    = int64(0)
	BaselineMaxBank = int64(500)

	// Level curve: requirement for level n is round(100 * 1.15^n) XP.
	levelCurveBase   = 100.0
	levelCurveFactor = 1.15
	maxLevel         = 500

	// Additive bonus per prestige level.
	PrestigeCoinBonus      = 0.25
	PrestigeXPBonus        = 0.25
	PrestigeBankGrowthRate = 0.5

	// Pet swap budget, in tenths of a swap. Equip or unequip costs half a
	// swap, a full swap costs one. Replenishes every window.
	SwapBudgetKey      = "pet_swaps"
	SwapBudgetCapacity = int32(50) // 5.0 swaps
	SwapCostHalf       = int32(5)
	SwapCostFull       = int32(10)
	SwapBudgetWindow   = 2 * time.Hour

	MaxEquippedPets = 3

	DailyCooldown    = 24 * time.Hour
	DailyStreakGrace = 48 * time.Hour
	DailyBaseReward  = int64(5_000)
	DailyStreakBonus = int64(1_000)

	HuntCooldown = 5 * time.Minute
	DiveCooldown = 90 * time.Second
)

var (
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientItems  = errors.New("insufficient items")
	ErrInsufficientEnergy = errors.New("pet has no energy left")
	ErrBankCapacity       = errors.New("bank capacity exceeded")
	ErrEquipSlotsFull     = errors.New("all equipped pet slots are full")
	ErrBudgetExhausted    = errors.New("no pet swaps remaining")
	ErrNotEquipped        = errors.New("pet is not equipped")
	ErrAlreadyEquipped    = errors.New("pet is already equipped")
	ErrPetNotFound        = errors.New("pet not discovered")
	ErrPlotOccupied       = errors.New("plot already has a crop planted")
	ErrPlotLocked         = errors.New("plot has not been purchased")
	ErrPlotNotOwned       = errors.New("plot is not owned by this player")
	ErrAlreadyDiving      = errors.New("a diving session is already active")
	ErrNotDiving          = errors.New("no active diving session")
	ErrNotEligible        = errors.New("prestige requirements not met")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrUnknownItem        = errors.New("unknown item")
	ErrUnknownCrop        = errors.New("unknown crop")
	ErrUnknownSkill       = errors.New("unknown skill")
	ErrUnknownPet         = errors.New("unknown pet")
	ErrNotFood            = errors.New("item is not pet food")
	ErrConflict           = errors.New("concurrent modification, please retry")
)

// CooldownActiveError reports a rate-gated action attempted before its
// cooldown expired.
type CooldownActiveError struct {
	Action    string
	Remaining time.Duration
}

func (e *CooldownActiveError) Error() string {
	return fmt.Sprintf("action %q is on cooldown for another %s", e.Action, e.Remaining.Round(time.Second))
}

// IsCooldownActive reports whether err is a CooldownActiveError, unwrapping
// as needed.
func IsCooldownActive(err error) (*CooldownActiveError, bool) {
	var ce *CooldownActiveError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// CoinMultiplier is the factor applied to positive coin grants.
func CoinMultiplier(prestige int32) float64 {
	return 1 + float64(prestige)*PrestigeCoinBonus
}

// XPMultiplier sums the additive bonus terms onto a 1.0 baseline. baseBonus
// and tempBonus come from the player row; serverBonus is supplied by the
// dispatcher for boosted servers.
func XPMultiplier(baseBonus, tempBonus, serverBonus float64, prestige int32) float64 {
	return 1 + baseBonus + tempBonus + serverBonus + float64(prestige)*PrestigeXPBonus
}

// BankGrowthMultiplier scales random bank-space growth.
func BankGrowthMultiplier(prestige int32) float64 {
	return 1 + float64(prestige)*PrestigeBankGrowthRate
}

func levelRequirement(level int) int64 {
	return int64(math.Round(levelCurveBase * math.Pow(levelCurveFactor, float64(level))))
}

// LevelForXP converts cumulative XP into (level, xp into level, xp required
// for the next level). Level is monotonic non-decreasing in XP.
func LevelForXP(xp int64) (level int, into int64, required int64) {
	for level < maxLevel {
		req := levelRequirement(level)
		if xp < req {
			return level, xp, req
		}
		xp -= req
		level++
	}
	return maxLevel, 0, 0
}

// PrestigeRewards returns the banknotes and crates granted for reaching the
// given prestige level.
func PrestigeRewards(newPrestige int32) (banknotes, crates int) {
	return 10 * int(newPrestige), int(newPrestige)
}

// DailyReward scales the daily claim with the current streak, capped so
// long streaks plateau.
func DailyReward(streak int32) int64 {
	if streak > 30 {
		streak = 30
	}
	return DailyBaseReward + int64(streak)*DailyStreakBonus
}

// DecayedEnergy computes a pet's live energy from its stored value and the
// time elapsed since the last write-back, floored at zero.
func DecayedEnergy(stored int32, lastFed, now time.Time, decayPerMinute float64) int32 {
	if stored <= 0 {
		return 0
	}
	elapsed := now.Sub(lastFed)
	if elapsed <= 0 {
		return stored
	}
	decayed := int32(math.Round(elapsed.Minutes() * decayPerMinute))
	if decayed >= stored {
		return 0
	}
	return stored - decayed
}

// PressureChance is the probability of dying from water pressure at the
// given depth. Zero at or above the 50m threshold, approaching 1 as depth
// grows. The resistance constant k would change with better gear.
func PressureChance(depth int) float64 {
	if depth <= diveDepthThreshold {
		return 0
	}
	const k = 0.46
	return -1/(0.02*math.Pow(float64(depth), k)+1) + 1
}

// PlotPrice is the cost of buying the n-th plot (zero-based).
func PlotPrice(owned int) int64 {
	return 5_000 + int64(owned)*2_500
}

// TrainingCost grows with accumulated skill points.
func TrainingCost(points int32) int64 {
	return 100 + int64(points)*50
}
