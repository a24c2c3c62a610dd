package engine

import (
	"testing"
	"time"
)

func TestLevelForXP(t *testing.T) {
	cases := []struct {
		xp       int64
		level    int
		into     int64
		required int64
	}{
		{0, 0, 0, 100},
		{99, 0, 99, 100},
		{100, 1, 0, 115},
		{214, 1, 114, 115},
		{215, 2, 0, 132},
	}
	for _, tc := range cases {
		level, into, required := LevelForXP(tc.xp)
		if level != tc.level || into != tc.into || required != tc.required {
			t.Fatalf("LevelForXP(%d) = (%d, %d, %d), want (%d, %d, %d)",
				tc.xp, level, into, required, tc.level, tc.into, tc.required)
		}
	}
}

func TestLevelForXPMonotonic(t *testing.T) {
	prev := 0
	for xp := int64(0); xp <= 100_000; xp += 137 {
		level, _, _ := LevelForXP(xp)
		if level < prev {
			t.Fatalf("level decreased from %d to %d at xp=%d", prev, level, xp)
		}
		prev = level
	}
}

func TestMultipliers(t *testing.T) {
	if got := CoinMultiplier(0); got != 1.0 {
		t.Fatalf("CoinMultiplier(0) = %v, want 1.0", got)
	}
	if got := CoinMultiplier(4); got != 2.0 {
		t.Fatalf("CoinMultiplier(4) = %v, want 2.0", got)
	}
	if got := XPMultiplier(0, 0, 0, 0); got != 1.0 {
		t.Fatalf("XPMultiplier baseline = %v, want 1.0", got)
	}
	// Bonuses are additive, not compounding.
	if got := XPMultiplier(0.5, 0.25, 0.1, 2); got != 1.0+0.5+0.25+0.1+0.5 {
		t.Fatalf("XPMultiplier additive = %v", got)
	}
	if got := BankGrowthMultiplier(2); got != 2.0 {
		t.Fatalf("BankGrowthMultiplier(2) = %v, want 2.0", got)
	}
}

func TestDailyReward(t *testing.T) {
	cases := []struct {
		streak int32
		want   int64
	}{
		{1, 6_000},
		{10, 15_000},
		{30, 35_000},
		{45, 35_000}, // plateaus past 30
	}
	for _, tc := range cases {
		if got := DailyReward(tc.streak); got != tc.want {
			t.Fatalf("DailyReward(%d) = %d, want %d", tc.streak, got, tc.want)
		}
	}
}

func TestPrestigeRewards(t *testing.T) {
	banknotes, crates := PrestigeRewards(3)
	if banknotes != 30 || crates != 3 {
		t.Fatalf("PrestigeRewards(3) = (%d, %d), want (30, 3)", banknotes, crates)
	}
}

func TestDecayedEnergy(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		stored  int32
		elapsed time.Duration
		rate    float64
		want    int32
	}{
		{"no elapsed", 100, 0, 2, 100},
		{"clock skew", 100, -time.Hour, 2, 100},
		{"partial decay", 100, 10 * time.Minute, 2, 80},
		{"fully drained", 100, 2 * time.Hour, 2, 0},
		{"already empty", 0, time.Minute, 2, 0},
	}
	for _, tc := range cases {
		got := DecayedEnergy(tc.stored, base, base.Add(tc.elapsed), tc.rate)
		if got != tc.want {
			t.Fatalf("%s: DecayedEnergy = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestPressureChance(t *testing.T) {
	if got := PressureChance(0); got != 0 {
		t.Fatalf("PressureChance(0) = %v, want 0", got)
	}
	if got := PressureChance(diveDepthThreshold); got != 0 {
		t.Fatalf("PressureChance at threshold = %v, want 0", got)
	}
	prev := 0.0
	for depth := diveDepthThreshold + 1; depth <= 5000; depth += 50 {
		p := PressureChance(depth)
		if p <= 0 || p >= 1 {
			t.Fatalf("PressureChance(%d) = %v out of (0, 1)", depth, p)
		}
		if p < prev {
			t.Fatalf("PressureChance not monotonic at depth %d: %v < %v", depth, p, prev)
		}
		prev = p
	}
}

func TestPlotPrice(t *testing.T) {
	if got := PlotPrice(0); got != 5_000 {
		t.Fatalf("PlotPrice(0) = %d, want 5000", got)
	}
	if got := PlotPrice(3); got != 12_500 {
		t.Fatalf("PlotPrice(3) = %d, want 12500", got)
	}
}

func TestTrainingCost(t *testing.T) {
	if got := TrainingCost(0); got != 100 {
		t.Fatalf("TrainingCost(0) = %d, want 100", got)
	}
	if got := TrainingCost(4); got != 300 {
		t.Fatalf("TrainingCost(4) = %d, want 300", got)
	}
}

func TestCooldownActiveError(t *testing.T) {
	err := error(&CooldownActiveError{Action: "daily", Remaining: 90 * time.Second})
	ce, ok := IsCooldownActive(err)
	if !ok {
		t.Fatalf("IsCooldownActive missed a CooldownActiveError")
	}
	if ce.Action != "daily" || ce.Remaining != 90*time.Second {
		t.Fatalf("unexpected unwrap: %+v", ce)
	}
	if _, ok := IsCooldownActive(ErrConflict); ok {
		t.Fatalf("IsCooldownActive matched an unrelated error")
	}
}

func TestSwapBudgetArithmetic(t *testing.T) {
	// Five full swaps, or ten equip/unequip halves, per window.
	if SwapBudgetCapacity/SwapCostFull != 5 {
		t.Fatalf("budget capacity is %d full swaps, want 5", SwapBudgetCapacity/SwapCostFull)
	}
	if SwapCostFull != 2*SwapCostHalf {
		t.Fatalf("a full swap should cost exactly two halves")
	}
}
