package engine

import "time"

type Profile struct {
	PlayerID    string        `json:"player_id"`
	Wallet      int64         `json:"wallet"`
	Bank        int64         `json:"bank"`
	MaxBank     int64         `json:"max_bank"`
	TotalXP     int64         `json:"total_xp"`
	Level       int           `json:"level"`
	LevelXP     int64         `json:"level_xp"`
	NextLevelXP int64         `json:"next_level_xp"`
	Prestige    int32         `json:"prestige"`
	Orbs        int64         `json:"orbs"`
	DailyStreak int32         `json:"daily_streak"`
	HP          int32         `json:"hp"`
	Stamina     int32         `json:"stamina"`
	Pets        []PetView     `json:"pets,omitempty"`
	Skills      []SkillView   `json:"skills,omitempty"`
	Items       []ItemView    `json:"items,omitempty"`
}

type ItemView struct {
	Item     string `json:"item"`
	Quantity int64  `json:"quantity"`
}

type SkillView struct {
	Skill  string `json:"skill"`
	Points int32  `json:"points"`
}

type PetView struct {
	Pet       string `json:"pet"`
	XP        int64  `json:"xp"`
	Equipped  bool   `json:"equipped"`
	Energy    int32  `json:"energy"`
	MaxEnergy int32  `json:"max_energy"`
}

type GrantInput struct {
	PlayerID    string
	Coins       int64
	XP          int64
	ServerBonus float64 // additive XP bonus contributed by the calling context
	Reason      string
}

type GrantResult struct {
	CoinsGranted int64 `json:"coins_granted"`
	XPGranted    int64 `json:"xp_granted"`
	Level        int   `json:"level"`
	LeveledUp    bool  `json:"leveled_up"`
	// Crates earned for milestone levels crossed by this grant.
	MilestoneCrates int `json:"milestone_crates,omitempty"`
	BankSpaceGrown  int64 `json:"bank_space_grown,omitempty"`
}

type BalanceResult struct {
	Wallet int64 `json:"wallet"`
	Bank   int64 `json:"bank"`
}

type PrestigeResult struct {
	Prestige  int32 `json:"prestige"`
	Banknotes int   `json:"banknotes"`
	Crates    int   `json:"crates"`
}

type DailyResult struct {
	Reward int64 `json:"reward"`
	Streak int32 `json:"streak"`
	Wallet int64 `json:"wallet"`
}

type TrainResult struct {
	Skill  string `json:"skill"`
	Points int32  `json:"points"`
	Cost   int64  `json:"cost"`
}

type ConsumeResult struct {
	Allowed   bool          `json:"allowed"`
	Remaining time.Duration `json:"remaining"`
}

type BudgetResult struct {
	Allowed         bool  `json:"allowed"`
	RemainingTenths int32 `json:"remaining_tenths"`
}

type SwapBudgetView struct {
	RemainingSwaps float64   `json:"remaining_swaps"`
	ReplenishesAt  time.Time `json:"replenishes_at"`
}

type HuntResult struct {
	Pet   string `json:"pet,omitempty"`
	Found bool   `json:"found"`
	// True when the catch was a duplicate, converted into pet XP.
	Duplicate bool  `json:"duplicate,omitempty"`
	XPGained  int64 `json:"xp_gained,omitempty"`
}

type FeedResult struct {
	Pet       string `json:"pet"`
	Energy    int32  `json:"energy"`
	MaxEnergy int32  `json:"max_energy"`
	Restored  int32  `json:"restored"`
}

type AbilityResult struct {
	Pet       string `json:"pet"`
	Energy    int32  `json:"energy"`
	CostPaid  int32  `json:"cost_paid"`
}

type PlotView struct {
	Plot      int32      `json:"plot"`
	Crop      string     `json:"crop,omitempty"`
	PlantedAt *time.Time `json:"planted_at,omitempty"`
	MaturesAt *time.Time `json:"matures_at,omitempty"`
	Ripe      bool       `json:"ripe"`
}

type FarmView struct {
	Plots     []PlotView `json:"plots"`
	NextPrice int64      `json:"next_plot_price"`
}

type HarvestPlotResult struct {
	Plot      int32         `json:"plot"`
	Crop      string        `json:"crop"`
	Harvested bool          `json:"harvested"`
	ItemKey   string        `json:"item,omitempty"`
	Quantity  int           `json:"quantity,omitempty"`
	Remaining time.Duration `json:"remaining,omitempty"`
}

type HarvestResult struct {
	Plots    []HarvestPlotResult `json:"plots"`
	XPGained int64               `json:"xp_gained,omitempty"`
}

// DiveStatus is the terminal or in-progress disposition of a diving step.
// Deaths and forfeitures are outcomes, not errors.
type DiveStatus string

const (
	DiveStatusDiving    DiveStatus = "diving"
	DiveStatusNearDeath DiveStatus = "near_death"
	DiveStatusSwept     DiveStatus = "swept"
	DiveStatusDead      DiveStatus = "dead"
	DiveStatusSurfaced  DiveStatus = "surfaced"
)

type DiveResult struct {
	SessionID    string         `json:"session_id"`
	Status       DiveStatus     `json:"status"`
	Depth        int            `json:"depth"`
	Oxygen       int            `json:"oxygen"`
	PendingCoins int64          `json:"pending_coins"`
	PendingItems map[string]int `json:"pending_items,omitempty"`
	FoundCoins   int64          `json:"found_coins,omitempty"`
	FoundItem    string         `json:"found_item,omitempty"`
	Message      string         `json:"message,omitempty"`
	// Populated on surface: coins actually credited after multipliers.
	CoinsGranted int64 `json:"coins_granted,omitempty"`
}

// Notification rows are append-only side effects relayed by an external
// delivery collaborator; the engine never reads them back.
const (
	NoteLevelUp   = "level_up"
	NoteNearDeath = "near_death"
	NoteDeath     = "death"
	NotePrestige  = "prestige"
	NoteCropRipe  = "crop_ripe"
)
