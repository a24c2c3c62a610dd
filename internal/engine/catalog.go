package engine

import "time"

// Static catalog metadata. Content values are placeholders for a real item
// economy; the engine only depends on the shape (rarities, categories,
// durations, weights), never on the specific entries.

type Rarity int

const (
	RarityCommon Rarity = iota
	RarityUncommon
	RarityRare
	RarityEpic
	RarityLegendary
	RarityMythic
)

type ItemCategory string

const (
	CategoryTool        ItemCategory = "tool"
	CategoryFood        ItemCategory = "food"
	CategoryCrate       ItemCategory = "crate"
	CategoryCollectible ItemCategory = "collectible"
	CategoryCrop        ItemCategory = "crop"
	CategoryMisc        ItemCategory = "misc"
)

type ItemInfo struct {
	Key      string
	Name     string
	Category ItemCategory
	Rarity   Rarity
	// Energy restored per unit when fed to a pet; zero for non-food.
	FeedEnergy int32
}

const (
	ItemLifesaver = "lifesaver"
	ItemBanknote  = "banknote"
	ItemCrate     = "crate"
)

var Items = map[string]ItemInfo{
	ItemLifesaver: {Key: ItemLifesaver, Name: "Lifesaver", Category: CategoryTool, Rarity: RarityRare},
	ItemBanknote:  {Key: ItemBanknote, Name: "Banknote", Category: CategoryMisc, Rarity: RarityRare},
	ItemCrate:     {Key: ItemCrate, Name: "Crate", Category: CategoryCrate, Rarity: RarityUncommon},
	"padlock":     {Key: "padlock", Name: "Padlock", Category: CategoryTool, Rarity: RarityCommon},
	"key":         {Key: "key", Name: "Key", Category: CategoryTool, Rarity: RarityUncommon},
	"fishing_pole": {
		Key: "fishing_pole", Name: "Fishing Pole", Category: CategoryTool, Rarity: RarityUncommon,
	},
	"fish":        {Key: "fish", Name: "Fish", Category: CategoryFood, Rarity: RarityCommon, FeedEnergy: 50},
	"fish_bait":   {Key: "fish_bait", Name: "Fish Bait", Category: CategoryMisc, Rarity: RarityCommon},
	"crab":        {Key: "crab", Name: "Crab", Category: CategoryFood, Rarity: RarityCommon, FeedEnergy: 60},
	"shark":       {Key: "shark", Name: "Shark", Category: CategoryFood, Rarity: RarityRare, FeedEnergy: 250},
	"eel":         {Key: "eel", Name: "Eel", Category: CategoryFood, Rarity: RarityMythic, FeedEnergy: 1_000},
	"tomato":      {Key: "tomato", Name: "Tomato", Category: CategoryCrop, Rarity: RarityCommon, FeedEnergy: 20},
	"wheat":       {Key: "wheat", Name: "Wheat", Category: CategoryCrop, Rarity: RarityCommon, FeedEnergy: 15},
	"carrot":      {Key: "carrot", Name: "Carrot", Category: CategoryCrop, Rarity: RarityCommon, FeedEnergy: 20},
	"corn":        {Key: "corn", Name: "Corn", Category: CategoryCrop, Rarity: RarityUncommon, FeedEnergy: 25},
	"pumpkin":     {Key: "pumpkin", Name: "Pumpkin", Category: CategoryCrop, Rarity: RarityRare, FeedEnergy: 40},
	"gold_trophy": {Key: "gold_trophy", Name: "Gold Trophy", Category: CategoryCollectible, Rarity: RarityLegendary},
}

// prestigeExempt reports whether an item survives a prestige reset:
// collectibles, crates, and top-rarity items are kept.
func prestigeExempt(info ItemInfo) bool {
	return info.Category == CategoryCollectible || info.Category == CategoryCrate || info.Rarity == RarityMythic
}

// PrestigeKeepList returns the catalog keys that survive a prestige reset.
func PrestigeKeepList() []string {
	var keep []string
	for key, info := range Items {
		if prestigeExempt(info) {
			keep = append(keep, key)
		}
	}
	return keep
}

type CropInfo struct {
	Key      string
	Name     string
	ItemKey  string // inventory item credited on harvest
	Maturity time.Duration
	YieldMin int
	YieldMax int
	SeedCost int64
	// XP accrued per harvested plot, before multipliers.
	HarvestXP int64
}

var Crops = map[string]CropInfo{
	"wheat":   {Key: "wheat", Name: "Wheat", ItemKey: "wheat", Maturity: 30 * time.Minute, YieldMin: 1, YieldMax: 3, SeedCost: 50, HarvestXP: 10},
	"tomato":  {Key: "tomato", Name: "Tomato", ItemKey: "tomato", Maturity: 2 * time.Hour, YieldMin: 1, YieldMax: 3, SeedCost: 150, HarvestXP: 25},
	"carrot":  {Key: "carrot", Name: "Carrot", ItemKey: "carrot", Maturity: 4 * time.Hour, YieldMin: 2, YieldMax: 4, SeedCost: 250, HarvestXP: 40},
	"corn":    {Key: "corn", Name: "Corn", ItemKey: "corn", Maturity: 8 * time.Hour, YieldMin: 2, YieldMax: 5, SeedCost: 600, HarvestXP: 70},
	"pumpkin": {Key: "pumpkin", Name: "Pumpkin", ItemKey: "pumpkin", Maturity: 24 * time.Hour, YieldMin: 3, YieldMax: 6, SeedCost: 2_000, HarvestXP: 150},
}

type PetInfo struct {
	Key            string
	Name           string
	MaxEnergy      int32
	DecayPerMinute float64
	AbilityCost    int32
	// Relative weight when rolling a hunt catch.
	HuntWeight float64
}

var Pets = map[string]PetInfo{
	"dog":       {Key: "dog", Name: "Dog", MaxEnergy: 500, DecayPerMinute: 2, AbilityCost: 20, HuntWeight: 0.30},
	"cat":       {Key: "cat", Name: "Cat", MaxEnergy: 450, DecayPerMinute: 2, AbilityCost: 20, HuntWeight: 0.30},
	"bee":       {Key: "bee", Name: "Bee", MaxEnergy: 300, DecayPerMinute: 3, AbilityCost: 10, HuntWeight: 0.20},
	"panda":     {Key: "panda", Name: "Panda", MaxEnergy: 800, DecayPerMinute: 1.5, AbilityCost: 40, HuntWeight: 0.12},
	"armadillo": {Key: "armadillo", Name: "Armadillo", MaxEnergy: 900, DecayPerMinute: 1, AbilityCost: 50, HuntWeight: 0.07},
	"phoenix":   {Key: "phoenix", Name: "Phoenix", MaxEnergy: 2_000, DecayPerMinute: 0.5, AbilityCost: 100, HuntWeight: 0.01},
}

type SkillInfo struct {
	Key              string
	Name             string
	TrainingCooldown time.Duration
	MaxPoints        int32 // zero means unlimited
}

var Skills = map[string]SkillInfo{
	"farming":   {Key: "farming", Name: "Farming", TrainingCooldown: time.Hour},
	"fishing":   {Key: "fishing", Name: "Fishing", TrainingCooldown: time.Hour},
	"bartering": {Key: "bartering", Name: "Bartering", TrainingCooldown: 6 * time.Hour, MaxPoints: 50},
	"diving":    {Key: "diving", Name: "Diving", TrainingCooldown: 12 * time.Hour, MaxPoints: 25},
}

// diveLoot is the weighted table rolled on a surviving dive step.
var diveLoot = []struct {
	Key    string
	Weight float64
}{
	{"fish", 0.15},
	{"fish_bait", 0.15},
	{"crab", 0.15},
	{"shark", 0.15},
	{"fishing_pole", 0.1},
	{"padlock", 0.1},
	{ItemBanknote, 0.1},
	{"key", 0.098},
	{"eel", 0.002},
}
