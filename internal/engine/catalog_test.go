package engine

import "testing"

func TestDiveLootReferencesCatalog(t *testing.T) {
	total := 0.0
	for _, e := range diveLoot {
		if _, ok := Items[e.Key]; !ok {
			t.Fatalf("dive loot entry %q is not in the item catalog", e.Key)
		}
		if e.Weight <= 0 {
			t.Fatalf("dive loot entry %q has non-positive weight", e.Key)
		}
		total += e.Weight
	}
	if total < 0.99 || total > 1.01 {
		t.Fatalf("dive loot weights sum to %v, want ~1", total)
	}
}

func TestCropsReferenceCatalog(t *testing.T) {
	for key, crop := range Crops {
		if _, ok := Items[crop.ItemKey]; !ok {
			t.Fatalf("crop %q yields unknown item %q", key, crop.ItemKey)
		}
		if crop.Maturity <= 0 {
			t.Fatalf("crop %q has non-positive maturity", key)
		}
		if crop.YieldMin < 1 || crop.YieldMax < crop.YieldMin {
			t.Fatalf("crop %q has bad yield range [%d, %d]", key, crop.YieldMin, crop.YieldMax)
		}
		if crop.HarvestXP <= 0 {
			t.Fatalf("crop %q grants no harvest XP", key)
		}
	}
}

func TestPetCatalog(t *testing.T) {
	for key, pet := range Pets {
		if pet.MaxEnergy <= 0 || pet.DecayPerMinute <= 0 {
			t.Fatalf("pet %q has bad energy config", key)
		}
		if pet.AbilityCost <= 0 || pet.AbilityCost > pet.MaxEnergy {
			t.Fatalf("pet %q ability cost %d out of range", key, pet.AbilityCost)
		}
		if pet.HuntWeight <= 0 {
			t.Fatalf("pet %q cannot be caught", key)
		}
	}
}

func TestPrestigeKeepList(t *testing.T) {
	keep := make(map[string]bool)
	for _, key := range PrestigeKeepList() {
		keep[key] = true
	}
	// Collectibles, crates, and top-rarity items survive a reset.
	for _, want := range []string{ItemCrate, "gold_trophy", "eel"} {
		if !keep[want] {
			t.Fatalf("%q should survive a prestige reset", want)
		}
	}
	for _, gone := range []string{"fish", "wheat", ItemLifesaver} {
		if keep[gone] {
			t.Fatalf("%q should be wiped on prestige", gone)
		}
	}
}

func TestFoodsHaveFeedEnergy(t *testing.T) {
	for key, item := range Items {
		if item.Category == CategoryFood && item.FeedEnergy <= 0 {
			t.Fatalf("food %q restores no energy", key)
		}
	}
}
