package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func renderProfile(player string, out map[string]any) error {
	accent.Printf("\n== %s ==\n", player)
	fmt.Printf("Wallet:   %s\n", num(out["wallet"]))
	fmt.Printf("Bank:     %s / %s\n", num(out["bank"]), num(out["max_bank"]))
	fmt.Printf("Level:    %s (%s/%s XP)\n", num(out["level"]), num(out["level_xp"]), num(out["next_level_xp"]))
	fmt.Printf("Prestige: %s\n", num(out["prestige"]))
	fmt.Printf("Streak:   %s\n", num(out["daily_streak"]))

	if pets, ok := out["pets"].([]any); ok && len(pets) > 0 {
		fmt.Println()
		accent.Println("Pets")
		fmt.Printf("%-12s %-9s %12s %10s\n", "PET", "EQUIPPED", "ENERGY", "XP")
		for _, p := range pets {
			pet, _ := p.(map[string]any)
			equipped := "no"
			if pet["equipped"] == true {
				equipped = "yes"
			}
			fmt.Printf("%-12v %-9s %6s/%-5s %10s\n",
				pet["pet"], equipped, num(pet["energy"]), num(pet["max_energy"]), num(pet["xp"]))
		}
	}
	if skills, ok := out["skills"].([]any); ok && len(skills) > 0 {
		fmt.Println()
		accent.Println("Skills")
		for _, s := range skills {
			skill, _ := s.(map[string]any)
			fmt.Printf("%-12v %s points\n", skill["skill"], num(skill["points"]))
		}
	}
	if items, ok := out["items"].([]any); ok && len(items) > 0 {
		fmt.Println()
		accent.Println("Items")
		for _, i := range items {
			item, _ := i.(map[string]any)
			fmt.Printf("%-16v x%s\n", item["item"], num(item["quantity"]))
		}
	}
	fmt.Println()
	return nil
}

func renderFarm(out map[string]any) error {
	accent.Println("\n== FARM ==")
	plots, _ := out["plots"].([]any)
	if len(plots) == 0 {
		printInfo("No plots owned yet.")
	} else {
		fmt.Printf("%-6s %-12s %-8s %-24s\n", "PLOT", "CROP", "RIPE", "MATURES")
		for _, p := range plots {
			plot, _ := p.(map[string]any)
			crop, _ := plot["crop"].(string)
			if crop == "" {
				crop = "-"
			}
			ripe := "no"
			if plot["ripe"] == true {
				ripe = "yes"
			}
			matures := "-"
			if m, ok := plot["matures_at"].(string); ok {
				matures = m
			}
			fmt.Printf("%-6s %-12s %-8s %-24s\n", num(plot["plot"]), crop, ripe, matures)
		}
	}
	fmt.Printf("Next plot price: %s\n\n", num(out["next_plot_price"]))
	return nil
}

func renderHarvest(out map[string]any) error {
	plots, _ := out["plots"].([]any)
	if len(plots) == 0 {
		printInfo("Nothing is planted.")
		return nil
	}
	for _, p := range plots {
		plot, _ := p.(map[string]any)
		if plot["harvested"] == true {
			printSuccess(fmt.Sprintf("Plot %s: harvested %sx %v", num(plot["plot"]), num(plot["quantity"]), plot["item"]))
		} else {
			printInfo(fmt.Sprintf("Plot %s: %v still growing", num(plot["plot"]), plot["crop"]))
		}
	}
	return nil
}

func renderDive(out map[string]any) error {
	status, _ := out["status"].(string)
	header := strings.ToUpper(status)
	switch status {
	case "dead", "swept":
		danger.Printf("\n== DIVE: %s ==\n", header)
	case "near_death":
		warn.Printf("\n== DIVE: %s ==\n", header)
	default:
		accent.Printf("\n== DIVE: %s ==\n", header)
	}
	if msg, ok := out["message"].(string); ok && msg != "" {
		fmt.Println(msg)
	}
	fmt.Printf("Depth:   %sm\n", num(out["depth"]))
	fmt.Printf("Oxygen:  %s\n", num(out["oxygen"]))
	fmt.Printf("Pending: %s coins\n", num(out["pending_coins"]))
	if items, ok := out["pending_items"].(map[string]any); ok && len(items) > 0 {
		parts := make([]string, 0, len(items))
		for k, v := range items {
			parts = append(parts, fmt.Sprintf("%sx %s", num(v), k))
		}
		fmt.Printf("Items:   %s\n", strings.Join(parts, ", "))
	}
	if granted, ok := out["coins_granted"]; ok && num(granted) != "0" {
		printSuccess(fmt.Sprintf("Credited %s coins.", num(granted)))
	}
	fmt.Println()
	return nil
}

// num renders a JSON number without float exponent noise.
func num(v any) string {
	switch t := v.(type) {
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', 1, 64)
	case nil:
		return "0"
	default:
		return fmt.Sprintf("%v", t)
	}
}
