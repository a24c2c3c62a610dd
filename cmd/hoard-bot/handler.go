package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"hoard/internal/cli"

	"github.com/bwmarrin/discordgo"
)

type handler struct {
	log    *slog.Logger
	client *cli.Client
	prefix string
}

func (h *handler) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	content := strings.TrimSpace(m.Content)
	if !strings.HasPrefix(content, h.prefix) {
		return
	}
	fields := strings.Fields(strings.TrimPrefix(content, h.prefix))
	if len(fields) == 0 {
		return
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	reply, err := h.dispatch(ctx, m.Author.ID, cmd, args)
	if err != nil {
		reply = friendlyError(err)
	}
	if reply == "" {
		return
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
		h.log.Error("reply send failed", "channel", m.ChannelID, "err", err)
	}
}

func (h *handler) dispatch(ctx context.Context, player, cmd string, args []string) (string, error) {
	switch cmd {
	case "profile", "bal", "balance":
		out, err := h.client.Profile(ctx, player)
		if err != nil {
			return "", err
		}
		return renderProfile(out), nil
	case "daily":
		out, err := h.client.ClaimDaily(ctx, player)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Daily claimed: **%s** coins (streak %s).",
			num(out["reward"]), num(out["streak"])), nil
	case "dep", "deposit":
		amount, err := amountArg(args)
		if err != nil {
			return "", err
		}
		out, err := h.client.Deposit(ctx, player, amount)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Deposited. Wallet **%s**, bank **%s**.", num(out["wallet"]), num(out["bank"])), nil
	case "with", "withdraw":
		amount, err := amountArg(args)
		if err != nil {
			return "", err
		}
		out, err := h.client.Withdraw(ctx, player, amount)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Withdrawn. Wallet **%s**, bank **%s**.", num(out["wallet"]), num(out["bank"])), nil
	case "prestige":
		out, err := h.client.Prestige(ctx, player)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Prestige **%s**! Rewards: %s banknotes, %s crates.",
			num(out["prestige"]), num(out["banknotes"]), num(out["crates"])), nil
	case "train":
		if len(args) == 0 {
			return "Usage: train <skill>", nil
		}
		out, err := h.client.TrainSkill(ctx, player, args[0])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Trained %s to **%s** points for %s coins.",
			args[0], num(out["points"]), num(out["cost"])), nil
	case "hunt":
		out, err := h.client.Hunt(ctx, player)
		if err != nil {
			return "", err
		}
		if found, _ := out["found"].(bool); !found {
			return "You found nothing this time.", nil
		}
		if dup, _ := out["duplicate"].(bool); dup {
			return fmt.Sprintf("Another **%v**! It joins your %v, worth %s pet XP.",
				out["pet"], out["pet"], num(out["xp_gained"])), nil
		}
		return fmt.Sprintf("You caught a **%v**!", out["pet"]), nil
	case "equip":
		if len(args) == 0 {
			return "Usage: equip <pet>", nil
		}
		out, err := h.client.EquipPet(ctx, player, args[0])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Equipped %s. Swaps left: **%s**.", args[0], num(out["remaining_swaps"])), nil
	case "unequip":
		if len(args) == 0 {
			return "Usage: unequip <pet>", nil
		}
		out, err := h.client.UnequipPet(ctx, player, args[0])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Unequipped %s. Swaps left: **%s**.", args[0], num(out["remaining_swaps"])), nil
	case "swap":
		if len(args) < 2 {
			return "Usage: swap <pet out> <pet in>", nil
		}
		out, err := h.client.SwapPets(ctx, player, args[0], args[1])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Swapped %s for %s. Swaps left: **%s**.", args[0], args[1], num(out["remaining_swaps"])), nil
	case "feed":
		if len(args) < 2 {
			return "Usage: feed <pet> <food> [qty]", nil
		}
		qty := int64(1)
		if len(args) >= 3 {
			if v, err := strconv.ParseInt(args[2], 10, 64); err == nil && v > 0 {
				qty = v
			}
		}
		out, err := h.client.FeedPet(ctx, player, args[0], map[string]int64{args[1]: qty})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Fed %s: energy **%s/%s**.", args[0], num(out["energy"]), num(out["max_energy"])), nil
	case "ability":
		if len(args) == 0 {
			return "Usage: ability <pet>", nil
		}
		out, err := h.client.UsePetAbility(ctx, player, args[0])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s used its ability for %s energy (%s left).",
			args[0], num(out["cost_paid"]), num(out["energy"])), nil
	case "farm":
		out, err := h.client.Farm(ctx, player)
		if err != nil {
			return "", err
		}
		return renderFarm(out), nil
	case "buyplot":
		farm, err := h.client.Farm(ctx, player)
		if err != nil {
			return "", err
		}
		plots, _ := farm["plots"].([]any)
		out, err := h.client.BuyPlot(ctx, player, int32(len(plots)))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Plot purchased. Next plot costs **%s** coins.", num(out["next_plot_price"])), nil
	case "plant":
		if len(args) < 2 {
			return "Usage: plant <plot> <crop>", nil
		}
		plot, err := strconv.ParseInt(args[0], 10, 32)
		if err != nil {
			return "Usage: plant <plot> <crop>", nil
		}
		out, err := h.client.Plant(ctx, player, int32(plot), args[1])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Planted %s on plot %d. Ripe at %v.", args[1], plot, out["matures_at"]), nil
	case "harvest":
		out, err := h.client.HarvestAll(ctx, player)
		if err != nil {
			return "", err
		}
		return renderHarvest(out), nil
	case "dive":
		out, err := h.client.StartDive(ctx, player)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%v Oxygen: **%s**.", out["message"], num(out["oxygen"])), nil
	case "deeper":
		out, err := h.client.DiveDeeper(ctx, player)
		if err != nil {
			return "", err
		}
		return renderDiveStep(out), nil
	case "surface":
		out, err := h.client.Surface(ctx, player)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%v Credited **%s** coins.", out["message"], num(out["coins_granted"])), nil
	case "help":
		return "Commands: profile daily dep with prestige train hunt equip unequip swap feed ability farm buyplot plant harvest dive deeper surface", nil
	default:
		return "", nil
	}
}

func amountArg(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("an amount is required")
	}
	v, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("amount must be a positive whole number")
	}
	return v, nil
}

func renderProfile(out map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Wallet:** %s  **Bank:** %s/%s\n", num(out["wallet"]), num(out["bank"]), num(out["max_bank"]))
	fmt.Fprintf(&b, "**Level:** %s (%s/%s XP)  **Prestige:** %s\n",
		num(out["level"]), num(out["level_xp"]), num(out["next_level_xp"]), num(out["prestige"]))
	if pets, ok := out["pets"].([]any); ok && len(pets) > 0 {
		b.WriteString("**Pets:** ")
		parts := make([]string, 0, len(pets))
		for _, p := range pets {
			pet, _ := p.(map[string]any)
			tag := fmt.Sprintf("%v (%s/%s)", pet["pet"], num(pet["energy"]), num(pet["max_energy"]))
			if eq, _ := pet["equipped"].(bool); eq {
				tag = "⭐" + tag
			}
			parts = append(parts, tag)
		}
		b.WriteString(strings.Join(parts, ", "))
	}
	return b.String()
}

func renderFarm(out map[string]any) string {
	plots, _ := out["plots"].([]any)
	if len(plots) == 0 {
		return fmt.Sprintf("No plots yet. First one costs **%s** coins.", num(out["next_plot_price"]))
	}
	var b strings.Builder
	for _, p := range plots {
		plot, _ := p.(map[string]any)
		crop, _ := plot["crop"].(string)
		switch {
		case crop == "":
			fmt.Fprintf(&b, "Plot %s: empty\n", num(plot["plot"]))
		case plot["ripe"] == true:
			fmt.Fprintf(&b, "Plot %s: **%s ready!**\n", num(plot["plot"]), crop)
		default:
			fmt.Fprintf(&b, "Plot %s: %s growing\n", num(plot["plot"]), crop)
		}
	}
	fmt.Fprintf(&b, "Next plot: **%s** coins", num(out["next_plot_price"]))
	return b.String()
}

func renderHarvest(out map[string]any) string {
	plots, _ := out["plots"].([]any)
	if len(plots) == 0 {
		return "Nothing is planted."
	}
	var harvested, pending []string
	for _, p := range plots {
		plot, _ := p.(map[string]any)
		if plot["harvested"] == true {
			harvested = append(harvested, fmt.Sprintf("%sx %v", num(plot["quantity"]), plot["item"]))
		} else {
			pending = append(pending, fmt.Sprintf("%v", plot["crop"]))
		}
	}
	var b strings.Builder
	if len(harvested) > 0 {
		fmt.Fprintf(&b, "Harvested: **%s**.", strings.Join(harvested, ", "))
	}
	if len(pending) > 0 {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "Still growing: %s.", strings.Join(pending, ", "))
	}
	return b.String()
}

func renderDiveStep(out map[string]any) string {
	status, _ := out["status"].(string)
	switch status {
	case "diving":
		msg := fmt.Sprintf("Depth **%sm**, oxygen **%s**. Found **%s** coins (pending: %s).",
			num(out["depth"]), num(out["oxygen"]), num(out["found_coins"]), num(out["pending_coins"]))
		if item, ok := out["found_item"].(string); ok && item != "" {
			msg += fmt.Sprintf(" You also grabbed a **%s**!", item)
		}
		return msg
	default:
		return fmt.Sprintf("%v", out["message"])
	}
}

// num renders a JSON number without the float exponent noise.
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

func friendlyError(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, `"error":"`); i >= 0 {
		rest := msg[i+len(`"error":"`):]
		if j := strings.Index(rest, `"`); j > 0 {
			return "⚠️ " + rest[:j]
		}
	}
	return "⚠️ " + msg
}
