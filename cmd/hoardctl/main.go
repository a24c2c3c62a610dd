package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	cl "hoard/internal/cli"
	"hoard/internal/config"

	"github.com/spf13/cobra"
)

// hoardctl is the operator's console: it drives the same engine API the
// chat bot does, with a pinned default player for repeated commands.

func main() {
	cfg := config.LoadCLIFromEnv()

	var player string
	root := &cobra.Command{
		Use:          "hoardctl",
		Short:        "Hoard engine operator console",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&player, "player", "", "player id (defaults to pinned session)")

	root.AddCommand(
		newUseCmd(),
		newForgetCmd(),
		newProfileCmd(&cfg, &player),
		newDailyCmd(&cfg, &player),
		newBankCmd(&cfg, &player),
		newPrestigeCmd(&cfg, &player),
		newTrainCmd(&cfg, &player),
		newGrantCmd(&cfg, &player),
		newPetCmd(&cfg, &player),
		newFarmCmd(&cfg, &player),
		newDiveCmd(&cfg, &player),
		newCooldownCmd(&cfg, &player),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(cfg *config.CLIConfig) *cl.Client {
	return cl.NewClient(cfg.APIBaseURL, cfg.EngineToken)
}

func resolvePlayer(flag *string) (string, error) {
	if p := strings.TrimSpace(*flag); p != "" {
		return p, nil
	}
	sess, err := cl.LoadSession()
	if err != nil {
		return "", fmt.Errorf("no player: pass --player or run `hoardctl use <player>`")
	}
	return sess.PlayerID, nil
}

func cmdContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func newUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <player>",
		Short: "Pin a default player for later commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cl.SaveSession(cl.Session{PlayerID: strings.TrimSpace(args[0])}); err != nil {
				return err
			}
			printSuccess("Pinned player " + args[0] + ".")
			return nil
		},
	}
}

func newForgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget",
		Short: "Clear the pinned player",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cl.ClearSession(); err != nil {
				return err
			}
			printSuccess("Session cleared.")
			return nil
		},
	}
}

func newProfileCmd(cfg *config.CLIConfig, player *string) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show a player's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolvePlayer(player)
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(cfg).Profile(ctx, p)
			if err != nil {
				return err
			}
			return renderProfile(p, out)
		},
	}
}

func newDailyCmd(cfg *config.CLIConfig, player *string) *cobra.Command {
	return &cobra.Command{
		Use:   "daily",
		Short: "Claim the daily reward",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolvePlayer(player)
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(cfg).ClaimDaily(ctx, p)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Daily claimed: %s coins (streak %s).", num(out["reward"]), num(out["streak"])))
			return nil
		},
	}
}

func newBankCmd(cfg *config.CLIConfig, player *string) *cobra.Command {
	bank := &cobra.Command{
		Use:   "bank",
		Short: "Move coins between wallet and bank",
	}
	bank.AddCommand(&cobra.Command{
		Use:   "deposit <amount>",
		Short: "Deposit wallet coins into the bank",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return balanceMove(cmd, cfg, player, args[0], true)
		},
	})
	bank.AddCommand(&cobra.Command{
		Use:   "withdraw <amount>",
		Short: "Withdraw bank coins into the wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return balanceMove(cmd, cfg, player, args[0], false)
		},
	})
	return bank
}

func balanceMove(cmd *cobra.Command, cfg *config.CLIConfig, player *string, raw string, deposit bool) error {
	p, err := resolvePlayer(player)
	if err != nil {
		return err
	}
	amount, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || amount <= 0 {
		return fmt.Errorf("amount must be a positive whole number")
	}
	ctx, cancel := cmdContext(cmd)
	defer cancel()
	client := newClient(cfg)
	var out map[string]any
	if deposit {
		out, err = client.Deposit(ctx, p, amount)
	} else {
		out, err = client.Withdraw(ctx, p, amount)
	}
	if err != nil {
		return err
	}
	printSuccess(fmt.Sprintf("Done. Wallet %s, bank %s.", num(out["wallet"]), num(out["bank"])))
	return nil
}

func newPrestigeCmd(cfg *config.CLIConfig, player *string) *cobra.Command {
	return &cobra.Command{
		Use:   "prestige",
		Short: "Reset progression for permanent multipliers",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolvePlayer(player)
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(cfg).Prestige(ctx, p)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Prestige %s. Rewards: %s banknotes, %s crates.",
				num(out["prestige"]), num(out["banknotes"]), num(out["crates"])))
			return nil
		},
	}
}

func newTrainCmd(cfg *config.CLIConfig, player *string) *cobra.Command {
	return &cobra.Command{
		Use:   "train <skill>",
		Short: "Spend coins to train a skill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolvePlayer(player)
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(cfg).TrainSkill(ctx, p, args[0])
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Trained %s to %s points for %s coins.", args[0], num(out["points"]), num(out["cost"])))
			return nil
		},
	}
}

func newGrantCmd(cfg *config.CLIConfig, player *string) *cobra.Command {
	var coins, xp int64
	var reason string
	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Grant coins and XP (operator action)",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolvePlayer(player)
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(cfg).Grant(ctx, p, coins, xp, 0, reason)
			if err != nil {
				return err
			}
			msg := fmt.Sprintf("Granted %s coins, %s XP (level %s).",
				num(out["coins_granted"]), num(out["xp_granted"]), num(out["level"]))
			if out["leveled_up"] == true {
				msg += " Level up!"
			}
			printSuccess(msg)
			return nil
		},
	}
	cmd.Flags().Int64Var(&coins, "coins", 0, "coins to grant (may be negative)")
	cmd.Flags().Int64Var(&xp, "xp", 0, "xp to grant")
	cmd.Flags().StringVar(&reason, "reason", "operator", "grant reason")
	return cmd
}

func newPetCmd(cfg *config.CLIConfig, player *string) *cobra.Command {
	pet := &cobra.Command{
		Use:   "pet",
		Short: "Pet commands",
	}
	pet.AddCommand(&cobra.Command{
		Use:   "hunt",
		Short: "Hunt for a new pet",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolvePlayer(player)
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(cfg).Hunt(ctx, p)
			if err != nil {
				return err
			}
			if out["found"] != true {
				printInfo("Nothing found this time.")
				return nil
			}
			if out["duplicate"] == true {
				printSuccess(fmt.Sprintf("Duplicate %v converted to %s pet XP.", out["pet"], num(out["xp_gained"])))
				return nil
			}
			printSuccess(fmt.Sprintf("Caught a %v!", out["pet"]))
			return nil
		},
	})
	pet.AddCommand(&cobra.Command{
		Use:   "equip <pet>",
		Short: "Equip a pet (costs half a swap)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return petBudgetAction(cmd, cfg, player, func(ctx context.Context, c *cl.Client, p string) (map[string]any, error) {
				return c.EquipPet(ctx, p, args[0])
			})
		},
	})
	pet.AddCommand(&cobra.Command{
		Use:   "unequip <pet>",
		Short: "Unequip a pet (costs half a swap)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return petBudgetAction(cmd, cfg, player, func(ctx context.Context, c *cl.Client, p string) (map[string]any, error) {
				return c.UnequipPet(ctx, p, args[0])
			})
		},
	})
	pet.AddCommand(&cobra.Command{
		Use:   "swap <out> <in>",
		Short: "Swap one equipped pet for another (one swap)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return petBudgetAction(cmd, cfg, player, func(ctx context.Context, c *cl.Client, p string) (map[string]any, error) {
				return c.SwapPets(ctx, p, args[0], args[1])
			})
		},
	})
	pet.AddCommand(&cobra.Command{
		Use:   "budget",
		Short: "Show the remaining swap budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			return petBudgetAction(cmd, cfg, player, func(ctx context.Context, c *cl.Client, p string) (map[string]any, error) {
				return c.SwapBudget(ctx, p)
			})
		},
	})
	pet.AddCommand(&cobra.Command{
		Use:   "ability <pet>",
		Short: "Use an equipped pet's ability",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolvePlayer(player)
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(cfg).UsePetAbility(ctx, p, args[0])
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("%s used its ability for %s energy (%s left).",
				args[0], num(out["cost_paid"]), num(out["energy"])))
			return nil
		},
	})
	pet.AddCommand(&cobra.Command{
		Use:   "feed <pet> <food> [qty]",
		Short: "Feed items to an equipped pet",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolvePlayer(player)
			if err != nil {
				return err
			}
			qty := int64(1)
			if len(args) == 3 {
				qty, err = strconv.ParseInt(args[2], 10, 64)
				if err != nil || qty <= 0 {
					return fmt.Errorf("quantity must be a positive whole number")
				}
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(cfg).FeedPet(ctx, p, args[0], map[string]int64{args[1]: qty})
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Fed %s: energy %s/%s.", args[0], num(out["energy"]), num(out["max_energy"])))
			return nil
		},
	})
	return pet
}

func petBudgetAction(cmd *cobra.Command, cfg *config.CLIConfig, player *string, fn func(context.Context, *cl.Client, string) (map[string]any, error)) error {
	p, err := resolvePlayer(player)
	if err != nil {
		return err
	}
	ctx, cancel := cmdContext(cmd)
	defer cancel()
	out, err := fn(ctx, newClient(cfg), p)
	if err != nil {
		return err
	}
	printSuccess(fmt.Sprintf("Swaps remaining: %s (replenishes %v).", num(out["remaining_swaps"]), out["replenishes_at"]))
	return nil
}

func newFarmCmd(cfg *config.CLIConfig, player *string) *cobra.Command {
	farm := &cobra.Command{
		Use:   "farm",
		Short: "Farm commands",
	}
	farm.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "List plots and their crops",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolvePlayer(player)
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(cfg).Farm(ctx, p)
			if err != nil {
				return err
			}
			return renderFarm(out)
		},
	})
	farm.AddCommand(&cobra.Command{
		Use:   "buy <plot>",
		Short: "Buy the next plot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolvePlayer(player)
			if err != nil {
				return err
			}
			plot, err := strconv.ParseInt(args[0], 10, 32)
			if err != nil || plot < 0 {
				return fmt.Errorf("invalid plot number")
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(cfg).BuyPlot(ctx, p, int32(plot))
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Plot %d purchased. Next costs %s coins.", plot, num(out["next_plot_price"])))
			return nil
		},
	})
	farm.AddCommand(&cobra.Command{
		Use:   "plant <plot> <crop>",
		Short: "Plant a crop",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolvePlayer(player)
			if err != nil {
				return err
			}
			plot, err := strconv.ParseInt(args[0], 10, 32)
			if err != nil || plot < 0 {
				return fmt.Errorf("invalid plot number")
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(cfg).Plant(ctx, p, int32(plot), args[1])
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Planted %s on plot %d. Ripe at %v.", args[1], plot, out["matures_at"]))
			return nil
		},
	})
	farm.AddCommand(&cobra.Command{
		Use:   "harvest",
		Short: "Harvest every ripe plot",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolvePlayer(player)
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(cfg).HarvestAll(ctx, p)
			if err != nil {
				return err
			}
			return renderHarvest(out)
		},
	})
	return farm
}

func newDiveCmd(cfg *config.CLIConfig, player *string) *cobra.Command {
	dive := &cobra.Command{
		Use:   "dive",
		Short: "Diving commands",
	}
	simple := func(use, short string, fn func(context.Context, *cl.Client, string) (map[string]any, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			RunE: func(cmd *cobra.Command, args []string) error {
				p, err := resolvePlayer(player)
				if err != nil {
					return err
				}
				ctx, cancel := cmdContext(cmd)
				defer cancel()
				out, err := fn(ctx, newClient(cfg), p)
				if err != nil {
					return err
				}
				return renderDive(out)
			},
		}
	}
	dive.AddCommand(simple("start", "Start a diving session", func(ctx context.Context, c *cl.Client, p string) (map[string]any, error) {
		return c.StartDive(ctx, p)
	}))
	dive.AddCommand(simple("deeper", "Dive one step deeper", func(ctx context.Context, c *cl.Client, p string) (map[string]any, error) {
		return c.DiveDeeper(ctx, p)
	}))
	dive.AddCommand(simple("surface", "Surface and collect the haul", func(ctx context.Context, c *cl.Client, p string) (map[string]any, error) {
		return c.Surface(ctx, p)
	}))
	dive.AddCommand(simple("status", "Show the live session", func(ctx context.Context, c *cl.Client, p string) (map[string]any, error) {
		return c.CurrentDive(ctx, p)
	}))
	return dive
}

func newCooldownCmd(cfg *config.CLIConfig, player *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cooldown <action>",
		Short: "Show the remaining cooldown for an action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolvePlayer(player)
			if err != nil {
				return err
			}
			ctx, cancel := cmdContext(cmd)
			defer cancel()
			out, err := newClient(cfg).Cooldown(ctx, p, args[0])
			if err != nil {
				return err
			}
			if out["active"] == true {
				printWarn(fmt.Sprintf("%s on cooldown: %ss remaining.", args[0], num(out["remaining_seconds"])))
				return nil
			}
			printSuccess(args[0] + " is ready.")
			return nil
		},
	}
}
