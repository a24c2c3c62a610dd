package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"hoard/internal/cli"
	"hoard/internal/config"

	"github.com/bwmarrin/discordgo"
)

// The bot is a dumb dispatcher: it parses prefix commands, calls the engine
// API on behalf of the message author, and formats whatever comes back. All
// game rules live server-side.

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadBotFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	client := cli.NewClient(cfg.APIBaseURL, cfg.EngineToken)

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		logger.Error("discord session failed", "err", err)
		os.Exit(1)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	h := &handler{
		log:    logger,
		client: client,
		prefix: cfg.CommandPrefix,
	}
	session.AddHandler(h.onMessage)

	if err := session.Open(); err != nil {
		logger.Error("discord connect failed", "err", err)
		os.Exit(1)
	}
	defer session.Close()

	logger.Info("hoard bot connected", "prefix", cfg.CommandPrefix)
	<-ctx.Done()
	logger.Info("hoard bot shutdown")
}
