package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type APIConfig struct {
	Addr             string
	DatabaseURL      string
	EngineToken      string
	StartupMigrate   bool
	StartupReapDives bool
}

type WorkerConfig struct {
	DatabaseURL   string
	RipeTickEvery time.Duration
}

type BotConfig struct {
	DiscordToken  string
	APIBaseURL    string
	EngineToken   string
	CommandPrefix string
}

type CLIConfig struct {
	APIBaseURL  string
	EngineToken string
}

func LoadAPIFromEnv() (APIConfig, error) {
	addr := os.Getenv("PORT")
	if addr != "" {
		if !strings.HasPrefix(addr, ":") {
			addr = ":" + addr
		}
	} else {
		addr = envDefault("HOARD_API_ADDR", ":8080")
	}

	cfg := APIConfig{
		Addr:             addr,
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		EngineToken:      strings.TrimSpace(os.Getenv("HOARD_ENGINE_TOKEN")),
		StartupMigrate:   envBoolDefault("HOARD_STARTUP_MIGRATE", true),
		StartupReapDives: envBoolDefault("HOARD_STARTUP_REAP_DIVES", true),
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.EngineToken == "" {
		return cfg, fmt.Errorf("HOARD_ENGINE_TOKEN is required")
	}
	return cfg, nil
}

func LoadWorkerFromEnv() (WorkerConfig, error) {
	cfg := WorkerConfig{
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RipeTickEvery: envDurationDefault("HOARD_RIPE_TICK_EVERY", time.Minute),
	}
	if cfg.DatabaseURL == "" {
		return cfg, fmt.Errorf("DATABASE_URL is required")
	}
	return cfg, nil
}

func LoadBotFromEnv() (BotConfig, error) {
	cfg := BotConfig{
		DiscordToken:  strings.TrimSpace(os.Getenv("DISCORD_TOKEN")),
		APIBaseURL:    strings.TrimRight(envDefault("HOARD_API_BASE_URL", "http://localhost:8080"), "/"),
		EngineToken:   strings.TrimSpace(os.Getenv("HOARD_ENGINE_TOKEN")),
		CommandPrefix: envDefault("HOARD_COMMAND_PREFIX", "%"),
	}
	if cfg.DiscordToken == "" {
		return cfg, fmt.Errorf("DISCORD_TOKEN is required")
	}
	if cfg.EngineToken == "" {
		return cfg, fmt.Errorf("HOARD_ENGINE_TOKEN is required")
	}
	return cfg, nil
}

func LoadCLIFromEnv() CLIConfig {
	return CLIConfig{
		APIBaseURL:  strings.TrimRight(envDefault("HOARD_API_BASE_URL", "http://localhost:8080"), "/"),
		EngineToken: strings.TrimSpace(os.Getenv("HOARD_ENGINE_TOKEN")),
	}
}

func envDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envDurationDefault(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envBoolDefault(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
