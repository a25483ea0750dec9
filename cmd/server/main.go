package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/partyjam/partyjam/config"
	"github.com/partyjam/partyjam/internal/server"
)

func main() {
	port := flag.String("port", "", "Server port (overrides config)")
	configPath := flag.String("config", "./config/config.yaml", "Path to config file")
	flag.Parse()

	// Local runs keep PORT and similar settings in a .env file
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded environment from .env")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Warn("no config file, using defaults", "path", *configPath, "error", err)
		cfg = config.Default()
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.Level(cfg.LogLevel)}))
	slog.SetDefault(logger)

	if *port == "" {
		*port = cfg.Server.Port
	}

	srv := server.New(cfg)
	slog.Info("Starting party jam API server", "port", *port)
	if err := srv.Start(*port); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
