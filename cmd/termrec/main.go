package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/user/termrec/internal/api"
	"github.com/user/termrec/internal/config"
	"github.com/user/termrec/internal/db"
	"github.com/user/termrec/internal/pty"
	"github.com/user/termrec/internal/recorder"
	"github.com/user/termrec/internal/server"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	shell, err := cfg.ShellArgv()
	if err != nil {
		slog.Error("invalid shell configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	svc := recorder.New(pty.NewRegistry(), database.SQL(), shell, cfg.WorkDir, slog.Default())
	defer func() {
		if err := svc.Close(context.Background()); err != nil {
			slog.Warn("failed to close active session", "error", err)
		}
	}()

	srv := server.New(cfg, api.NewRouter(svc))
	if err := srv.Start(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
