// Command townd runs the town simulation engine behind a websocket endpoint.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/talgya/ai-town/internal/agent"
	"github.com/talgya/ai-town/internal/archive"
	"github.com/talgya/ai-town/internal/config"
	"github.com/talgya/ai-town/internal/llm"
	"github.com/talgya/ai-town/internal/schedule"
	"github.com/talgya/ai-town/internal/server"
)

func main() {
	addr := flag.String("addr", ":8765", "websocket listen address")
	configPath := flag.String("config", "", "tuning YAML (defaults built in)")
	schedulesPath := flag.String("schedules", "", "preset schedule JSON for default-calendar runs")
	agentsDir := flag.String("agents-dir", "", "persona directory, one subdirectory per MBTI type")
	archiveDir := flag.String("archive", "", "run archive directory (empty disables archiving)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("load config", "path", *configPath, "err", err)
		os.Exit(1)
	}

	brain := llm.NewClient(cfg.LLM)
	if brain.Enabled() {
		logger.Info("model client ready", "endpoint", cfg.LLM.Endpoint, "model", cfg.LLM.Model)
	} else {
		logger.Warn("no model endpoint configured, running with canned fallbacks")
	}

	profiles := agent.LoadProfiles(*agentsDir)
	logger.Info("personas loaded", "count", len(profiles))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store *schedule.Store
	if *schedulesPath != "" {
		store, err = schedule.LoadPreset(*schedulesPath, logger.With("component", "schedule"))
		if err != nil {
			logger.Error("load schedules", "path", *schedulesPath, "err", err)
			os.Exit(1)
		}
		go func() {
			if err := store.Watch(ctx); err != nil && ctx.Err() == nil {
				logger.Warn("schedule watch stopped", "err", err)
			}
		}()
	}

	arch, err := archive.Open(*archiveDir, logger.With("component", "archive"))
	if err != nil {
		logger.Error("open archive", "dir", *archiveDir, "err", err)
		os.Exit(1)
	}
	defer arch.Close()

	srv := server.New(*addr, cfg, brain, profiles, store, arch, logger)
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
	logger.Info("townd stopped")
}
