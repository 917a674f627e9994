package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vorte-labs/vorte/internal/bot"
	"github.com/vorte-labs/vorte/internal/bus"
	"github.com/vorte-labs/vorte/internal/config"
	"github.com/vorte-labs/vorte/internal/httpapi"
	"github.com/vorte-labs/vorte/internal/llm"
	"github.com/vorte-labs/vorte/internal/lookup"
	"github.com/vorte-labs/vorte/internal/stats"
	"github.com/vorte-labs/vorte/pkg/state"
	"github.com/vorte-labs/vorte/pkg/transport"
	"github.com/vorte-labs/vorte/pkg/transport/memtransport"
)

var transportName string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot and its HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&transportName, "transport", "mem", "transport backend")
	return cmd
}

func transportFactory(name string) (transport.Factory, error) {
	switch name {
	case "mem":
		return memtransport.Factory(), nil
	default:
		return nil, fmt.Errorf("unknown transport %q", name)
	}
}

func runServe(parent context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	factory, err := transportFactory(transportName)
	if err != nil {
		return err
	}

	st, err := stats.Open(cfg.Session.StatsPath)
	if err != nil {
		return fmt.Errorf("open stats: %w", err)
	}
	defer st.Close()

	seed, err := state.LoadSettings(cfg.Session.SettingsPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	store := state.New(&state.FileSink{Path: cfg.Session.SettingsPath}, seed)

	var ai *llm.Client
	if cfg.AI.APIKey != "" {
		ai = llm.New(cfg.AI.APIKey, cfg.AI.Model)
	}
	var images *llm.ImageClient
	if cfg.AI.ImageKey != "" {
		images = llm.NewImages(cfg.AI.ImageKey, cfg.AI.ImageBaseURL)
	}
	var look *lookup.Client
	if cfg.Lookup.YouTubeKey != "" || cfg.Lookup.OMDbKey != "" {
		look = lookup.New(cfg.Lookup.YouTubeKey, cfg.Lookup.OMDbKey)
	}

	b := bus.New()
	bt, err := bot.New(bot.Options{
		Config:  cfg,
		Factory: factory,
		State:   store,
		Stats:   st,
		Bus:     b,
		AI:      ai,
		Images:  images,
		Lookup:  look,
		Version: version,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("vorte starting", "version", version, "name", cfg.Name, "transport", transportName)
	if err := bt.Start(ctx); err != nil {
		return err
	}
	defer bt.Stop()

	api := &httpapi.BotServer{
		Manager:   bt.Manager,
		Stats:     st,
		Bus:       b,
		BotName:   cfg.Name,
		Version:   version,
		StartedAt: bt.StartedAt(),
	}
	if err := httpapi.Serve(ctx, cfg.HTTP.BotAddr, api.Mux()); err != nil {
		return err
	}

	slog.Info("vorte stopped")
	return nil
}
