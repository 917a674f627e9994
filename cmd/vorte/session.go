package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vorte-labs/vorte/internal/config"
	"github.com/vorte-labs/vorte/internal/httpapi"
	"github.com/vorte-labs/vorte/internal/pairing"
)

func newSessionServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session-server",
		Short: "Run the standalone pairing service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSessionServer(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&transportName, "transport", "mem", "transport backend")
	return cmd
}

func runSessionServer(parent context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	factory, err := transportFactory(transportName)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	orch := pairing.New(factory, cfg.Session.TmpDir)
	defer orch.Close()
	go orch.Run(ctx)

	slog.Info("session server starting", "version", version, "tmp", cfg.Session.TmpDir)
	api := &httpapi.SessionServer{Orch: orch}
	if err := httpapi.Serve(ctx, cfg.HTTP.SessionAddr, api.Mux()); err != nil {
		return err
	}

	slog.Info("session server stopped")
	return nil
}
