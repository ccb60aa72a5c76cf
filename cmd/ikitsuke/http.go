package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/ikitsuke/internal/api"
	"github.com/HendryAvila/ikitsuke/internal/server"
)

var httpCmd = &cobra.Command{
	Use:   "http",
	Short: "Serve the JSON HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := server.NewApp(cmd.Context(), cfg, logger)
		if err != nil {
			return fmt.Errorf("creating app: %w", err)
		}
		defer cleanup()

		srv, err := api.New(a, api.Config{
			JWTSecret: cfg.HTTP.JWTSecret,
			TokenTTL:  cfg.HTTP.TokenTTL,
		}, logger)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Listen(cfg.HTTP.Addr) }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			logger.Info("shutting down")
			return srv.Shutdown()
		}
	},
}

func init() {
	httpCmd.Flags().String("addr", "", "listen address (default :8080)")
	rootCmd.AddCommand(httpCmd)
}
