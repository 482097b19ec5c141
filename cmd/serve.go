package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ecomm-asset-tools/syndicator/internal/config"
	"github.com/ecomm-asset-tools/syndicator/internal/events"
	"github.com/ecomm-asset-tools/syndicator/internal/handlers"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		listen     string
		source     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web interface for batch downloads",
		Long: `Starts the syndication web interface.

The operator page accepts an identifier file (or a single manual entry),
a retailer selection, and streams live progress while assets download.`,
		Example: `  # Start with config.yaml in the working directory
  syndicator serve

  # Custom config and listen address
  syndicator serve --config /etc/syndicator.yaml --listen :9000

  # Drive the browser portal instead of the catalog API
  syndicator serve --source portal`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			if source == "" {
				source = parseSourceFlagDefaults(cfg)
			}

			assetSource, workers, err := newSource(cfg, source)
			if err != nil {
				return err
			}
			broadcaster := events.NewBroadcaster()
			runner := newRunner(cfg, assetSource, workers, broadcaster)
			handler := handlers.New(runner, broadcaster, newRegistry(cfg), cfg.UploadDir)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/execute", handler.HandleExecute)
			mux.HandleFunc("/stop", handler.HandleStop)
			mux.HandleFunc("/status", handler.HandleStatus)
			mux.HandleFunc("/events", handler.HandleEvents)
			mux.HandleFunc("/healthcheck", handler.HandleHealthcheck)
			mux.HandleFunc("/", handler.HandleStatic)

			server := &http.Server{
				Addr:    cfg.Listen,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Syndicator interface available", "addr", cfg.Listen, "source", source)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				runner.Stop()
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to YAML config file")
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "Listen address (overrides config)")
	cmd.Flags().StringVarP(&source, "source", "s", "", "Asset source: api or portal")

	return cmd
}
