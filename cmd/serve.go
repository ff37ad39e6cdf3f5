package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/poster-splitter/internal/config"
	"github.com/lehigh-university-libraries/poster-splitter/internal/handlers"
	"github.com/lehigh-university-libraries/poster-splitter/internal/poster"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var port string
	var secretKey string
	var maxUploadMB int64
	var maxMegapixels int64

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start web server for the poster upload form",
		Long: `Starts the poster splitter web interface on the specified port.

Upload an image in the browser, pick the number of pages across, the margin
and the print resolution, and download the poster as a PDF.

SECRET_KEY signs the session cookie used for error messages. PORT,
MAX_UPLOAD_MB and MAX_MEGAPIXELS are read from the environment (or a .env
file) when the flags are not given. FLASH_TTL and FLASH_LIMIT bound how
long and how many unread error messages are kept.`,
		Example: `  # Start server on default port 8000
  poster-splitter serve

  # Start server on custom port
  poster-splitter serve --port 3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := config.ServerFromEnv()
			if cmd.Flags().Changed("port") {
				settings.Port = port
			}
			if cmd.Flags().Changed("secret-key") {
				settings.SecretKey = secretKey
			}
			if cmd.Flags().Changed("max-upload-mb") {
				settings.MaxUploadBytes = maxUploadMB << 20
			}
			if cmd.Flags().Changed("max-megapixels") {
				settings.MaxPixels = maxMegapixels * 1_000_000
			}
			if settings.SecretKey == config.DefaultSecretKey {
				slog.Warn("Using the development secret key; set SECRET_KEY in production")
			}

			handler := handlers.New(settings)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/plan", handler.HandlePlan)
			mux.HandleFunc("/healthcheck", handler.HandleHealthcheck)
			mux.HandleFunc("/", handler.HandleIndex)

			addr := ":" + settings.Port
			server := &http.Server{
				Addr:              addr,
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Poster splitter available", "addr", addr, "url", "http://localhost"+addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
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

	cmd.Flags().StringVarP(&port, "port", "p", config.DefaultPort, "Port to listen on")
	cmd.Flags().StringVar(&secretKey, "secret-key", "", "Key used to sign session cookies (default $SECRET_KEY)")
	cmd.Flags().Int64Var(&maxUploadMB, "max-upload-mb", config.DefaultMaxUploadBytes>>20, "Largest accepted upload in MB")
	cmd.Flags().Int64Var(&maxMegapixels, "max-megapixels", poster.DefaultMaxPixels/1_000_000, "Largest decoded image or poster canvas in megapixels")

	return cmd
}
