package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "poster-splitter",
		Short: "Split an image into printable A4 poster tiles",
		Long: `Poster splitter scales an image and cuts it into a grid of A4 pages,
one PDF page per tile, so the printed sheets can be assembled into a large poster.

Run it as a web interface with "serve" or convert files directly with "convert".`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			if verbose {
				slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newConvertCmd())
	cmd.AddCommand(newPlanCmd())

	return cmd
}
