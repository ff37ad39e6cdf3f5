package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lehigh-university-libraries/poster-splitter/internal/images"
	"github.com/lehigh-university-libraries/poster-splitter/internal/poster"
	"github.com/spf13/cobra"
)

func newConvertCmd() *cobra.Command {
	var flags posterFlags
	var output string

	cmd := &cobra.Command{
		Use:   "convert IMAGE",
		Short: "Convert an image file into a poster PDF",
		Long: `Scales IMAGE to the requested number of A4 pages across, splits it into
page-sized tiles and writes one PDF page per tile in row-major order.
IMAGE is a local path or an http(s) URL.

Supported input formats: PNG, JPEG, GIF, BMP, TIFF and WebP.`,
		Example: `  # Two pages across with the default 10 mm margin at 300 dpi
  poster-splitter convert photo.jpg

  # Four pages across at 150 dpi into a chosen file
  poster-splitter convert photo.jpg --pages-across 4 --dpi 150 -o wall.pdf

  # Read settings from a YAML file
  poster-splitter convert photo.jpg --config poster.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			if output == "" {
				output = fmt.Sprintf("poster-%s.pdf", time.Now().Format("20060102-150405"))
			}
			return executeConvert(cmd.Context(), args[0], output, cfg)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output PDF path (default poster-<timestamp>.pdf)")

	return cmd
}

func executeConvert(ctx context.Context, input, output string, cfg poster.Config) error {
	// Fail on bad settings before touching any file.
	if err := cfg.Validate(); err != nil {
		return err
	}

	in, err := images.NewFetcher().Open(ctx, input)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	start := time.Now()
	plan, err := poster.Write(out, in, cfg)
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("failed to close output file: %w", closeErr)
	}
	if err != nil {
		_ = os.Remove(output)
		return err
	}

	slog.Info("Poster written",
		"input", input,
		"output", output,
		"pages", plan.Pages(),
		"rows", plan.Rows,
		"cols", plan.Cols,
		"duration", time.Since(start),
	)
	return nil
}
