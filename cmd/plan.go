package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/lehigh-university-libraries/poster-splitter/internal/config"
	"github.com/lehigh-university-libraries/poster-splitter/internal/document"
	"github.com/lehigh-university-libraries/poster-splitter/internal/images"
	"github.com/lehigh-university-libraries/poster-splitter/internal/layout"
	"github.com/lehigh-university-libraries/poster-splitter/internal/poster"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// planReport is what the plan command prints.
type planReport struct {
	Image     string             `yaml:"image"`
	Config    poster.Config      `yaml:"config"`
	Pages     int                `yaml:"pages"`
	Plan      layout.Plan        `yaml:"plan"`
	Placement document.Placement `yaml:"placement"`
}

func newPlanCmd() *cobra.Command {
	var flags posterFlags
	var saveConfig string

	cmd := &cobra.Command{
		Use:   "plan IMAGE",
		Short: "Show the tile grid for an image without rendering it",
		Long: `Reads only the dimensions of IMAGE and prints, as YAML, the tile grid,
scale factor and page placement that convert would use.

With --save-config the settings are also written to a YAML file that
convert and plan accept through --config.`,
		Example: `  poster-splitter plan photo.jpg --pages-across 3

  # Keep the settings for later runs
  poster-splitter plan photo.jpg --pages-across 3 --dpi 150 --save-config poster.yaml
  poster-splitter convert photo.jpg --config poster.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return err
			}
			if err := executePlan(cmd.Context(), cmd.OutOrStdout(), args[0], cfg); err != nil {
				return err
			}
			if saveConfig != "" {
				if err := config.Save(saveConfig, cfg); err != nil {
					return err
				}
				slog.Info("Saved poster settings", "path", saveConfig)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&saveConfig, "save-config", "", "Write the resolved settings to this YAML file")

	return cmd
}

func executePlan(ctx context.Context, w io.Writer, input string, cfg poster.Config) error {
	f, err := images.NewFetcher().Open(ctx, input)
	if err != nil {
		return err
	}
	defer f.Close()

	plan, err := poster.Plan(f, cfg)
	if err != nil {
		return err
	}

	report := planReport{
		Image:     input,
		Config:    cfg,
		Pages:     plan.Pages(),
		Plan:      plan,
		Placement: document.Place(plan.TileWidthPx, plan.TileHeightPx, cfg.MarginMM, cfg.DPI),
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&report); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return enc.Close()
}
