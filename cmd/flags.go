package cmd

import (
	"github.com/lehigh-university-libraries/poster-splitter/internal/config"
	"github.com/lehigh-university-libraries/poster-splitter/internal/poster"
	"github.com/spf13/cobra"
)

// posterFlags binds the poster settings shared by convert and plan.
type posterFlags struct {
	configPath  string
	pagesAcross int
	marginMM    float64
	dpi         int
	orientation string
	megapixels  int64
}

func (f *posterFlags) register(cmd *cobra.Command) {
	defaults := poster.DefaultConfig()
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "YAML file with poster settings")
	cmd.Flags().IntVar(&f.pagesAcross, "pages-across", defaults.PagesAcross, "Number of A4 pages across the poster")
	cmd.Flags().Float64Var(&f.marginMM, "margin", defaults.MarginMM, "Page margin in millimeters")
	cmd.Flags().IntVar(&f.dpi, "dpi", defaults.DPI, "Print resolution in dots per inch (72 or higher)")
	cmd.Flags().StringVar(&f.orientation, "orientation", defaults.Orientation, "Page orientation (accepted, does not change the layout)")
	cmd.Flags().Int64Var(&f.megapixels, "max-megapixels", poster.DefaultMaxPixels/1_000_000, "Largest decoded image or poster canvas in megapixels")
}

// resolve starts from the config file, if any, and applies the flags the
// user set explicitly.
func (f *posterFlags) resolve(cmd *cobra.Command) (poster.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("pages-across") {
		cfg.PagesAcross = f.pagesAcross
	}
	if flags.Changed("margin") {
		cfg.MarginMM = f.marginMM
	}
	if flags.Changed("dpi") {
		cfg.DPI = f.dpi
	}
	if flags.Changed("orientation") {
		cfg.Orientation = f.orientation
	}
	if flags.Changed("max-megapixels") {
		cfg.MaxPixels = f.megapixels * 1_000_000
	}
	return cfg, nil
}
