// Package cli implements the tidecalc command line.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.ngs.io/tidecalc/internal/adapter/store/csv"
	"go.ngs.io/tidecalc/internal/adapter/store/file"
	"go.ngs.io/tidecalc/internal/domain"
)

// envPrefix prefixes environment variables bound to persistent flags,
// e.g. TIDECALC_PROFILE.
const envPrefix = "TIDECALC"

// NewRootCmd builds the tidecalc command tree. Each call gets its own viper
// instance.
func NewRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "tidecalc",
		Short: "Predict tide heights from harmonic constants",
		Long: `tidecalc predicts astronomical tide heights from a station's harmonic
constants. Without --profile the built-in default station is used.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initLogging(cmd, v.GetBool("verbose"))
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("profile", "", "profile file (.yaml, .yml, .json, .toml or .csv)")
	flags.String("nodal-table", "", "JSON nodal coefficient set overriding the built-in series")
	flags.BoolP("verbose", "v", false, "debug logging")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	cobra.CheckErr(v.BindPFlags(flags))

	rootCmd.AddCommand(
		newHeightCmd(v),
		newSeriesCmd(v),
		newConstituentsCmd(),
		newExportGridCmd(v),
		newFitCmd(),
		newCompareCmd(v),
		newPlotCmd(v),
	)
	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func initLogging(cmd *cobra.Command, verbose bool) {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()})
}

// loadProfile builds the profile selected by --profile and --nodal-table.
func loadProfile(v *viper.Viper) (*domain.Profile, error) {
	cfg := domain.DefaultProfile().Config()

	if path := v.GetString("profile"); path != "" {
		var err error
		cfg, err = readProfile(path)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("path", path).Str("name", cfg.Name).Msg("loaded profile")
	}

	if path := v.GetString("nodal-table"); path != "" {
		overrides, err := readNodalTable(path)
		if err != nil {
			return nil, err
		}
		cfg.NodalOverrides = mergeNodal(cfg.NodalOverrides, overrides)
		log.Debug().Str("path", path).Int("series", len(overrides)).Msg("loaded nodal table")
	}

	return domain.NewProfile(cfg)
}

func readProfile(path string) (domain.ProfileConfig, error) {
	ext := strings.ToLower(filepath.Ext(path))
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var (
		cfg domain.ProfileConfig
		err error
	)
	if ext == ".csv" {
		cfg, err = readCSVProfile(path)
		name = strings.TrimSuffix(name, "_constituents")
	} else {
		cfg, err = file.ReadProfileConfig(path)
	}
	if err != nil {
		return domain.ProfileConfig{}, err
	}
	if cfg.Name == "" {
		cfg.Name = name
	}
	return cfg, nil
}

func readCSVProfile(path string) (domain.ProfileConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.ProfileConfig{}, fmt.Errorf("failed to open profile: %w", err)
	}
	defer f.Close()
	return csv.ParseProfile(f)
}

func readNodalTable(path string) ([]domain.NodalSeriesConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open nodal table: %w", err)
	}
	defer f.Close()
	return domain.LoadNodalCoeffSet(f)
}

// mergeNodal replaces base entries that share an id with extra.
func mergeNodal(base, extra []domain.NodalSeriesConfig) []domain.NodalSeriesConfig {
	replaced := make(map[string]bool, len(extra))
	for _, e := range extra {
		replaced[domain.NormalizeConstituentID(e.ID)] = true
	}

	out := make([]domain.NodalSeriesConfig, 0, len(base)+len(extra))
	for _, b := range base {
		if !replaced[domain.NormalizeConstituentID(b.ID)] {
			out = append(out, b)
		}
	}
	return append(out, extra...)
}
