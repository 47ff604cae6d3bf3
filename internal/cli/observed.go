package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.ngs.io/tidecalc/internal/analysis"
	"go.ngs.io/tidecalc/internal/domain"
	"go.ngs.io/tidecalc/internal/jma"
)

type observedOptions struct {
	path    string
	station string
	from    string
	to      string
}

func (o *observedOptions) addFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&o.path, "observed", "", "JMA hourly file or URL")
	flags.StringVar(&o.station, "station", "", "JMA station code (e.g. TK)")
	flags.StringVar(&o.from, "from", "", "first day to use (YYYY-MM-DD, JST)")
	flags.StringVar(&o.to, "to", "", "last day to use (YYYY-MM-DD, JST)")
	cobra.CheckErr(cmd.MarkFlagRequired("observed"))
	cobra.CheckErr(cmd.MarkFlagRequired("station"))
}

// load reads the observations as UTC samples.
func (o *observedOptions) load(cmd *cobra.Command) ([]domain.Sample, error) {
	from, to, err := parseDateRange(o.from, o.to)
	if err != nil {
		return nil, err
	}

	records, err := jma.LoadStationRecordsFromPath(cmd.Context(), o.path, o.station)
	if err != nil {
		return nil, fmt.Errorf("failed to load observations: %w", err)
	}
	samples := jma.Samples(records, from, to)
	if len(samples) == 0 {
		return nil, fmt.Errorf("no valid hourly samples in the requested window")
	}
	log.Debug().Int("days", len(records)).Int("samples", len(samples)).Str("station", o.station).Msg("loaded observations")
	return samples, nil
}

// parseDateRange returns [from, to+1 day) in JST. Empty bounds stay zero.
func parseDateRange(fromStr, toStr string) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if fromStr != "" {
		from, err = time.ParseInLocation("2006-01-02", fromStr, jma.JSTLocation)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from: %w", err)
		}
	}
	if toStr != "" {
		to, err = time.ParseInLocation("2006-01-02", toStr, jma.JSTLocation)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to: %w", err)
		}
		to = to.Add(24 * time.Hour)
	}
	return from, to, nil
}

func newFitCmd() *cobra.Command {
	var (
		obs          observedOptions
		name         string
		constituents []string
		refLon       float64
		argument     string
		out          string
	)

	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit harmonic constants to observed hourly heights",
		Long: `fit solves for the mean level and the amplitude and phase lag of each
constituent by least squares and prints the resulting profile as JSON.
The profile can be used with --profile or dropped into PROFILE_DIR.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			samples, err := obs.load(cmd)
			if err != nil {
				return err
			}
			if name == "" {
				name = obs.station
			}

			cfg, err := analysis.Fit(samples, analysis.FitOptions{
				Name:                  name,
				Constituents:          constituents,
				ReferenceLongitudeDeg: refLon,
				ArgumentConvention:    argument,
			})
			if err != nil {
				return err
			}

			p, err := domain.NewProfile(cfg)
			if err != nil {
				return err
			}
			st, err := analysis.Compare(samples, p)
			if err != nil {
				return err
			}
			log.Info().Int("samples", st.N).Float64("rmse_cm", st.RMSECm).Msg("fit complete")

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}
				defer f.Close()
				w = f
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(cfg)
		},
	}

	obs.addFlags(cmd)
	flags := cmd.Flags()
	flags.StringVar(&name, "name", "", "profile name (default: station code)")
	flags.StringSliceVar(&constituents, "constituents", analysis.DefaultConstituents, "constituents to fit")
	flags.Float64Var(&refLon, "ref-lon", 0, "reference longitude shift in degrees (east positive)")
	flags.StringVar(&argument, "argument", "T", "argument convention: T or tau")
	flags.StringVar(&out, "out", "", "write the profile to this file instead of stdout")
	return cmd
}

func newCompareCmd(v *viper.Viper) *cobra.Command {
	var (
		obs    observedOptions
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare observed hourly heights with predictions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProfile(v)
			if err != nil {
				return err
			}
			samples, err := obs.load(cmd)
			if err != nil {
				return err
			}

			st, err := analysis.Compare(samples, p)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if asJSON {
				return json.NewEncoder(w).Encode(st)
			}
			fmt.Fprintf(w, "Paired points: %d\n", st.N)
			fmt.Fprintf(w, "Mean(observed-predicted) [cm]: %.1f\n", st.MeanOffsetCm)
			fmt.Fprintf(w, "RMSE around mean [cm]: %.1f\n", st.RMSECm)
			fmt.Fprintf(w, "Max residual [cm]: %.1f\n", st.MaxAbsCm)
			return nil
		},
	}

	obs.addFlags(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print statistics as JSON")
	return cmd
}
