package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.ngs.io/tidecalc/internal/adapter/store/fes"
	"go.ngs.io/tidecalc/internal/domain"
)

func parseInstant(s string) (time.Time, error) {
	if s == "" || s == "now" {
		return time.Now().UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q (expected RFC3339): %w", s, err)
	}
	return t.UTC(), nil
}

func newHeightCmd(v *viper.Viper) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "height",
		Short: "Print the tide height at one instant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProfile(v)
			if err != nil {
				return err
			}
			t, err := parseInstant(at)
			if err != nil {
				return err
			}

			h, err := domain.HeightAt(t, p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%.1f cm\n", t.Format(time.RFC3339), h)
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "now", "instant (RFC3339)")
	return cmd
}

type seriesOptions struct {
	start    string
	duration float64
	step     float64
	extrema  bool
	format   string
}

type seriesPoint struct {
	Time     string  `json:"time"`
	HeightCm float64 `json:"height_cm"`
}

type seriesOutput struct {
	Profile     string        `json:"profile"`
	Predictions []seriesPoint `json:"predictions"`
	Highs       []seriesPoint `json:"highs,omitempty"`
	Lows        []seriesPoint `json:"lows,omitempty"`
}

func newSeriesCmd(v *viper.Viper) *cobra.Command {
	opts := seriesOptions{}

	cmd := &cobra.Command{
		Use:   "series",
		Short: "Print heights at a fixed step",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProfile(v)
			if err != nil {
				return err
			}
			start, err := parseInstant(opts.start)
			if err != nil {
				return err
			}

			samples, err := domain.Series(start, opts.duration, opts.step, p)
			if err != nil {
				return err
			}
			log.Debug().Int("samples", len(samples)).Str("profile", p.Name()).Msg("series computed")

			out := seriesOutput{Profile: p.Name(), Predictions: toSeriesPoints(samples)}
			if opts.extrema {
				ex := domain.RefineExtrema(samples, domain.FindExtrema(samples))
				out.Highs = toSeriesPoints(ex.Highs)
				out.Lows = toSeriesPoints(ex.Lows)
			}
			return writeSeries(cmd.OutOrStdout(), opts.format, out)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.start, "start", "now", "first instant (RFC3339)")
	flags.Float64Var(&opts.duration, "duration", 24*60, "duration in minutes")
	flags.Float64Var(&opts.step, "step", domain.DefaultStepMinutes, "step in minutes")
	flags.BoolVar(&opts.extrema, "extrema", false, "also report high and low waters")
	flags.StringVar(&opts.format, "format", "text", "output format: text, csv or json")
	return cmd
}

func toSeriesPoints(samples []domain.Sample) []seriesPoint {
	points := make([]seriesPoint, len(samples))
	for i, s := range samples {
		points[i] = seriesPoint{
			Time:     s.Time.Format(time.RFC3339),
			HeightCm: math.Round(s.HeightCm*10) / 10,
		}
	}
	return points
}

func writeSeries(w io.Writer, format string, out seriesOutput) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)

	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"time", "height_cm", "kind"}); err != nil {
			return err
		}
		write := func(points []seriesPoint, kind string) error {
			for _, pt := range points {
				if err := cw.Write([]string{pt.Time, strconv.FormatFloat(pt.HeightCm, 'f', 1, 64), kind}); err != nil {
					return err
				}
			}
			return nil
		}
		for _, part := range []struct {
			points []seriesPoint
			kind   string
		}{{out.Predictions, "sample"}, {out.Highs, "high"}, {out.Lows, "low"}} {
			if err := write(part.points, part.kind); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()

	case "text":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, pt := range out.Predictions {
			fmt.Fprintf(tw, "%s\t%.1f\n", pt.Time, pt.HeightCm)
		}
		for _, pt := range out.Highs {
			fmt.Fprintf(tw, "HIGH\t%s\t%.1f\n", pt.Time, pt.HeightCm)
		}
		for _, pt := range out.Lows {
			fmt.Fprintf(tw, "LOW\t%s\t%.1f\n", pt.Time, pt.HeightCm)
		}
		return tw.Flush()

	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func newConstituentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "constituents",
		Short: "List the built-in constituent catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSPEED (deg/h)\tDOODSON\tDESCRIPTION")
			for _, c := range domain.AllConstituents() {
				fmt.Fprintf(tw, "%s\t%.7f\t%v\t%s\n", c.Name, c.SpeedDegPerHr(), c.Doodson, c.Description)
			}
			return tw.Flush()
		},
	}
}

func newExportGridCmd(v *viper.Viper) *cobra.Command {
	var (
		out    string
		region string
		taper  bool
		refLat float64
		refLon float64
	)

	cmd := &cobra.Command{
		Use:   "export-grid",
		Short: "Write the profile as FES-style NetCDF amplitude and phase grids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, ok := fes.Regions[region]
			if !ok {
				return fmt.Errorf("unknown region %q", region)
			}
			p, err := loadProfile(v)
			if err != nil {
				return err
			}

			var t *fes.Taper
			if taper {
				t = &fes.Taper{RefLat: refLat, RefLon: refLon}
			}

			written, err := fes.WriteProfileGrids(out, r, p, t)
			if err != nil {
				return err
			}
			for _, path := range written {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			log.Info().Int("files", len(written)).Str("dir", out).Msg("grids written")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&out, "out", "", "output directory")
	flags.StringVar(&region, "region", "japan", "export region: japan or global")
	flags.BoolVar(&taper, "taper", false, "vary constants smoothly around --ref-lat/--ref-lon")
	flags.Float64Var(&refLat, "ref-lat", 35.0, "taper reference latitude")
	flags.Float64Var(&refLon, "ref-lon", 139.0, "taper reference longitude")
	cobra.CheckErr(cmd.MarkFlagRequired("out"))
	return cmd
}
