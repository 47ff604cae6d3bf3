package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/linechart/timeserieslinechart"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.ngs.io/tidecalc/internal/domain"
)

var (
	plotTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	plotInfoStyle  = lipgloss.NewStyle().Faint(true)
)

func newPlotCmd(v *viper.Viper) *cobra.Command {
	var (
		start    string
		duration float64
		step     float64
		width    int
		height   int
	)

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Draw the predicted tide as a terminal chart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if width < 10 || height < 3 {
				return fmt.Errorf("chart must be at least 10x3, got %dx%d", width, height)
			}
			p, err := loadProfile(v)
			if err != nil {
				return err
			}
			t0, err := parseInstant(start)
			if err != nil {
				return err
			}
			samples, err := domain.Series(t0, duration, step, p)
			if err != nil {
				return err
			}
			if len(samples) < 2 {
				return fmt.Errorf("need at least two samples to plot, got %d", len(samples))
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderChart(p.Name(), samples, width, height))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&start, "start", "now", "first instant (RFC3339)")
	flags.Float64Var(&duration, "duration", 24*60, "duration in minutes")
	flags.Float64Var(&step, "step", domain.DefaultStepMinutes, "step in minutes")
	flags.IntVar(&width, "width", 72, "chart width in columns")
	flags.IntVar(&height, "height", 12, "chart height in rows")
	return cmd
}

func renderChart(name string, samples []domain.Sample, width, height int) string {
	first, last := samples[0].Time, samples[len(samples)-1].Time
	minV, maxV := samples[0].HeightCm, samples[0].HeightCm
	for _, s := range samples[1:] {
		minV = min(minV, s.HeightCm)
		maxV = max(maxV, s.HeightCm)
	}
	lo, hi := minV, maxV
	if lo == hi {
		lo, hi = lo-1, hi+1
	}

	lc := timeserieslinechart.New(width, height)
	lc.SetTimeRange(first, last)
	lc.SetViewTimeAndYRange(first, last, lo, hi)

	// About one label per six hours.
	if labels := int(last.Sub(first).Hours() / 6); labels > 0 && labels < lc.GraphWidth() {
		lc.SetXStep(lc.GraphWidth() / labels)
	}
	lc.Model.XLabelFormatter = func(i int, v float64) string {
		return time.Unix(int64(v), 0).UTC().Format("15:04")
	}

	for _, s := range samples {
		lc.Push(timeserieslinechart.TimePoint{Time: s.Time, Value: s.HeightCm})
	}
	lc.DrawBraille()

	var b strings.Builder
	b.WriteString(plotTitleStyle.Render(fmt.Sprintf("%s: tide height (cm)", name)))
	b.WriteString("\n")
	b.WriteString(lc.View())
	b.WriteString("\n")
	b.WriteString(plotInfoStyle.Render(fmt.Sprintf("%s to %s UTC, min %.1f cm, max %.1f cm",
		first.Format("2006-01-02 15:04"), last.Format("2006-01-02 15:04"), minV, maxV)))
	return b.String()
}
