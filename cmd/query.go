package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/chadmayfield/wxlogd/internal/aggregate"
	"github.com/chadmayfield/wxlogd/internal/store"
	"github.com/chadmayfield/wxlogd/internal/weather"
	"github.com/spf13/cobra"
)

var (
	queryRange string
	queryJSON  bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Summarize stored readings for a time range",
	Long: `query reads the primary store directly and prints a summary of the
readings in a time range: temperature and rain statistics, per-period buckets
and the wind rose. With --json it prints the raw rows instead, in the same
shape as GET /get_data.`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryRange, "range", "today", "time range token (e.g. today, last7days, month=3, year=2024)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "print the raw readings as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	tok, err := weather.ParseToken(queryRange)
	if err != nil {
		return err
	}

	s, err := store.Open(cfg.Storage.Driver, cfg.DSN())
	if err != nil {
		return err
	}
	defer s.Close() //nolint:errcheck

	rows, span, err := weather.NewFetcher(s, loc).Fetch(context.Background(), tok)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if queryJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	rep, err := aggregate.NewReport(rows, span)
	if err != nil {
		return err
	}
	printReport(out, tok, rep)
	return nil
}

func printReport(w io.Writer, tok weather.Token, rep *aggregate.Report) {
	s := rep.Summary
	fmt.Fprintf(w, "Range: %s", tok)
	if !rep.Span.IsZero() {
		fmt.Fprintf(w, " (%s to %s)", rep.Span.Start.Format("2006-01-02 15:04"), rep.Span.End.Format("2006-01-02 15:04 MST"))
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Readings: %d\n", s.Count)
	if s.Count == 0 {
		return
	}

	fmt.Fprintf(w, "Temperature: median %s°C, min %s, max %s\n",
		formatValue(s.MedianTemperature), formatValue(s.MinTemperature), formatValue(s.MaxTemperature))
	fmt.Fprintf(w, "Rain: %s mm total, wettest day %s mm, %d of %d days rainy, peak rate %s mm/hr\n",
		formatValue(s.TotalRain), formatValue(s.MaxDailyRain), s.RainyDays, s.TotalDays, formatValue(s.MaxRainRate))
	fmt.Fprintf(w, "Wind: max %s mph\n", formatValue(s.MaxWindSpeed))
	fmt.Fprintf(w, "Luminance: mean %s\n", formatValue(s.MeanLuminance))

	fmt.Fprintf(w, "\n%s buckets:\n", strings.ToUpper(rep.Granularity.String()[:1])+rep.Granularity.String()[1:])
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  PERIOD\tN\tMEDIAN °C\tMIN\tMAX\tRAIN mm")
	for _, b := range rep.Buckets {
		fmt.Fprintf(tw, "  %s\t%d\t%s\t%s\t%s\t%s\n", b.Label, b.Stats.Count,
			formatValue(b.Stats.MedianTemperature), formatValue(b.Stats.MinTemperature),
			formatValue(b.Stats.MaxTemperature), formatValue(b.Stats.TotalRain))
	}
	_ = tw.Flush()

	points := make([]string, 0, len(weather.CompassPoints))
	for _, p := range weather.CompassPoints {
		points = append(points, fmt.Sprintf("%s %d", p, rep.WindRose[p]))
	}
	fmt.Fprintf(w, "\nWind rose: %s\n", strings.Join(points, "  "))
}

// formatValue renders a statistic to one decimal place, or n/a when it is
// undefined for an empty set.
func formatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", v)
}

