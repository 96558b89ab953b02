package cmd

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var statusServer string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query the health endpoint of a running wxlogd instance",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusServer, "server", "http://localhost:5000", "wxlogd server URL")
	rootCmd.AddCommand(statusCmd)
}

type healthReport struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Timezone string `json:"timezone"`
	Database struct {
		Driver          string `json:"driver"`
		Status          string `json:"status"`
		SizeBytes       int64  `json:"size_bytes"`
		TotalReadings   int    `json:"total_readings"`
		DataRangeOldest string `json:"data_range_oldest"`
		DataRangeNewest string `json:"data_range_newest"`
	} `json:"database"`
	Mirrors []struct {
		Name       string    `json:"name"`
		Sent       int       `json:"sent"`
		ErrorCount int       `json:"error_count"`
		LastError  string    `json:"last_error"`
		LastSentAt time.Time `json:"last_sent_at"`
		State      string    `json:"state"`
	} `json:"mirrors"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	client := &http.Client{
		Timeout: 5 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		},
	}
	resp, err := client.Get(statusServer + "/api/v1/health")
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", statusServer, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	var health healthReport
	if err := json.NewDecoder(io.LimitReader(resp.Body, 10<<20)).Decode(&health); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	printHealth(cmd.OutOrStdout(), &health)
	return nil
}

func printHealth(w io.Writer, health *healthReport) {
	fmt.Fprintf(w, "wxlogd %s\n", health.Version)
	fmt.Fprintf(w, "Status: %s\n", health.Status)
	fmt.Fprintf(w, "Uptime: %s\n", health.Uptime)
	if health.Timezone != "" {
		fmt.Fprintf(w, "Timezone: %s\n", health.Timezone)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Database: %s (%s)\n", health.Database.Driver, health.Database.Status)
	if health.Database.SizeBytes > 0 {
		fmt.Fprintf(w, "  Size: %s\n", formatBytes(health.Database.SizeBytes))
	}
	if health.Database.TotalReadings > 0 {
		fmt.Fprintf(w, "  Readings: %s\n", formatNumber(health.Database.TotalReadings))
	}
	if health.Database.DataRangeOldest != "" {
		fmt.Fprintf(w, "  Data range: %s to %s\n", health.Database.DataRangeOldest, health.Database.DataRangeNewest)
	}

	if len(health.Mirrors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Mirrors:")
		for _, m := range health.Mirrors {
			line := fmt.Sprintf("  %s: %s sent, %d errors", m.Name, formatNumber(m.Sent), m.ErrorCount)
			if m.State != "" {
				line += ", breaker " + m.State
			}
			fmt.Fprintln(w, line)
			if m.LastError != "" {
				fmt.Fprintf(w, "    Last error: %s\n", m.LastError)
			}
		}
	}
}

// formatNumber formats an integer with comma separators (e.g., 1,247,832).
func formatNumber(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var result []byte
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, byte(c))
	}
	return string(result)
}

func formatBytes(b int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
