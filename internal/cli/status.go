package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/fileindex/internal/cache"
)

var (
	statusJSON bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show index cache status",
	Long: `Show the state of the on-disk index cache.

Displays:
- Cache file location
- Number of cached entries and the roots they were taken from
- Age of the snapshot and whether it is still fresh enough to reuse`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := cfg.NewStore(logger)
	if err != nil {
		return err
	}

	return executeStatus(cmd.OutOrStdout(), store, statusJSON)
}

func executeStatus(out io.Writer, store *cache.Store, asJSON bool) error {
	info, infoErr := store.Info()

	if asJSON {
		output := map[string]interface{}{
			"path":    info.Path,
			"exists":  info.Exists,
			"entries": info.Entries,
			"roots":   info.Roots,
			"valid":   info.Valid,
		}
		if !info.Timestamp.IsZero() {
			output["timestamp"] = info.Timestamp.Unix()
			output["age_seconds"] = int64(info.Age.Seconds())
		}
		if infoErr != nil {
			output["error"] = infoErr.Error()
		}
		jsonBytes, err := json.MarshalIndent(output, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(out, string(jsonBytes))
		return nil
	}

	fmt.Fprintln(out, "Index Cache:")
	fmt.Fprintf(out, "  Path:    %s\n", info.Path)

	switch {
	case !info.Exists:
		fmt.Fprintln(out, "  Status:  not found")
		return nil
	case infoErr != nil:
		fmt.Fprintf(out, "  Status:  unreadable (%v)\n", infoErr)
		return nil
	}

	fmt.Fprintf(out, "  Entries: %s\n", formatNumber(info.Entries))
	fmt.Fprintf(out, "  Age:     %s\n", formatDuration(info.Age))
	if info.Valid {
		fmt.Fprintln(out, "  Status:  fresh")
	} else {
		fmt.Fprintln(out, "  Status:  expired")
	}
	if len(info.Roots) > 0 {
		fmt.Fprintln(out, "  Roots:")
		for _, r := range info.Roots {
			fmt.Fprintf(out, "    %s\n", r)
		}
	}
	return nil
}

// formatDuration formats a duration in compact format.
// Examples: "5s", "1m", "1h 30m", "2h", "1d", "1d 3h", "3d"
func formatDuration(d time.Duration) string {
	seconds := int(d.Seconds())
	if seconds < 0 {
		seconds = 0
	}

	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if days > 0 {
		if hours > 0 {
			return fmt.Sprintf("%dd %dh", days, hours)
		}
		return fmt.Sprintf("%dd", days)
	}

	if hours > 0 {
		if minutes > 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}

	if minutes > 0 {
		return fmt.Sprintf("%dm", minutes)
	}

	return fmt.Sprintf("%ds", secs)
}

// formatNumber formats integer with thousand separators.
// Examples: 1234 -> "1,234", 1234567 -> "1,234,567"
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	str := fmt.Sprintf("%d", n)
	var result string
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return result
}
