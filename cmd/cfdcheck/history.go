package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/config"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/history"
	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recorded evaluations",
	Long: `View evaluations saved with --record (or history.enabled in the config).

History is never consulted when evaluating: it is a log for comparing
machines and meshes over time.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a recorded evaluation",
	Long: `Render a recorded evaluation with the configured output format.
A unique prefix of the id is enough.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistoryShow,
}

var historyCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove entries older than the retention period",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClean,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every recorded evaluation",
	Args:  cobra.NoArgs,
	RunE:  runHistoryClear,
}

var (
	historyLimit int
	clearYes     bool
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of entries to show")
	historyShowCmd.Flags().StringP("output", "o", "", "output format")
	historyShowCmd.Flags().String("template", "", "Go template for -o template")
	historyClearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "do not ask for confirmation")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyCleanCmd)
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(historyCmd)
}

// openHistory opens the history store at the configured path.
func openHistory() (*history.Store, error) {
	path := cfg.HistoryPath()
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	store, err := history.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return store, nil
}

// recordReport saves a report and prunes entries past the retention period.
func recordReport(report *types.Report, source string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	entry, err := store.Record(report, source)
	if err != nil {
		return fmt.Errorf("failed to record evaluation: %w", err)
	}
	printVerbose("Recorded evaluation %s", entry.ShortID())

	if days := cfg.History.RetentionDays; days > 0 {
		if _, err := store.Prune(time.Duration(days) * 24 * time.Hour); err != nil {
			printVerbose("History cleanup failed: %v", err)
		}
	}
	return nil
}

// runHistory lists recent evaluations.
func runHistory(_ *cobra.Command, _ []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if len(entries) == 0 {
		printInfo("No history entries found.")
		printInfo("Run 'cfdcheck --record' to save an evaluation.")
		return nil
	}

	fmt.Print(formatHistoryTable(entries))
	fmt.Println("Use 'cfdcheck history show <id>' for details on a specific entry.")
	return nil
}

// formatHistoryTable renders entries one per line, newest first.
func formatHistoryTable(entries []*history.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%-8s  %-16s  %-6s  %14s  %6s  %-14s  %s\n",
		"ID", "WHEN", "SOURCE", "CELLS", "CORES", "CONSTRAINING", "INSUFFICIENT")
	b.WriteString(strings.Repeat("-", 86))
	b.WriteString("\n")

	for _, e := range entries {
		constraining := "-"
		if c := e.Report.Constraining(); c != nil {
			constraining = string(c.Resource)
		}
		fmt.Fprintf(&b, "%-8s  %-16s  %-6s  %14s  %6d  %-14s  %d/%d\n",
			e.ShortID(),
			humanize.Time(e.Time),
			truncateString(e.Source, 6),
			types.FormatCells(e.Report.Profile.Cells),
			e.Report.Profile.TotalCores(),
			constraining,
			e.Report.Insufficient(),
			len(e.Report.Results),
		)
	}
	b.WriteString(strings.Repeat("-", 86))
	b.WriteString("\n")
	return b.String()
}

// runHistoryShow renders a recorded evaluation.
func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	entry, err := store.Get(args[0])
	if err != nil {
		return fmt.Errorf("failed to get entry: %w", err)
	}

	formatter, err := resolveFormatter(cfg)
	if err != nil {
		return err
	}

	printInfo("Evaluation %s, recorded %s by %s\n", entry.ID,
		entry.Time.Local().Format("2006-01-02 15:04:05 MST"), entry.Source)

	var buf bytes.Buffer
	if err := formatter.Format(&buf, &entry.Report); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	fmt.Print(buf.String())
	return nil
}

// runHistoryClean removes entries older than the retention period.
func runHistoryClean(_ *cobra.Command, _ []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	retentionDays := cfg.History.RetentionDays
	if retentionDays <= 0 {
		retentionDays = config.DefaultRetentionDays
	}

	printInfo("Cleaning history entries older than %d days...", retentionDays)
	removed, err := store.Prune(time.Duration(retentionDays) * 24 * time.Hour)
	if err != nil {
		return fmt.Errorf("failed to clean history: %w", err)
	}
	printInfo("Removed %d entries.", removed)
	return nil
}

// runHistoryClear removes every entry after confirmation.
func runHistoryClear(_ *cobra.Command, _ []string) error {
	if !clearYes {
		confirmed := false
		err := huh.NewConfirm().
			Title("Remove every recorded evaluation?").
			Affirmative("Remove").
			Negative("Cancel").
			Value(&confirmed).
			Run()
		if err != nil {
			return fmt.Errorf("confirmation failed (use --yes to skip): %w", err)
		}
		if !confirmed {
			printInfo("Nothing removed.")
			return nil
		}
	}

	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Clear(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	printInfo("History cleared.")
	return nil
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
