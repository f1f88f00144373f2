package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/yt-audio-extract/internal/domain"
	"github.com/yourusername/yt-audio-extract/internal/infrastructure"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List outcomes of past batches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		batchID, _ := cmd.Flags().GetString("batch")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := domain.HistoryFilter{
			BatchID: batchID,
			State:   domain.RequestState(status),
			Limit:   limit,
		}
		if filter.State != "" && filter.State != domain.StateSucceeded && filter.State != domain.StateFailed {
			return fmt.Errorf("invalid status %q: use succeeded or failed", status)
		}

		repo, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer repo.Close()

		records, err := repo.FindRecent(filter)
		if err != nil {
			return fmt.Errorf("failed to read history: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "BATCH\tURL\tSTATUS\tRESULT\tCREATED")
		for _, r := range records {
			o := r.Outcome()
			result := o.FilePath
			if !o.Succeeded {
				result = o.ErrorMessage
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				truncate(r.BatchID, 8),
				truncate(r.URL, 50),
				o.State(),
				truncate(result, 60),
				r.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show history statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openHistory(cmd)
		if err != nil {
			return err
		}
		defer repo.Close()

		stats, err := repo.GetStats()
		if err != nil {
			return fmt.Errorf("failed to read history: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Extraction Statistics:")
		fmt.Fprintf(out, "  Batches:   %d\n", stats.Batches)
		fmt.Fprintf(out, "  Total:     %d\n", stats.Total)
		fmt.Fprintf(out, "  Succeeded: %d\n", stats.Succeeded)
		fmt.Fprintf(out, "  Failed:    %d\n", stats.Failed)
		return nil
	},
}

func openHistory(cmd *cobra.Command) (*infrastructure.SQLiteOutcomeRepository, error) {
	config, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if !config.History.Enabled {
		return nil, fmt.Errorf("history is disabled in the configuration")
	}
	return infrastructure.NewSQLiteOutcomeRepository(config.History.DatabasePath)
}

func init() {
	historyCmd.Flags().StringP("status", "s", "", "Filter by status (succeeded, failed)")
	historyCmd.Flags().StringP("batch", "b", "", "Filter by batch ID")
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of records")
}
