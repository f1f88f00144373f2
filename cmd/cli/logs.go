package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/yt-audio-extract/pkg/logger"
)

var logsCmd = &cobra.Command{
	Use:   "logs [batch|error|download]",
	Short: "View event and yt-dlp logs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category := logger.LogCategory(args[0])
		if !logger.ReadableCategory(category) {
			return fmt.Errorf("invalid category %q", args[0])
		}

		dateStr, _ := cmd.Flags().GetString("date")
		query, _ := cmd.Flags().GetString("search")
		limit, _ := cmd.Flags().GetInt("limit")
		jsonOutput, _ := cmd.Flags().GetBool("json")

		date := time.Now()
		if dateStr != "" {
			parsed, err := time.Parse("2006-01-02", dateStr)
			if err != nil {
				return fmt.Errorf("invalid date format, use YYYY-MM-DD")
			}
			date = parsed
		}

		config, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		reader := logger.NewLogReader(config.Logging.LogsDir)

		var entries []logger.LogEntry
		if query != "" {
			entries, err = reader.SearchLogs(category, date, query, limit)
		} else {
			entries, err = reader.ReadLogs(category, date, limit)
		}
		if err != nil {
			return fmt.Errorf("failed to read logs: %w", err)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			prettyJSON, _ := json.MarshalIndent(entries, "", "  ")
			fmt.Fprintln(out, string(prettyJSON))
			return nil
		}

		for _, e := range entries {
			if e.Timestamp == "" {
				fmt.Fprintln(out, e.Message)
				continue
			}
			fmt.Fprintf(out, "%s %-5s %s\n", e.Timestamp, e.Level, e.Message)
		}
		return nil
	},
}

func init() {
	logsCmd.Flags().StringP("date", "d", "", "Log date (YYYY-MM-DD, default today)")
	logsCmd.Flags().StringP("search", "s", "", "Only show entries containing this text")
	logsCmd.Flags().IntP("limit", "n", 100, "Maximum number of entries")
	logsCmd.Flags().BoolP("json", "j", false, "Output in JSON format")
}
