package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/yt-audio-extract/internal/app"
	"github.com/yourusername/yt-audio-extract/internal/domain"
)

// errBatchFailed signals a batch with at least one failed request; the summary already said so
var errBatchFailed = errors.New("one or more extractions failed")

var (
	configPath   string
	outputDir    string
	concurrency  int
	audioFormat  string
	audioQuality string
	noHistory    bool
	installTools bool

	rootCmd = &cobra.Command{
		Use:   "yt-audio [urls...]",
		Short: "Extract MP3 audio from video URLs",
		Long: `Downloads each video with yt-dlp, converts its audio with ffmpeg and
reports one outcome per URL, in the order the URLs were given.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runBatch,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./configs, $HOME/.yt-audio, /etc/yt-audio)")

	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for extracted audio")
	rootCmd.Flags().IntVarP(&concurrency, "concurrency", "c", 0, "Maximum extractions in flight")
	rootCmd.Flags().StringVarP(&audioFormat, "format", "f", "", "Audio format passed to ffmpeg")
	rootCmd.Flags().StringVarP(&audioQuality, "quality", "q", "", "Audio quality, e.g. 192 or 0 for best VBR")
	rootCmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record outcomes in the history database")
	rootCmd.Flags().BoolVar(&installTools, "install-tools", false, "Download yt-dlp and ffmpeg before extracting")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig loads the config file and applies command line overrides
func loadConfig(cmd *cobra.Command) (*domain.Config, error) {
	config, err := app.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		config.Extraction.OutputDir = outputDir
	}
	if flags.Changed("concurrency") {
		if concurrency < 1 {
			return nil, fmt.Errorf("%w: %d", domain.ErrInvalidConcurrency, concurrency)
		}
		config.Extraction.Concurrency = concurrency
	}
	if flags.Changed("format") {
		config.Extraction.AudioFormat = audioFormat
	}
	if flags.Changed("quality") {
		config.Extraction.AudioQuality = audioQuality
	}
	if flags.Changed("no-history") && noHistory {
		config.History.Enabled = false
	}

	return config, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		cmd.Usage()
		return domain.ErrInvalidInput
	}

	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.NewRuntime(ctx, config, installTools)
	if err != nil {
		return err
	}
	defer rt.Close()

	report, err := rt.Service.Run(ctx, args, config.Extraction.Concurrency)
	if report != nil {
		printSummary(cmd.OutOrStdout(), report)
	}
	if err != nil {
		return err
	}
	if !report.Summary.AllSucceeded() {
		return errBatchFailed
	}
	return nil
}

// printSummary writes one row per outcome, in input order, followed by the counts
func printSummary(out io.Writer, report *app.BatchReport) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "URL\tSTATUS\tRESULT")
	for _, o := range report.Outcomes {
		result := o.FilePath
		if !o.Succeeded {
			result = o.ErrorMessage
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", truncate(o.URL, 60), o.State(), result)
	}
	w.Flush()

	fmt.Fprintf(out, "\n%d succeeded, %d failed (batch %s)\n",
		report.Summary.Succeeded, report.Summary.Failed, report.BatchID)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errBatchFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
