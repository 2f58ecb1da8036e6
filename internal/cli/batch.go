package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/coastwatch/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <reports-file>",
	Short: "Score many reports in parallel",
	Long: `Batch scores reports concurrently:
- Read reports from the input file (JSON array or one JSON report per line)
- Score each report against social media with the configured worker count
- Write one JSON result per report to the output directory

Example:
  coastwatch batch reports.jsonl
  coastwatch batch reports.json --concurrency 8 --output-dir ./scored
  coastwatch batch reports.json --timeout 5m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./coastwatch-scores", "output directory for scored reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	a, err := newApp(nil)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Coastwatch Batch Scoring\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	if a.provider != nil {
		fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", a.provider.Name(), a.cfg.LLM.Model)
	} else {
		fmt.Fprintf(os.Stderr, "  LLM:          disabled (keyword fallback)\n")
	}
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	scorer := worker.NewBatchScorer(a.scorer(), concurrency)
	results, err := scorer.ScoreFile(ctx, file)
	if err != nil {
		return fmt.Errorf("score file: %w", err)
	}

	successCount := 0
	failureCount := 0
	used := map[string]bool{}
	for i, result := range results {
		id := result.Report.ID
		if id == "" {
			id = fmt.Sprintf("report-%d", i+1)
		}
		if err := result.GetError(); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", id, err)
			continue
		}

		path := filepath.Join(outputDir, uniqueFilename(used, sanitizeFilename(id))+".json")
		if err := writeJSONFile(path, result.Scored); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", id, err)
			continue
		}

		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s (%d correlations, confidence %.2f)\n",
			id, len(result.Scored.Correlations), result.Scored.OverallConfidence)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d reports\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "-",
)

// uniqueFilename returns name, or name-2, name-3 and so on when an earlier
// report in the batch already took it.
func uniqueFilename(used map[string]bool, name string) string {
	candidate := name
	for n := 2; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s-%d", name, n)
	}
	used[candidate] = true
	return candidate
}

// sanitizeFilename turns a report id into a safe file name.
func sanitizeFilename(s string) string {
	s = filenameReplacer.Replace(strings.TrimSpace(s))
	s = strings.Trim(s, ".")
	if s == "" {
		s = "report"
	}
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}
