package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/coastwatch/internal/model"
)

var scoreCmd = &cobra.Command{
	Use:   "score <report.json>",
	Short: "Score one report against social media",
	Long: `Score generates search keywords for a report, pulls matching social
posts, classifies each post and prints the correlations with the overall
confidence.

Example:
  coastwatch score report.json
  COASTWATCH_CORRELATION_DISABLE_LLM=true coastwatch score report.json`,
	Args: cobra.ExactArgs(1),
	RunE: runScore,
}

func init() {
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	report, err := readReport(args[0])
	if err != nil {
		return err
	}
	if err := report.Validate(); err != nil {
		return fmt.Errorf("invalid report: %w", err)
	}

	a, err := newApp(nil)
	if err != nil {
		return err
	}
	scored := a.scorer().ScoreReport(cmd.Context(), report)
	if err := cmd.Context().Err(); err != nil {
		return fmt.Errorf("scoring interrupted: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), scored)
}

func readReport(path string) (model.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Report{}, fmt.Errorf("read report: %w", err)
	}
	var report model.Report
	if err := json.Unmarshal(data, &report); err != nil {
		return model.Report{}, fmt.Errorf("decode report %s: %w", path, err)
	}
	return report, nil
}
