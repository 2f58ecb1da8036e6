package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/coastwatch/internal/classify"
	"github.com/ppiankov/coastwatch/internal/hotspot"
	"github.com/ppiankov/coastwatch/internal/model"
	"github.com/ppiankov/coastwatch/internal/worker"
)

var (
	hotspotThreshold int
	hotspotAnalyze   bool
	hotspotVerify    bool
	hotspotUrgency   string
	hotspotHazard    string
)

var hotspotsCmd = &cobra.Command{
	Use:   "hotspots <posts-file>",
	Short: "Detect hazard hotspots in social media posts",
	Long: `Hotspots reads social posts (a JSON array or one JSON post per line) and
reports every location where at least --threshold eligible posts describe
the same hazard.

Posts are eligible when they carry an ai_analysis with relevance "hazard"
and meet the confidence threshold. Use --analyze to classify posts first,
and --verify to corroborate each hotspot against Reddit and news search.

Example:
  coastwatch hotspots posts.json
  coastwatch hotspots posts.jsonl --analyze --threshold 10
  coastwatch hotspots posts.json --verify`,
	Args: cobra.ExactArgs(1),
	RunE: runHotspots,
}

func init() {
	rootCmd.AddCommand(hotspotsCmd)
	hotspotsCmd.Flags().IntVar(&hotspotThreshold, "threshold", 0, "minimum posts per hotspot (default from config)")
	hotspotsCmd.Flags().BoolVar(&hotspotAnalyze, "analyze", false, "classify post relevance before detection")
	hotspotsCmd.Flags().BoolVar(&hotspotVerify, "verify", false, "corroborate hotspots with Reddit and news search")
	hotspotsCmd.Flags().StringVar(&hotspotUrgency, "urgency", "", "keep only hotspots of this overall urgency (High, Medium, Low)")
	hotspotsCmd.Flags().StringVar(&hotspotHazard, "hazard", "", "keep only hotspots of this hazard type")
}

// hotspotReport is the command output.
type hotspotReport struct {
	Threshold int                       `json:"threshold"`
	Posts     int                       `json:"posts"`
	Analysis  *classify.AnalysisSummary `json:"analysis,omitempty"`
	Hotspots  []model.Hotspot           `json:"hotspots"`
	Summary   model.HotspotSummary      `json:"summary"`
}

func runHotspots(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if hotspotUrgency != "" && !model.Urgency(hotspotUrgency).Valid() {
		return fmt.Errorf("invalid --urgency %q (want High, Medium or Low)", hotspotUrgency)
	}
	a, err := newApp(nil)
	if err != nil {
		return err
	}

	posts, err := worker.ReadRecordsFromFile[model.SocialPost](args[0])
	if err != nil {
		return fmt.Errorf("read posts: %w", err)
	}

	var analysis *classify.AnalysisSummary
	if hotspotAnalyze {
		a.logger.Info("analyzing posts", "posts", len(posts))
		analyzer := a.analyzer()
		posts = analyzer.Analyze(ctx, posts)
		s := classify.Summarize(posts, analyzer.Threshold())
		analysis = &s
	}

	threshold := a.cfg.Hotspots.PostThreshold
	if hotspotThreshold > 0 {
		threshold = hotspotThreshold
	}
	detector := hotspot.NewDetector(threshold, a.clock, a.logger)
	hotspots := detector.Detect(posts)
	hotspot.RecordDetected(a.metrics, hotspots)

	if hotspotUrgency != "" {
		hotspots = hotspot.ByUrgency(hotspots, model.Urgency(hotspotUrgency))
	}
	if hotspotHazard != "" {
		hotspots = hotspot.ByHazardType(hotspots, hotspotHazard)
	}
	if hotspotVerify && len(hotspots) > 0 {
		// The flag overrides verification.enabled.
		a.cfg.Verification.Enabled = true
		hotspots = a.verifier().VerifyHotspots(ctx, hotspots, posts)
	}

	return printJSON(cmd.OutOrStdout(), hotspotReport{
		Threshold: detector.Threshold(),
		Posts:     len(posts),
		Analysis:  analysis,
		Hotspots:  hotspots,
		Summary:   hotspot.Summarize(hotspots),
	})
}
