package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ppiankov/coastwatch/internal/model"
	"github.com/ppiankov/coastwatch/internal/worker"
)

var (
	verifyLocation string
	verifyHazard   string
)

var verifyCmd = &cobra.Command{
	Use:   "verify [posts-file]",
	Short: "Corroborate a location and hazard against Reddit and news",
	Long: `Verify searches Reddit and Google News for independent reports of a
hazard at a location and prints the evidence with a seriousness level.

Posts from the optional file add hashtags and keywords to the search and
count toward the seriousness score.

Example:
  coastwatch verify --location Chennai --hazard Flood
  coastwatch verify --location Mumbai --hazard "Storm Surge" posts.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVar(&verifyLocation, "location", "", "location to verify (required)")
	verifyCmd.Flags().StringVar(&verifyHazard, "hazard", model.HazardFlood, "hazard type")
	_ = verifyCmd.MarkFlagRequired("location")
}

func runVerify(cmd *cobra.Command, args []string) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}

	var posts []model.SocialPost
	if len(args) == 1 {
		posts, err = worker.ReadRecordsFromFile[model.SocialPost](args[0])
		if err != nil {
			return fmt.Errorf("read posts: %w", err)
		}
	}

	h := model.Hotspot{
		ID:         uuid.NewString(),
		Location:   verifyLocation,
		HazardType: verifyHazard,
		PostCount:  len(posts),
	}
	result := a.verifier().Verify(cmd.Context(), h, posts)
	return printJSON(cmd.OutOrStdout(), result)
}
