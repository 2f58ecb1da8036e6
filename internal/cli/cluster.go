package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/coastwatch/internal/cluster"
	"github.com/ppiankov/coastwatch/internal/worker"
)

var clusterRadiusKm float64

var clusterCmd = &cobra.Command{
	Use:   "cluster <reports-file>",
	Short: "Group nearby reports into clusters",
	Long: `Cluster reads reports (a JSON array or one JSON report per line) and
groups those within --radius-km of each other. Reports without coordinates
are skipped.

Example:
  coastwatch cluster reports.json
  coastwatch cluster reports.jsonl --radius-km 2.5`,
	Args: cobra.ExactArgs(1),
	RunE: runCluster,
}

func init() {
	rootCmd.AddCommand(clusterCmd)
	clusterCmd.Flags().Float64Var(&clusterRadiusKm, "radius-km", 0, "cluster radius in km (default from config)")
}

func runCluster(cmd *cobra.Command, args []string) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}

	reports, err := worker.ReadReportsFromFile(args[0])
	if err != nil {
		return fmt.Errorf("read reports: %w", err)
	}

	radius := a.cfg.Clustering.RadiusKm
	if clusterRadiusKm > 0 {
		radius = clusterRadiusKm
	}
	clusters := cluster.NewClusterer(radius).Cluster(reports)
	a.logger.Info("clustered reports", "reports", len(reports), "clusters", len(clusters), "radius_km", radius)

	return printJSON(cmd.OutOrStdout(), clusters)
}
