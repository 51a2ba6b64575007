package main

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sitewright/internal/actions"
	"sitewright/internal/perf"
)

var (
	perfURL       string
	perfOutputDir string
)

var perfCmd = &cobra.Command{
	Use:   "perf",
	Short: "Run a Lighthouse performance analysis against a URL",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := stageClient("auditor")
		if err != nil {
			return err
		}

		analyzer := perf.NewAnalyzer(nil, client, logger)
		report, err := analyzer.AnalyzeURL(cmd.Context(), perfURL, perfOutputDir)
		if err != nil {
			return err
		}

		logger.Info("performance analysis complete",
			zap.String("url", report.URL),
			zap.Float64("performance", report.LighthouseScore["performance"]),
			zap.String("insights_source", report.InsightsSource))

		actions.SetOutput(os.Stdout, "performance-rating", report.AIInsights.OverallAssessment)
		return nil
	},
}

func init() {
	perfCmd.Flags().StringVar(&perfURL, "url", "", "URL to analyze")
	perfCmd.Flags().StringVar(&perfOutputDir, "output-dir", "performance", "directory for analysis artifacts")
	_ = perfCmd.MarkFlagRequired("url")
}
