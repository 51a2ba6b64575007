// Command sitewright runs the three-agent site maintenance pipeline:
// planning, execution and auditing, plus the deployment gates and the
// documentation knowledge tooling that feeds the agents.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"sitewright/internal/config"
)

var (
	configPath string
	verbose    bool

	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sitewright",
	Short: "AI-assisted site maintenance pipeline",
	Long: `sitewright maintains a static site through a three-agent pipeline.

The planner turns a natural-language command into a strategic plan, the
executor generates staged file changes from that plan, and the auditor
scores the staged output and gates deployment. Checkpoints chain the
stages together so tampered artifacts are rejected.

A knowledge subsystem ingests project documentation into ontologies,
TF-IDF vectors and a knowledge graph that ground the agents' prompts.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapConfig := zap.NewProductionConfig()
		if verbose {
			zapConfig.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapConfig.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to sitewright.yml (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(executeCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(deployCmd)
	rootCmd.AddCommand(checkpointCmd)
	rootCmd.AddCommand(parseCommentCmd)
	rootCmd.AddCommand(knowledgeCmd)
	rootCmd.AddCommand(perfCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
