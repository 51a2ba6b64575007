package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sitewright/internal/actions"
	"sitewright/internal/auditor"
	"sitewright/internal/deploy"
	"sitewright/internal/executor"
	"sitewright/internal/knowledge"
	"sitewright/internal/llm"
	"sitewright/internal/planner"
)

// stageClient builds the LLM client for a named pipeline stage from the
// loaded configuration.
func stageClient(stage string) (llm.Client, error) {
	pc, err := cfg.StageProvider(stage)
	if err != nil {
		return nil, err
	}
	return llm.New(pc, logger)
}

var (
	planCommand      string
	planKnowledgeDir string
	planSiteDir      string
	planOutputDir    string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Run the planning stage and emit a strategic plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := stageClient("planner")
		if err != nil {
			return err
		}

		p := planner.New(client, logger)
		out, err := p.Run(cmd.Context(), planCommand, planKnowledgeDir, planSiteDir, planOutputDir)
		if err != nil {
			return err
		}

		logger.Info("planning complete",
			zap.String("status", out.Status),
			zap.String("source", string(out.Source)))

		actions.SetOutput(os.Stdout, "analysis-status", out.Status)
		actions.SetOutput(os.Stdout, "checkpoint-data", out.Checksum)
		actions.SetOutput(os.Stdout, "strategic-components", out.Components)
		actions.SetOutput(os.Stdout, "priority", out.Priority)
		return nil
	},
}

var (
	execPlanningDir  string
	execKnowledgeDir string
	execSourceDir    string
	execStagingDir   string
)

var executeCmd = &cobra.Command{
	Use:   "execute",
	Short: "Run the execution stage and write staged file changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := stageClient("executor")
		if err != nil {
			return err
		}

		e := executor.New(client, logger)
		out, err := e.Run(cmd.Context(), execPlanningDir, execKnowledgeDir, execSourceDir, execStagingDir)
		if err != nil {
			return err
		}

		logger.Info("execution complete",
			zap.String("status", out.Status),
			zap.String("source", string(out.Source)))

		actions.SetOutput(os.Stdout, "execution-status", out.Status)
		actions.SetOutput(os.Stdout, "checkpoint-data", out.Checksum)
		actions.SetOutput(os.Stdout, "files-modified", out.Files)
		return nil
	},
}

var (
	auditPlanningDir string
	auditStagingDir  string
	auditOutputDir   string
	auditThreshold   int
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Run the audit stage and score the staged changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := stageClient("auditor")
		if err != nil {
			return err
		}

		threshold := auditThreshold
		if threshold <= 0 {
			threshold = cfg.Pipeline.QualityThreshold
		}

		a := auditor.New(client, cfg.Auditor.Model, logger)
		out, err := a.Run(cmd.Context(), auditPlanningDir, auditStagingDir, auditOutputDir, threshold)
		if err != nil {
			return err
		}

		logger.Info("audit complete",
			zap.String("status", out.Status),
			zap.Float64("score", out.Score),
			zap.String("source", string(out.Source)))

		actions.SetOutput(os.Stdout, "audit-status", out.Status)
		actions.SetOutput(os.Stdout, "quality-score", fmt.Sprintf("%.0f", out.Score))
		actions.SetOutput(os.Stdout, "approval-required", fmt.Sprintf("%t", out.ApprovalRequired))
		actions.SetOutput(os.Stdout, "recommendations", out.Recommendations)
		return nil
	},
}

var (
	validateStagingDir string
	validateAuditDir   string
	validateThreshold  int
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run the final pre-deployment validation gate",
	RunE: func(cmd *cobra.Command, args []string) error {
		threshold := validateThreshold
		if threshold <= 0 {
			threshold = cfg.Pipeline.QualityThreshold
		}

		report, err := deploy.Validate(validateStagingDir, validateAuditDir, threshold, logger)
		if err != nil {
			return err
		}

		passed := report.ValidationResults.OverallValid
		actions.SetOutput(os.Stdout, "validation-passed", fmt.Sprintf("%t", passed))
		if !passed {
			actions.Warning(os.Stdout, "final validation failed, deployment blocked")
			return fmt.Errorf("validation failed")
		}
		actions.Notice(os.Stdout, "final validation passed")
		return nil
	},
}

var (
	deployStagingDir string
	deployTargetDir  string
	deployBackupDir  string
)

var deployApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Copy staged files into the target directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := deploy.Apply(deployStagingDir, deployTargetDir, deployBackupDir,
			cfg.Pipeline.BackupBeforeApply, logger)
		if err != nil {
			return err
		}

		logger.Info("deployment applied",
			zap.Int("total_files", log.TotalFiles),
			zap.String("backup", log.BackupLocation))

		actions.SetOutput(os.Stdout, "files-deployed", fmt.Sprintf("%d", log.TotalFiles))
		return nil
	},
}

var (
	recordAuditDir     string
	recordKnowledgeDir string
)

var deployRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record deployment insights into the knowledge base",
	RunE: func(cmd *cobra.Command, args []string) error {
		insights, err := deploy.RecordDeployment(recordAuditDir, recordKnowledgeDir,
			knowledge.NowTimestamp(), logger)
		if err != nil {
			return err
		}

		logger.Info("deployment recorded", zap.String("timestamp", insights.DeploymentTimestamp))
		return nil
	},
}

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Deployment operations",
}

var (
	commentEventType    string
	commentBody         string
	commentAnalysisType string
	commentAIModel      string
)

var parseCommentCmd = &cobra.Command{
	Use:   "parse-comment",
	Short: "Parse a trigger comment or dispatch event into pipeline inputs",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := planner.ParseEvent(commentEventType, commentBody, commentAnalysisType, commentAIModel)

		actions.SetOutput(os.Stdout, "ai-model", req.AIModel)
		actions.SetOutput(os.Stdout, "tasks", req.Tasks)
		actions.SetOutput(os.Stdout, "mode", req.Mode)
		actions.SetOutput(os.Stdout, "priority", req.Priority)
		actions.SetOutput(os.Stdout, "context", req.Context)
		return nil
	},
}

func init() {
	planCmd.Flags().StringVar(&planCommand, "command", "analyze and improve", "natural-language command for the planner")
	planCmd.Flags().StringVar(&planKnowledgeDir, "knowledge-dir", "background", "knowledge base directory")
	planCmd.Flags().StringVar(&planSiteDir, "site-dir", ".", "site source directory")
	planCmd.Flags().StringVar(&planOutputDir, "output-dir", "planning", "directory for planning artifacts")

	executeCmd.Flags().StringVar(&execPlanningDir, "planning-dir", "planning", "directory holding the strategic plan")
	executeCmd.Flags().StringVar(&execKnowledgeDir, "knowledge-dir", "background", "knowledge base directory")
	executeCmd.Flags().StringVar(&execSourceDir, "source-dir", ".", "site source directory")
	executeCmd.Flags().StringVar(&execStagingDir, "staging-dir", "staging", "directory for staged changes")

	auditCmd.Flags().StringVar(&auditPlanningDir, "planning-dir", "planning", "directory holding the strategic plan")
	auditCmd.Flags().StringVar(&auditStagingDir, "staging-dir", "staging", "directory holding staged changes")
	auditCmd.Flags().StringVar(&auditOutputDir, "output-dir", "audit", "directory for audit artifacts")
	auditCmd.Flags().IntVar(&auditThreshold, "quality-threshold", 0, "minimum passing score (0 uses the configured threshold)")

	validateCmd.Flags().StringVar(&validateStagingDir, "staging-dir", "staging", "directory holding staged changes")
	validateCmd.Flags().StringVar(&validateAuditDir, "audit-dir", "audit", "directory holding audit artifacts")
	validateCmd.Flags().IntVar(&validateThreshold, "quality-threshold", 0, "minimum passing score (0 uses the configured threshold)")

	deployApplyCmd.Flags().StringVar(&deployStagingDir, "staging-dir", "staging", "directory holding staged changes")
	deployApplyCmd.Flags().StringVar(&deployTargetDir, "target-dir", ".", "deployment target directory")
	deployApplyCmd.Flags().StringVar(&deployBackupDir, "backup-dir", "backup", "directory for pre-deployment backups")

	deployRecordCmd.Flags().StringVar(&recordAuditDir, "audit-dir", "audit", "directory holding audit artifacts")
	deployRecordCmd.Flags().StringVar(&recordKnowledgeDir, "knowledge-dir", "background", "knowledge base directory")

	deployCmd.AddCommand(deployApplyCmd)
	deployCmd.AddCommand(deployRecordCmd)

	parseCommentCmd.Flags().StringVar(&commentEventType, "event-type", "workflow_dispatch", "GitHub event type")
	parseCommentCmd.Flags().StringVar(&commentBody, "comment-body", "", "comment body to parse")
	parseCommentCmd.Flags().StringVar(&commentAnalysisType, "analysis-type", "", "analysis type for workflow_dispatch events")
	parseCommentCmd.Flags().StringVar(&commentAIModel, "ai-model", "", "model override for workflow_dispatch events")
}
