package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sitewright/internal/actions"
	"sitewright/internal/checkpoint"
)

var (
	checkpointAgent string
	checkpointDir   string
	checkpointOut   string

	checkpointPath     string
	checkpointExpected string
)

var checkpointCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Checksum a stage directory and write its checkpoint file",
	RunE: func(cmd *cobra.Command, args []string) error {
		checksum, err := checkpoint.Create(checkpointAgent, checkpointDir, checkpointOut, logger)
		if err != nil {
			return err
		}

		logger.Info("checkpoint created",
			zap.String("agent", checkpointAgent),
			zap.String("checksum", checksum))

		actions.SetOutput(os.Stdout, "checkpoint-data", checksum)
		return nil
	},
}

var checkpointValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Verify a checkpoint against its directory contents",
	RunE: func(cmd *cobra.Command, args []string) error {
		valid, err := checkpoint.Validate(checkpointPath, checkpointExpected, logger)
		if err != nil {
			return err
		}

		actions.SetOutput(os.Stdout, "checkpoint-valid", fmt.Sprintf("%t", valid))
		if !valid {
			actions.Warning(os.Stdout, "checkpoint validation failed")
			return fmt.Errorf("checkpoint mismatch")
		}
		return nil
	},
}

var checkpointCmd = &cobra.Command{
	Use:   "checkpoint",
	Short: "Stage checkpoint operations",
}

func init() {
	checkpointCreateCmd.Flags().StringVar(&checkpointAgent, "agent", "", "agent name recorded in the checkpoint")
	checkpointCreateCmd.Flags().StringVar(&checkpointDir, "dir", "", "directory to checksum")
	checkpointCreateCmd.Flags().StringVar(&checkpointOut, "out", "", "checkpoint file to write")
	_ = checkpointCreateCmd.MarkFlagRequired("agent")
	_ = checkpointCreateCmd.MarkFlagRequired("dir")
	_ = checkpointCreateCmd.MarkFlagRequired("out")

	checkpointValidateCmd.Flags().StringVar(&checkpointPath, "path", "", "checkpoint file to verify")
	checkpointValidateCmd.Flags().StringVar(&checkpointExpected, "expected", "", "expected checksum from the previous stage output")
	_ = checkpointValidateCmd.MarkFlagRequired("path")

	checkpointCmd.AddCommand(checkpointCreateCmd)
	checkpointCmd.AddCommand(checkpointValidateCmd)
}
