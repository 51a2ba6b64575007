// Package deploy implements the deployment stage: the final validation
// gate, the staged-change applier, and the post-deployment history record.
package deploy

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// allowedExtensions are the staged file types that may reach the target.
var allowedExtensions = map[string]bool{
	".html": true,
	".css":  true,
	".tsx":  true,
	".js":   true,
}

// Log is the deployment record written next to the deployed files.
type Log struct {
	Timestamp           string   `json:"timestamp"`
	ChangesApplied      []string `json:"changes_applied"`
	BackupLocation      string   `json:"backup_location,omitempty"`
	SafetyChecksEnabled bool     `json:"safety_checks_enabled"`
	TotalFiles          int      `json:"total_files"`
}

// Apply copies staged files into the target directory. With safety checks
// enabled the target's current files are backed up first; a staged file
// with no backed-up counterpart is logged and still applied. Only files
// with an allowed extension at the staging root, plus everything under
// assets/, are deployed.
func Apply(stagingDir, targetDir, backupDir string, safetyChecks bool, logger *zap.Logger) (*Log, error) {
	if safetyChecks {
		if err := backupTarget(targetDir, backupDir); err != nil {
			return nil, err
		}
		logger.Info("backup created", zap.String("dir", backupDir))
	}

	entries, err := os.ReadDir(stagingDir)
	if err != nil {
		return nil, fmt.Errorf("reading staging dir: %w", err)
	}

	var applied []string
	for _, entry := range entries {
		if entry.IsDir() || !allowedExtensions[filepath.Ext(entry.Name())] {
			continue
		}

		if safetyChecks {
			if _, err := os.Stat(filepath.Join(backupDir, entry.Name())); err != nil {
				logger.Warn("no backup for staged file", zap.String("file", entry.Name()))
			}
		}

		src := filepath.Join(stagingDir, entry.Name())
		dst := filepath.Join(targetDir, entry.Name())
		if err := copyFile(src, dst); err != nil {
			return nil, fmt.Errorf("applying %s: %w", entry.Name(), err)
		}
		applied = append(applied, entry.Name())
		logger.Info("applied", zap.String("file", entry.Name()))
	}

	assetsDir := filepath.Join(stagingDir, "assets")
	if assetEntries, err := os.ReadDir(assetsDir); err == nil {
		targetAssets := filepath.Join(targetDir, "assets")
		if err := os.MkdirAll(targetAssets, 0o755); err != nil {
			return nil, fmt.Errorf("creating target assets dir: %w", err)
		}
		for _, entry := range assetEntries {
			if entry.IsDir() {
				continue
			}
			src := filepath.Join(assetsDir, entry.Name())
			dst := filepath.Join(targetAssets, entry.Name())
			if err := copyFile(src, dst); err != nil {
				return nil, fmt.Errorf("applying asset %s: %w", entry.Name(), err)
			}
			applied = append(applied, "assets/"+entry.Name())
		}
	}

	deployLog := &Log{
		Timestamp:           time.Now().UTC().Format(time.RFC3339),
		ChangesApplied:      applied,
		SafetyChecksEnabled: safetyChecks,
		TotalFiles:          len(applied),
	}
	if safetyChecks {
		deployLog.BackupLocation = backupDir
	}

	data, err := json.MarshalIndent(deployLog, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding deployment log: %w", err)
	}
	if err := os.WriteFile(filepath.Join(targetDir, "deployment.log.json"), append(data, '\n'), 0o644); err != nil {
		return nil, fmt.Errorf("writing deployment log: %w", err)
	}

	logger.Info("deployment completed", zap.Int("files", len(applied)))
	return deployLog, nil
}

// backupTarget copies the target's top-level non-hidden files into backupDir.
func backupTarget(targetDir, backupDir string) error {
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return fmt.Errorf("creating backup dir: %w", err)
	}

	entries, err := os.ReadDir(targetDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading target dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || entry.Name()[0] == '.' {
			continue
		}
		src := filepath.Join(targetDir, entry.Name())
		dst := filepath.Join(backupDir, entry.Name())
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("backing up %s: %w", entry.Name(), err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
