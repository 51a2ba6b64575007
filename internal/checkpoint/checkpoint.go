// Package checkpoint persists and validates the hash manifests handed
// between pipeline stages. A checkpoint asserts "this is exactly what
// stage N produced"; the next stage recomputes the hash over the same
// directory and refuses the handoff on a mismatch.
//
// The content checksum is computed over the sorted list of
// (relative-path, file-hash) pairs, so it does not depend on filesystem
// enumeration order. Every stage uses this one scheme.
package checkpoint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
)

// FileEntry records one file in the checkpoint manifest.
type FileEntry struct {
	Size     int    `json:"size"`
	Checksum string `json:"checksum"`
}

// Checkpoint is the persisted handoff manifest for one stage.
type Checkpoint struct {
	Agent           string               `json:"agent"`
	Timestamp       string               `json:"timestamp"`
	Files           map[string]FileEntry `json:"files"`
	TotalFiles      int                  `json:"total_files"`
	ContentChecksum string               `json:"content_checksum"`
	Status          string               `json:"status"`
	NextAgent       string               `json:"next_agent,omitempty"`
}

// nextAgent maps each stage to its successor in the pipeline.
var nextAgent = map[string]string{
	"planner":  "executor",
	"executor": "auditor",
	"auditor":  "deployer",
}

// Create walks all non-hidden text files under dir, records a per-file
// SHA-256 manifest, computes the combined content checksum, and persists
// the checkpoint at outPath. It returns the content checksum.
//
// Binary files (invalid UTF-8) and the checkpoint file itself are
// excluded, so recomputing over the same directory reproduces the hash.
func Create(agent, dir, outPath string, logger *zap.Logger) (string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	files, sum, err := scan(dir, outPath)
	if err != nil {
		return "", err
	}

	cp := Checkpoint{
		Agent:           agent,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		Files:           files,
		TotalFiles:      len(files),
		ContentChecksum: sum,
		Status:          "completed",
		NextAgent:       nextAgent[agent],
	}

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create checkpoint directory: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write checkpoint: %w", err)
	}

	logger.Info("checkpoint created",
		zap.String("agent", agent),
		zap.Int("files", len(files)),
		zap.String("checksum", sum))

	return sum, nil
}

// Recompute returns the content checksum of dir using the same rules as
// Create, without writing anything. checkpointPath, if non-empty, names a
// file to exclude from the walk.
func Recompute(dir, checkpointPath string) (string, error) {
	_, sum, err := scan(dir, checkpointPath)
	return sum, err
}

// Load reads a checkpoint file.
func Load(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("failed to parse checkpoint: %w", err)
	}
	return &cp, nil
}

// Validate loads the checkpoint at path and, when expected is non-empty,
// compares checksums. A mismatch is reported via the boolean, not an
// error: the CI caller decides whether to halt.
func Validate(path, expected string, logger *zap.Logger) (bool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	cp, err := Load(path)
	if err != nil {
		logger.Error("checkpoint validation failed", zap.Error(err))
		return false, err
	}

	if expected != "" && cp.ContentChecksum != expected {
		logger.Error("checksum mismatch",
			zap.String("expected", expected),
			zap.String("actual", cp.ContentChecksum))
		return false, nil
	}

	logger.Info("checkpoint valid",
		zap.String("agent", cp.Agent),
		zap.Int("files", cp.TotalFiles),
		zap.String("checksum", cp.ContentChecksum))
	return true, nil
}

func scan(dir, excludePath string) (map[string]FileEntry, string, error) {
	files := make(map[string]FileEntry)

	absExclude := ""
	if excludePath != "" {
		if abs, err := filepath.Abs(excludePath); err == nil {
			absExclude = abs
		}
	}

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if abs, err := filepath.Abs(path); err == nil && abs == absExclude {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		if !utf8.Valid(content) {
			// Binary file, skipped like the rest of the pipeline does.
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		sum := sha256.Sum256(content)
		files[filepath.ToSlash(rel)] = FileEntry{
			Size:     len(content),
			Checksum: hex.EncodeToString(sum[:]),
		}
		return nil
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	return files, combinedChecksum(files), nil
}

// combinedChecksum hashes the sorted (relative-path, file-hash) pairs.
func combinedChecksum(files map[string]FileEntry) string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	h := sha256.New()
	for _, p := range paths {
		fmt.Fprintf(h, "%s:%s\n", p, files[p].Checksum)
	}
	return hex.EncodeToString(h.Sum(nil))
}
