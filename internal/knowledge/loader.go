// Package knowledge ingests the documentation corpus and organizes it into
// the four invariant axes the pipeline consumes: ontologies, parsings,
// vectors, and graphs. It also loads the assembled knowledge base for the
// planning and execution stages.
package knowledge

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Base is the in-memory knowledge base handed to the Planner and Executor.
type Base struct {
	DocsContent map[string]string          `json:"docs_content"`
	Analysis    map[string]json.RawMessage `json:"current_analysis"`
}

// LoadBase reads docs/*.md and analysis/*.json under dir. Missing
// directories yield empty maps, never errors: the pipeline always runs
// with whatever knowledge is available.
func LoadBase(dir string, logger *zap.Logger) *Base {
	if logger == nil {
		logger = zap.NewNop()
	}

	base := &Base{
		DocsContent: make(map[string]string),
		Analysis:    make(map[string]json.RawMessage),
	}

	docsDir := filepath.Join(dir, "docs")
	_ = filepath.WalkDir(docsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable doc", zap.String("path", path), zap.Error(err))
			return nil
		}
		rel, err := filepath.Rel(docsDir, path)
		if err != nil {
			return nil
		}
		base.DocsContent[filepath.ToSlash(rel)] = string(content)
		return nil
	})

	analysisDir := filepath.Join(dir, "analysis")
	entries, err := os.ReadDir(analysisDir)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}
			data, err := os.ReadFile(filepath.Join(analysisDir, entry.Name()))
			if err != nil {
				logger.Warn("skipping unreadable analysis", zap.String("file", entry.Name()), zap.Error(err))
				continue
			}
			if !json.Valid(data) {
				logger.Warn("skipping malformed analysis", zap.String("file", entry.Name()))
				continue
			}
			name := strings.TrimSuffix(entry.Name(), ".json")
			base.Analysis[name] = json.RawMessage(data)
		}
	}

	logger.Debug("knowledge base loaded",
		zap.Int("docs", len(base.DocsContent)),
		zap.Int("analysis", len(base.Analysis)))
	return base
}

// DocNames returns the sorted doc paths, for prompt summaries.
func (b *Base) DocNames() []string {
	return sortedKeys(b.DocsContent)
}

// AnalysisNames returns the sorted analysis names, for prompt summaries.
func (b *Base) AnalysisNames() []string {
	return sortedKeys(b.Analysis)
}
