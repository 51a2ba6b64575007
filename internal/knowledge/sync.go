package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// syncedExtensions are the file types pulled from the docs repository.
var syncedExtensions = map[string]bool{".md": true, ".txt": true, ".json": true}

// SyncedFile is one document fetched from the docs repository.
type SyncedFile struct {
	Content      string `json:"content"`
	Size         int    `json:"size"`
	Path         string `json:"path"`
	LastModified string `json:"last_modified"`
	SHA          string `json:"sha"`
}

// SyncSummary counts what a sync run fetched.
type SyncSummary struct {
	TotalFiles    int `json:"total_files"`
	MarkdownFiles int `json:"markdown_files"`
	TotalSize     int `json:"total_size"`
}

// KnowledgeBase is the docs_knowledge.json payload.
type KnowledgeBase struct {
	Timestamp  string                `json:"timestamp"`
	SourceRepo string                `json:"source_repo"`
	Files      map[string]SyncedFile `json:"files"`
	Summary    SyncSummary           `json:"summary"`
}

// Syncer pulls documentation from a GitHub repository via the contents API.
type Syncer struct {
	apiBase    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewSyncer(apiBase, token string, logger *zap.Logger) *Syncer {
	return &Syncer{
		apiBase:    strings.TrimSuffix(apiBase, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

type contentsEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	SHA         string `json:"sha"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
}

// Sync fetches every top-level markdown, text and JSON file of docsRepo and
// writes docs_knowledge.json plus a human-readable sync_summary.md under
// outputDir.
func (s *Syncer) Sync(ctx context.Context, docsRepo, outputDir, timestamp string) (*KnowledgeBase, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating sync output dir: %w", err)
	}

	entries, err := s.listContents(ctx, docsRepo)
	if err != nil {
		return nil, err
	}

	kb := &KnowledgeBase{
		Timestamp:  timestamp,
		SourceRepo: docsRepo,
		Files:      map[string]SyncedFile{},
	}
	for _, entry := range entries {
		if entry.Type != "file" || !syncedExtensions[strings.ToLower(filepath.Ext(entry.Name))] {
			continue
		}
		content, err := s.download(ctx, entry.DownloadURL)
		if err != nil {
			s.logger.Warn("skipping unfetchable file",
				zap.String("name", entry.Name), zap.Error(err))
			continue
		}
		kb.Files[entry.Name] = SyncedFile{
			Content: content,
			Size:    len(content),
			Path:    entry.Path,
			SHA:     entry.SHA,
		}
		kb.Summary.TotalFiles++
		kb.Summary.TotalSize += len(content)
		if strings.HasSuffix(entry.Name, ".md") {
			kb.Summary.MarkdownFiles++
		}
	}

	if err := writeJSON(filepath.Join(outputDir, "docs_knowledge.json"), kb); err != nil {
		return nil, err
	}
	if err := s.writeSummary(outputDir, kb); err != nil {
		return nil, err
	}

	s.logger.Info("knowledge sync complete",
		zap.String("repo", docsRepo),
		zap.Int("files", kb.Summary.TotalFiles),
		zap.Int("bytes", kb.Summary.TotalSize))
	return kb, nil
}

func (s *Syncer) listContents(ctx context.Context, docsRepo string) ([]contentsEntry, error) {
	url := fmt.Sprintf("%s/repos/%s/contents", s.apiBase, docsRepo)
	body, status, err := s.get(ctx, url)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("listing %s contents: status %d", docsRepo, status)
	}
	var entries []contentsEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decoding contents listing: %w", err)
	}
	return entries, nil
}

func (s *Syncer) download(ctx context.Context, url string) (string, error) {
	body, status, err := s.get(ctx, url)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("downloading %s: status %d", url, status)
	}
	return string(body), nil
}

func (s *Syncer) get(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("requesting %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("reading response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func (s *Syncer) writeSummary(outputDir string, kb *KnowledgeBase) error {
	var sb strings.Builder
	sb.WriteString("# Docs Knowledge Sync Report\n\n")
	sb.WriteString(fmt.Sprintf("**Timestamp**: %s\n", kb.Timestamp))
	sb.WriteString(fmt.Sprintf("**Source Repository**: %s\n", kb.SourceRepo))
	sb.WriteString(fmt.Sprintf("**Total Files**: %d\n", kb.Summary.TotalFiles))
	sb.WriteString(fmt.Sprintf("**Markdown Files**: %d\n", kb.Summary.MarkdownFiles))
	sb.WriteString(fmt.Sprintf("**Total Size**: %d bytes\n\n", kb.Summary.TotalSize))
	sb.WriteString("## Files Synced:\n\n")

	names := make([]string, 0, len(kb.Files))
	for name := range kb.Files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sb.WriteString(fmt.Sprintf("- **%s**: %d bytes\n", name, kb.Files[name].Size))
	}

	return os.WriteFile(filepath.Join(outputDir, "sync_summary.md"), []byte(sb.String()), 0o644)
}
