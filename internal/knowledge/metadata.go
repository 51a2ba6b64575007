package knowledge

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// syncHistoryLimit caps the number of retained sync records.
const syncHistoryLimit = 20

var mainAxes = []string{"ontologies", "parsings", "vectors", "graphs"}

// SyncRecord is one entry of the knowledge sync history.
type SyncRecord struct {
	Timestamp      string `json:"timestamp"`
	CommitSHA      string `json:"commit_sha"`
	DocsRepository string `json:"docs_repository"`
	SyncType       string `json:"sync_type"`
	Status         string `json:"status"`
}

// DirStats summarizes one directory subtree.
type DirStats struct {
	TotalFiles     int                  `json:"total_files"`
	TotalSize      int64                `json:"total_size"`
	Subdirectories map[string]*DirStats `json:"subdirectories"`
	FileTypes      map[string]int       `json:"file_types"`
	LastModified   string               `json:"last_modified,omitempty"`
}

// ContentStats aggregates statistics across the four knowledge axes.
type ContentStats struct {
	Directories  map[string]*DirStats `json:"directories"`
	TotalSize    int64                `json:"total_size"`
	ContentTypes map[string]int       `json:"content_types"`
}

// AxisCompleteness reports whether one axis holds any content.
type AxisCompleteness struct {
	FileCount  int   `json:"file_count"`
	HasContent bool  `json:"has_content"`
	SizeBytes  int64 `json:"size_bytes"`
}

// QualityMetrics summarizes how populated the knowledge layout is.
type QualityMetrics struct {
	Completeness map[string]AxisCompleteness `json:"completeness"`
	Coverage     struct {
		AxesPopulated      int     `json:"axes_populated"`
		TotalAxes          int     `json:"total_axes"`
		CoveragePercentage float64 `json:"coverage_percentage"`
	} `json:"coverage"`
	Freshness string `json:"freshness"`
}

// FileEntry is one indexed file in the content index.
type FileEntry struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
	Type     string `json:"type"`
}

// DirIndex is the recursive directory listing of the content index.
type DirIndex struct {
	Files          []FileEntry          `json:"files"`
	Subdirectories map[string]*DirIndex `json:"subdirectories"`
}

// SearchItem is one searchable entry of the content index.
type SearchItem struct {
	Title    string   `json:"title"`
	Path     string   `json:"path"`
	Category string   `json:"category"`
	Type     string   `json:"type"`
	Keywords []string `json:"keywords"`
	Size     int64    `json:"size"`
	Modified string   `json:"modified"`
}

// MetadataUpdater refreshes metadata.json and content_index.json after a
// knowledge sync.
type MetadataUpdater struct {
	backgroundDir string
	commitSHA     string
	docsRepo      string
	timestamp     string
	logger        *zap.Logger
}

func NewMetadataUpdater(backgroundDir, commitSHA, docsRepo, timestamp string, logger *zap.Logger) *MetadataUpdater {
	return &MetadataUpdater{
		backgroundDir: backgroundDir,
		commitSHA:     commitSHA,
		docsRepo:      docsRepo,
		timestamp:     timestamp,
		logger:        logger,
	}
}

// UpdateAll refreshes the sync history, statistics and content index in place.
func (u *MetadataUpdater) UpdateAll() error {
	history := u.loadSyncHistory()
	history = u.appendSyncRecord(history)

	stats := u.collectStatistics()

	if err := u.writeMetadata(stats, history); err != nil {
		return err
	}
	if err := u.writeContentIndex(); err != nil {
		return err
	}
	if err := u.writeConfig(); err != nil {
		return err
	}
	u.logger.Info("metadata update complete",
		zap.Int64("total_size", stats.TotalSize),
		zap.Int("sync_records", len(history)))
	return nil
}

func (u *MetadataUpdater) loadSyncHistory() []SyncRecord {
	data, err := os.ReadFile(filepath.Join(u.backgroundDir, "metadata.json"))
	if err != nil {
		return nil
	}
	var existing struct {
		SyncHistory []SyncRecord `json:"sync_history"`
	}
	if err := json.Unmarshal(data, &existing); err != nil {
		u.logger.Warn("discarding unreadable metadata", zap.Error(err))
		return nil
	}
	return existing.SyncHistory
}

func (u *MetadataUpdater) appendSyncRecord(history []SyncRecord) []SyncRecord {
	for _, record := range history {
		if record.CommitSHA == u.commitSHA && record.Timestamp == u.timestamp {
			return history
		}
	}
	history = append(history, SyncRecord{
		Timestamp:      u.timestamp,
		CommitSHA:      u.commitSHA,
		DocsRepository: u.docsRepo,
		SyncType:       "automatic",
		Status:         "completed",
	})
	if len(history) > syncHistoryLimit {
		history = history[len(history)-syncHistoryLimit:]
	}
	return history
}

func (u *MetadataUpdater) collectStatistics() *ContentStats {
	stats := &ContentStats{
		Directories:  map[string]*DirStats{},
		ContentTypes: map[string]int{},
	}
	for _, axis := range mainAxes {
		dirStats := scanDirectory(filepath.Join(u.backgroundDir, axis))
		if dirStats == nil {
			continue
		}
		stats.Directories[axis] = dirStats
		stats.TotalSize += dirStats.TotalSize
		for fileType, count := range dirStats.FileTypes {
			stats.ContentTypes[fileType] += count
		}
	}
	return stats
}

func scanDirectory(dir string) *DirStats {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	stats := &DirStats{
		Subdirectories: map[string]*DirStats{},
		FileTypes:      map[string]int{},
	}
	var latest time.Time
	for _, entry := range entries {
		if entry.IsDir() {
			if sub := scanDirectory(filepath.Join(dir, entry.Name())); sub != nil {
				stats.Subdirectories[entry.Name()] = sub
				stats.TotalFiles += sub.TotalFiles
				stats.TotalSize += sub.TotalSize
				for fileType, count := range sub.FileTypes {
					stats.FileTypes[fileType] += count
				}
				if sub.LastModified > stats.LastModified {
					stats.LastModified = sub.LastModified
				}
			}
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		stats.TotalFiles++
		stats.TotalSize += info.Size()
		fileType := strings.ToLower(filepath.Ext(entry.Name()))
		if fileType == "" {
			fileType = "no_extension"
		}
		stats.FileTypes[fileType]++
		if info.ModTime().After(latest) {
			latest = info.ModTime()
			stats.LastModified = latest.UTC().Format(time.RFC3339)
		}
	}
	return stats
}

func (u *MetadataUpdater) qualityMetrics(stats *ContentStats) QualityMetrics {
	metrics := QualityMetrics{
		Completeness: map[string]AxisCompleteness{},
		Freshness:    u.timestamp,
	}
	populated := 0
	for _, axis := range mainAxes {
		var fileCount int
		var size int64
		if dirStats, ok := stats.Directories[axis]; ok {
			fileCount = dirStats.TotalFiles
			size = dirStats.TotalSize
		}
		metrics.Completeness[axis] = AxisCompleteness{
			FileCount:  fileCount,
			HasContent: fileCount > 0,
			SizeBytes:  size,
		}
		if fileCount > 0 {
			populated++
		}
	}
	metrics.Coverage.AxesPopulated = populated
	metrics.Coverage.TotalAxes = len(mainAxes)
	metrics.Coverage.CoveragePercentage = float64(populated) / float64(len(mainAxes)) * 100
	return metrics
}

// axisDescriptions documents the four-axes layout in the metadata file.
var axisDescriptions = []map[string]any{
	{"name": "ontologies", "description": "Conceptual frameworks and taxonomies", "subdirectories": []string{"concepts", "taxonomies", "frameworks"}},
	{"name": "parsings", "description": "Structured content analysis", "subdirectories": []string{"markdown", "structured", "extracted"}},
	{"name": "vectors", "description": "Semantic representations", "subdirectories": []string{"embeddings", "indices"}},
	{"name": "graphs", "description": "Knowledge relationships and connections", "subdirectories": []string{"knowledge", "relationships"}},
}

func (u *MetadataUpdater) writeMetadata(stats *ContentStats, history []SyncRecord) error {
	metadata := map[string]any{
		"sync_info": map[string]any{
			"last_sync":       u.timestamp,
			"commit_sha":      u.commitSHA,
			"docs_repository": u.docsRepo,
			"sync_trigger":    "docs_repository_update",
		},
		"content_statistics": stats,
		"organization":       map[string]any{"axes": axisDescriptions},
		"quality_metrics":    u.qualityMetrics(stats),
		"sync_history":       history,
		"system_info": map[string]any{
			"format_version": "1.0",
			"generator":      "docs-sync-automation",
			"encoding":       "utf-8",
		},
	}
	return writeJSON(filepath.Join(u.backgroundDir, "metadata.json"), metadata)
}

func (u *MetadataUpdater) writeContentIndex() error {
	structure := map[string]*DirIndex{}
	for _, axis := range mainAxes {
		if index := u.buildDirIndex(filepath.Join(u.backgroundDir, axis)); index != nil {
			structure[axis] = index
		}
	}

	quickAccess := map[string][]FileEntry{}
	var allFiles []FileEntry
	for _, axis := range mainAxes {
		index, ok := structure[axis]
		if !ok {
			continue
		}
		files := collectFiles(index)
		allFiles = append(allFiles, files...)
		sort.Slice(files, func(i, j int) bool {
			if files[i].Modified != files[j].Modified {
				return files[i].Modified > files[j].Modified
			}
			return files[i].Name < files[j].Name
		})
		if len(files) > 5 {
			files = files[:5]
		}
		quickAccess["latest_"+axis] = files
	}
	quickAccess["vector_files"] = filterByKeywords(allFiles, []string{"embedding", "vector", "tfidf"})
	quickAccess["graph_files"] = filterByKeywords(allFiles, []string{"graph", "relationship", "cypher"})

	var searchIndex []SearchItem
	for _, axis := range mainAxes {
		index, ok := structure[axis]
		if !ok {
			continue
		}
		for _, file := range collectFiles(index) {
			searchIndex = append(searchIndex, SearchItem{
				Title:    file.Name,
				Path:     file.Path,
				Category: axis,
				Type:     "file",
				Keywords: filenameKeywords(file.Name),
				Size:     file.Size,
				Modified: file.Modified,
			})
		}
	}
	if searchIndex == nil {
		searchIndex = []SearchItem{}
	}

	content := map[string]any{
		"generated_at": u.timestamp,
		"structure":    structure,
		"quick_access": quickAccess,
		"search_index": searchIndex,
	}
	return writeJSON(filepath.Join(u.backgroundDir, "content_index.json"), content)
}

// writeConfig records how the knowledge base is organized and synced so
// downstream tooling can discover the layout without hardcoding it.
func (u *MetadataUpdater) writeConfig() error {
	config := map[string]any{
		"background_system": map[string]any{
			"version":      "1.0.0",
			"last_updated": u.timestamp,
			"axes": map[string]any{
				"ontologies": map[string]any{
					"enabled":     true,
					"description": "Conceptual frameworks and taxonomies",
					"processing":  []string{"extraction", "categorization", "hierarchies"},
				},
				"parsings": map[string]any{
					"enabled":     true,
					"description": "Structured content analysis",
					"processing":  []string{"markdown", "yaml", "text_extraction"},
				},
				"vectors": map[string]any{
					"enabled":     true,
					"description": "Semantic representations",
					"processing":  []string{"tfidf", "embeddings", "similarity_matrices"},
				},
				"graphs": map[string]any{
					"enabled":     true,
					"description": "Knowledge relationships",
					"processing":  []string{"entity_extraction", "relationship_mapping", "graph_formats"},
				},
			},
		},
		"sync_configuration": map[string]any{
			"docs_repository": u.docsRepo,
			"trigger_events":  []string{"repository_dispatch", "workflow_dispatch"},
			"auto_processing": true,
			"output_formats":  []string{"json", "cypher", "graphml"},
			"retention": map[string]any{
				"sync_history_records": syncHistoryLimit,
				"max_file_age_days":    90,
			},
		},
	}
	return writeJSON(filepath.Join(u.backgroundDir, "config.json"), config)
}

func (u *MetadataUpdater) buildDirIndex(dir string) *DirIndex {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	index := &DirIndex{
		Files:          []FileEntry{},
		Subdirectories: map[string]*DirIndex{},
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if sub := u.buildDirIndex(path); sub != nil {
				index.Subdirectories[entry.Name()] = sub
			}
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(u.backgroundDir, path)
		if err != nil {
			rel = entry.Name()
		}
		fileType := strings.ToLower(filepath.Ext(entry.Name()))
		if fileType == "" {
			fileType = "no_extension"
		}
		index.Files = append(index.Files, FileEntry{
			Name:     entry.Name(),
			Path:     filepath.ToSlash(rel),
			Size:     info.Size(),
			Modified: info.ModTime().UTC().Format(time.RFC3339),
			Type:     fileType,
		})
	}
	return index
}

func collectFiles(index *DirIndex) []FileEntry {
	files := append([]FileEntry{}, index.Files...)
	for _, name := range sortedDirIndexKeys(index.Subdirectories) {
		files = append(files, collectFiles(index.Subdirectories[name])...)
	}
	return files
}

func sortedDirIndexKeys(m map[string]*DirIndex) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func filterByKeywords(files []FileEntry, keywords []string) []FileEntry {
	matched := []FileEntry{}
	for _, file := range files {
		lower := strings.ToLower(file.Name)
		for _, keyword := range keywords {
			if strings.Contains(lower, keyword) {
				matched = append(matched, file)
				break
			}
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Path < matched[j].Path })
	return matched
}

var keywordSplit = regexp.MustCompile(`[_\-\s]+`)

func filenameKeywords(filename string) []string {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	var keywords []string
	for _, part := range keywordSplit.Split(strings.ToLower(stem), -1) {
		if len(part) > 2 {
			keywords = append(keywords, part)
		}
	}
	return keywords
}

// NowTimestamp is the canonical timestamp format for knowledge artifacts.
func NowTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
