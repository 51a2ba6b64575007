package knowledge

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// axisDirs is the four-axes layout every processing run guarantees.
var axisDirs = []string{
	"ontologies/concepts",
	"ontologies/taxonomies",
	"ontologies/frameworks",
	"parsings/markdown",
	"parsings/structured",
	"parsings/extracted",
	"vectors/embeddings",
	"vectors/indices",
	"graphs/knowledge",
	"graphs/relationships",
}

// ParsedDocument is the structured form of one markdown source file.
type ParsedDocument struct {
	OriginalPath string    `json:"original_path"`
	Title        string    `json:"title"`
	Headings     []Heading `json:"headings"`
	Concepts     []string  `json:"concepts"`
	Content      string    `json:"content"`
	ProcessedAt  string    `json:"processed_at"`
	ContentHash  string    `json:"content_hash"`
}

// Heading is one markdown heading with its nesting level.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// ProcessingStats summarizes one processing run.
type ProcessingStats struct {
	TotalFiles      int `json:"total_files"`
	OntologiesCount int `json:"ontologies_count"`
	ParsingsCount   int `json:"parsings_count"`
	ContentSize     int `json:"content_size"`
	SkippedFiles    int `json:"skipped_files"`
}

// ProcessingMetadata is written to processing_metadata.json after each run.
type ProcessingMetadata struct {
	SyncTimestamp  string          `json:"sync_timestamp"`
	ProcessedFiles []string        `json:"processed_files"`
	Statistics     ProcessingStats `json:"statistics"`
}

// Processor organizes raw documentation into the four-axes knowledge layout.
type Processor struct {
	sourceDir   string
	targetDir   string
	timestamp   string
	domainTerms []string
	logger      *zap.Logger
}

// NewProcessor returns a Processor for one run. domainTerms seed the
// ontology extraction on top of the generic concept patterns.
func NewProcessor(sourceDir, targetDir, timestamp string, domainTerms []string, logger *zap.Logger) *Processor {
	return &Processor{
		sourceDir:   sourceDir,
		targetDir:   targetDir,
		timestamp:   timestamp,
		domainTerms: domainTerms,
		logger:      logger,
	}
}

// ProcessAll runs the full ingestion: markdown, YAML and text sources,
// ontology extraction, per-axis indexes, and processing metadata.
// Unchanged markdown files are skipped based on their recorded content hash.
func (p *Processor) ProcessAll() (*ProcessingMetadata, error) {
	for _, dir := range axisDirs {
		if err := os.MkdirAll(filepath.Join(p.targetDir, dir), 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	meta := &ProcessingMetadata{
		SyncTimestamp:  p.timestamp,
		ProcessedFiles: []string{},
	}

	if err := p.processMarkdown(meta); err != nil {
		return nil, err
	}
	if err := p.processYAML(meta); err != nil {
		return nil, err
	}
	if err := p.processText(meta); err != nil {
		return nil, err
	}
	if err := p.extractOntologies(meta); err != nil {
		return nil, err
	}
	if err := p.writeIndexes(); err != nil {
		return nil, err
	}

	meta.Statistics.ParsingsCount = len(meta.ProcessedFiles)

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding processing metadata: %w", err)
	}
	path := filepath.Join(p.targetDir, "processing_metadata.json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return nil, fmt.Errorf("writing processing metadata: %w", err)
	}

	p.logger.Info("documentation processing complete",
		zap.Int("files", len(meta.ProcessedFiles)),
		zap.Int("skipped", meta.Statistics.SkippedFiles))
	return meta, nil
}

func (p *Processor) processMarkdown(meta *ProcessingMetadata) error {
	files, err := findByExt(p.sourceDir, ".md")
	if err != nil {
		return err
	}

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			p.logger.Warn("skipping unreadable markdown", zap.String("file", path), zap.Error(err))
			continue
		}
		content := string(data)
		hash := contentHash(content)

		rel, err := filepath.Rel(p.sourceDir, path)
		if err != nil {
			return err
		}
		stem := strings.TrimSuffix(filepath.Base(path), ".md")
		outPath := filepath.Join(p.targetDir, "parsings", "markdown", stem+".json")

		if existing, err := loadParsed(outPath); err == nil && existing.ContentHash == hash {
			p.logger.Debug("skipping unchanged file", zap.String("file", rel))
			meta.Statistics.SkippedFiles++
			meta.ProcessedFiles = append(meta.ProcessedFiles, rel)
			meta.Statistics.TotalFiles++
			meta.Statistics.ContentSize += len(content)
			continue
		}

		parsed := ParsedDocument{
			OriginalPath: filepath.ToSlash(rel),
			Title:        extractTitle(content),
			Headings:     extractHeadings(content),
			Concepts:     ExtractConcepts(content),
			Content:      content,
			ProcessedAt:  p.timestamp,
			ContentHash:  hash,
		}

		if err := writeJSON(outPath, parsed); err != nil {
			return err
		}
		p.logger.Debug("processed markdown", zap.String("file", rel))

		meta.ProcessedFiles = append(meta.ProcessedFiles, rel)
		meta.Statistics.TotalFiles++
		meta.Statistics.ContentSize += len(content)
	}
	return nil
}

func (p *Processor) processYAML(meta *ProcessingMetadata) error {
	files, err := findByExt(p.sourceDir, ".yml", ".yaml")
	if err != nil {
		return err
	}

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			p.logger.Warn("skipping unreadable yaml", zap.String("file", path), zap.Error(err))
			continue
		}
		var parsed any
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			p.logger.Warn("skipping malformed yaml", zap.String("file", path), zap.Error(err))
			continue
		}

		rel, err := filepath.Rel(p.sourceDir, path)
		if err != nil {
			return err
		}
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		out := map[string]any{
			"original_path": filepath.ToSlash(rel),
			"data":          parsed,
			"processed_at":  p.timestamp,
		}
		if err := writeJSON(filepath.Join(p.targetDir, "parsings", "structured", stem+".json"), out); err != nil {
			return err
		}
		meta.ProcessedFiles = append(meta.ProcessedFiles, rel)
		meta.Statistics.TotalFiles++
	}
	return nil
}

func (p *Processor) processText(meta *ProcessingMetadata) error {
	files, err := findByExt(p.sourceDir, ".txt")
	if err != nil {
		return err
	}

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			p.logger.Warn("skipping unreadable text", zap.String("file", path), zap.Error(err))
			continue
		}
		content := string(data)

		rel, err := filepath.Rel(p.sourceDir, path)
		if err != nil {
			return err
		}
		stem := strings.TrimSuffix(filepath.Base(path), ".txt")
		out := map[string]any{
			"original_path": filepath.ToSlash(rel),
			"content":       content,
			"line_count":    len(strings.Split(strings.TrimRight(content, "\n"), "\n")),
			"word_count":    len(strings.Fields(content)),
			"processed_at":  p.timestamp,
		}
		if err := writeJSON(filepath.Join(p.targetDir, "parsings", "extracted", stem+".json"), out); err != nil {
			return err
		}
		meta.ProcessedFiles = append(meta.ProcessedFiles, rel)
		meta.Statistics.TotalFiles++
	}
	return nil
}

// OntologyItem is one extracted ontology entry.
type OntologyItem struct {
	Term        string   `json:"term,omitempty"`
	Category    string   `json:"category,omitempty"`
	Name        string   `json:"name,omitempty"`
	Items       []string `json:"items,omitempty"`
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	FoundAt     string   `json:"found_at,omitempty"`
}

func (p *Processor) extractOntologies(meta *ProcessingMetadata) error {
	var concepts, taxonomies, frameworks []OntologyItem

	files, err := findByExt(p.sourceDir, ".md")
	if err != nil {
		return err
	}
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		content := string(data)
		concepts = append(concepts, p.extractDomainConcepts(content)...)
		taxonomies = append(taxonomies, extractTaxonomies(content, p.timestamp)...)
		frameworks = append(frameworks, extractFrameworks(content, p.timestamp)...)
	}

	if err := p.saveOntology("concepts", concepts); err != nil {
		return err
	}
	if err := p.saveOntology("taxonomies", taxonomies); err != nil {
		return err
	}
	if err := p.saveOntology("frameworks", frameworks); err != nil {
		return err
	}

	meta.Statistics.OntologiesCount = len(concepts) + len(taxonomies) + len(frameworks)
	return nil
}

func (p *Processor) extractDomainConcepts(content string) []OntologyItem {
	lower := strings.ToLower(content)
	var items []OntologyItem
	for _, term := range p.domainTerms {
		if strings.Contains(lower, strings.ToLower(term)) {
			items = append(items, OntologyItem{
				Term:     term,
				Category: "domain_concept",
				FoundAt:  p.timestamp,
			})
		}
	}
	return items
}

// taxonomyHeading matches section headings that introduce a classification.
var taxonomyWords = []string{"types", "categories", "classification"}

func extractTaxonomies(content, timestamp string) []OntologyItem {
	var taxonomies []OntologyItem
	var current *OntologyItem

	flush := func() {
		if current != nil && len(current.Items) > 0 {
			taxonomies = append(taxonomies, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "##") && containsAnyWord(strings.ToLower(trimmed), taxonomyWords):
			flush()
			current = &OntologyItem{
				Name:    strings.TrimSpace(strings.TrimLeft(trimmed, "#")),
				Items:   []string{},
				FoundAt: timestamp,
			}
		case current != nil && strings.HasPrefix(trimmed, "-"):
			current.Items = append(current.Items, strings.TrimSpace(strings.TrimPrefix(trimmed, "-")))
		case current != nil && trimmed == "":
			flush()
		}
	}
	flush()
	return taxonomies
}

var frameworkIndicators = []string{"framework", "architecture", "system", "engine", "pipeline"}

func extractFrameworks(content, timestamp string) []OntologyItem {
	var frameworks []OntologyItem
	for _, indicator := range frameworkIndicators {
		re := regexp.MustCompile(`(?is)` + indicator + `[:\s]+(.*?)(?:\n\n|\n#|$)`)
		for _, match := range re.FindAllStringSubmatch(content, -1) {
			description := strings.TrimSpace(match[1])
			if len(description) > 20 {
				frameworks = append(frameworks, OntologyItem{
					Type:        indicator,
					Description: description,
					FoundAt:     timestamp,
				})
			}
		}
	}
	return frameworks
}

func (p *Processor) saveOntology(category string, items []OntologyItem) error {
	if len(items) == 0 {
		return nil
	}
	out := map[string]any{
		"category":     category,
		"items":        items,
		"count":        len(items),
		"generated_at": p.timestamp,
	}
	return writeJSON(filepath.Join(p.targetDir, "ontologies", category, category+".json"), out)
}

func (p *Processor) writeIndexes() error {
	parsingsIndex := map[string]any{"generated_at": p.timestamp}
	for _, subdir := range []string{"markdown", "structured", "extracted"} {
		names, err := listJSONNames(filepath.Join(p.targetDir, "parsings", subdir))
		if err != nil {
			return err
		}
		parsingsIndex[subdir+"_files"] = names
	}
	if err := writeJSON(filepath.Join(p.targetDir, "parsings", "index.json"), parsingsIndex); err != nil {
		return err
	}

	categories := []string{"concepts", "taxonomies", "frameworks"}
	var files []string
	for _, category := range categories {
		names, err := listJSONNames(filepath.Join(p.targetDir, "ontologies", category))
		if err != nil {
			return err
		}
		for _, name := range names {
			files = append(files, category+"/"+name)
		}
	}
	ontologiesIndex := map[string]any{
		"generated_at": p.timestamp,
		"categories":   categories,
		"files":        files,
	}
	return writeJSON(filepath.Join(p.targetDir, "ontologies", "index.json"), ontologiesIndex)
}

// titleHeading matches a level-one markdown heading.
var titleHeading = regexp.MustCompile(`(?m)^# (.+)$`)

func extractTitle(content string) string {
	if m := titleHeading.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return "Untitled"
}

var headingLine = regexp.MustCompile(`(?m)^(#{1,6}) (.+)$`)

func extractHeadings(content string) []Heading {
	var headings []Heading
	for _, m := range headingLine.FindAllStringSubmatch(content, -1) {
		headings = append(headings, Heading{
			Level: len(m[1]),
			Text:  strings.TrimSpace(m[2]),
		})
	}
	return headings
}

// conceptPattern matches all-caps acronyms and CamelCase terms.
var conceptPattern = regexp.MustCompile(`\b[A-Z][A-Z0-9]+\b|\b[A-Z][a-z]+(?:[A-Z][a-z]+)+\b`)

// conceptStopwords are common words the pattern would otherwise pick up.
var conceptStopwords = map[string]bool{"THE": true, "AND": true, "FOR": true, "WITH": true}

// ExtractConcepts pulls candidate concept terms out of free text:
// acronyms and CamelCase identifiers longer than two characters, deduplicated
// and sorted.
func ExtractConcepts(content string) []string {
	seen := map[string]bool{}
	for _, match := range conceptPattern.FindAllString(content, -1) {
		if len(match) > 2 && !conceptStopwords[match] {
			seen[match] = true
		}
	}
	return sortedKeys(seen)
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func loadParsed(path string) (*ParsedDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc ParsedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func findByExt(dir string, exts ...string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		for _, ext := range exts {
			if filepath.Ext(path) == ext {
				files = append(files, path)
				break
			}
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func listJSONNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}
	names := []string{}
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func containsAnyWord(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	return nil
}
