package knowledge

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Store is the SQLite-backed search index over processed documents.
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// NewStore opens (or creates) the index database at path.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating index dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening index database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			logger.Debug("pragma failed", zap.String("pragma", pragma), zap.Error(err))
		}
	}

	store := &Store{db: db, path: path, logger: logger}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		path TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		content_hash TEXT NOT NULL,
		word_count INTEGER NOT NULL,
		indexed_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_title ON documents(title);

	CREATE TABLE IF NOT EXISTS concepts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		term TEXT NOT NULL,
		document_path TEXT NOT NULL,
		UNIQUE(term, document_path)
	);
	CREATE INDEX IF NOT EXISTS idx_concepts_term ON concepts(term);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("initializing index schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// IndexStats summarizes one indexing run.
type IndexStats struct {
	Indexed int
	Skipped int
}

// IndexDocuments loads every parsed markdown document under parsingsDir and
// upserts it into the index. Documents whose content hash is unchanged are
// skipped.
func (s *Store) IndexDocuments(parsingsDir, timestamp string) (IndexStats, error) {
	var stats IndexStats

	files, err := findByExt(filepath.Join(parsingsDir, "markdown"), ".json")
	if err != nil {
		return stats, err
	}
	for _, path := range files {
		doc, err := loadParsed(path)
		if err != nil {
			s.logger.Warn("skipping unreadable document", zap.String("path", path), zap.Error(err))
			continue
		}

		var existingHash string
		err = s.db.QueryRow("SELECT content_hash FROM documents WHERE path = ?", doc.OriginalPath).Scan(&existingHash)
		if err == nil && existingHash == doc.ContentHash {
			stats.Skipped++
			continue
		}
		if err != nil && err != sql.ErrNoRows {
			return stats, fmt.Errorf("checking document %s: %w", doc.OriginalPath, err)
		}

		if err := s.upsertDocument(doc, timestamp); err != nil {
			return stats, err
		}
		stats.Indexed++
	}

	s.logger.Info("document index updated",
		zap.Int("indexed", stats.Indexed),
		zap.Int("skipped", stats.Skipped))
	return stats, nil
}

func (s *Store) upsertDocument(doc *ParsedDocument, timestamp string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting index transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO documents (path, title, content, content_hash, word_count, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			content_hash = excluded.content_hash,
			word_count = excluded.word_count,
			indexed_at = excluded.indexed_at`,
		doc.OriginalPath, doc.Title, doc.Content, doc.ContentHash,
		len(strings.Fields(doc.Content)), timestamp)
	if err != nil {
		return fmt.Errorf("upserting document %s: %w", doc.OriginalPath, err)
	}

	if _, err := tx.Exec("DELETE FROM concepts WHERE document_path = ?", doc.OriginalPath); err != nil {
		return fmt.Errorf("clearing concepts for %s: %w", doc.OriginalPath, err)
	}
	for _, concept := range doc.Concepts {
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO concepts (term, document_path) VALUES (?, ?)",
			concept, doc.OriginalPath); err != nil {
			return fmt.Errorf("inserting concept %s: %w", concept, err)
		}
	}

	return tx.Commit()
}

// SearchResult is one index hit.
type SearchResult struct {
	Path      string `json:"path"`
	Title     string `json:"title"`
	Snippet   string `json:"snippet"`
	WordCount int    `json:"word_count"`
}

// Search runs a case-insensitive substring match over titles and content.
func (s *Store) Search(query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	pattern := "%" + strings.ToLower(query) + "%"
	rows, err := s.db.Query(`
		SELECT path, title, content, word_count FROM documents
		WHERE lower(title) LIKE ? OR lower(content) LIKE ?
		ORDER BY path LIMIT ?`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var result SearchResult
		var content string
		if err := rows.Scan(&result.Path, &result.Title, &content, &result.WordCount); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		result.Snippet = snippet(content, query)
		results = append(results, result)
	}
	return results, rows.Err()
}

// ConceptDocuments returns the paths of documents mentioning the given term.
func (s *Store) ConceptDocuments(term string) ([]string, error) {
	rows, err := s.db.Query(
		"SELECT document_path FROM concepts WHERE term = ? ORDER BY document_path", term)
	if err != nil {
		return nil, fmt.Errorf("querying concept %s: %w", term, err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

// Stats reports document and concept counts.
func (s *Store) Stats() (documents, concepts int, err error) {
	if err = s.db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&documents); err != nil {
		return 0, 0, fmt.Errorf("counting documents: %w", err)
	}
	if err = s.db.QueryRow("SELECT COUNT(DISTINCT term) FROM concepts").Scan(&concepts); err != nil {
		return 0, 0, fmt.Errorf("counting concepts: %w", err)
	}
	return documents, concepts, nil
}

// snippetRadius is how many characters of context surround a match.
const snippetRadius = 60

func snippet(content, query string) string {
	idx := strings.Index(strings.ToLower(content), strings.ToLower(query))
	if idx < 0 {
		if len(content) > 2*snippetRadius {
			return content[:2*snippetRadius] + "..."
		}
		return content
	}
	start := idx - snippetRadius
	if start < 0 {
		start = 0
	}
	end := idx + len(query) + snippetRadius
	if end > len(content) {
		end = len(content)
	}
	out := content[start:end]
	if start > 0 {
		out = "..." + out
	}
	if end < len(content) {
		out += "..."
	}
	return out
}
