// Package store provides SQLite-backed persistence for analysis runs,
// their segment embeddings, and the embedding cache.
package store

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/depolab/depoindex/internal/index"
)

// Run is one persisted transcript analysis.
type Run struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	SourceFile   string          `json:"source_file"`
	Status       string          `json:"status"`
	LLMUsed      bool            `json:"llm_used"`
	SegmentCount int             `json:"segment_count"`
	ContentHash  string          `json:"content_hash,omitempty"`
	TOC          *index.TOC      `json:"toc,omitempty"`
	Sections     []index.Section `json:"sections,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// RunSummary is a Run without the TOC payload, for listings.
type RunSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	SourceFile   string    `json:"source_file"`
	Status       string    `json:"status"`
	LLMUsed      bool      `json:"llm_used"`
	SegmentCount int       `json:"segment_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store wraps a SQLite database for run and embedding persistence.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) a SQLite database at dbPath and ensures all
// required tables exist. Use ":memory:" for an in-memory database.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id            TEXT PRIMARY KEY,
			title         TEXT NOT NULL,
			source_file   TEXT NOT NULL,
			status        TEXT NOT NULL,
			llm_used      INTEGER NOT NULL DEFAULT 0,
			segment_count INTEGER NOT NULL DEFAULT 0,
			content_hash  TEXT NOT NULL DEFAULT '',
			payload       TEXT NOT NULL,
			created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
		)`,
		`CREATE TABLE IF NOT EXISTS run_vectors (
			run_id TEXT NOT NULL,
			idx    INTEGER NOT NULL,
			topic  TEXT NOT NULL,
			vector BLOB NOT NULL,
			PRIMARY KEY (run_id, idx)
		)`,
		`CREATE TABLE IF NOT EXISTS embedding_cache (
			key        TEXT PRIMARY KEY,
			model      TEXT NOT NULL,
			vector     BLOB NOT NULL,
			created_at DATETIME NOT NULL DEFAULT (datetime('now'))
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// runPayload holds the JSON-serialized parts of a Run.
type runPayload struct {
	TOC      *index.TOC      `json:"toc,omitempty"`
	Sections []index.Section `json:"sections,omitempty"`
}

// SaveRun persists a run. An existing run with the same ID is replaced.
func (s *Store) SaveRun(run *Run) error {
	payload, err := json.Marshal(runPayload{TOC: run.TOC, Sections: run.Sections})
	if err != nil {
		return fmt.Errorf("marshal run payload: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO runs (id, title, source_file, status, llm_used, segment_count, content_hash, payload, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))`,
		run.ID, run.Title, run.SourceFile, run.Status, run.LLMUsed, run.SegmentCount, run.ContentHash, string(payload),
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID. Returns nil if not found.
func (s *Store) GetRun(id string) (*Run, error) {
	var run Run
	var payload string
	err := s.db.QueryRow(
		`SELECT id, title, source_file, status, llm_used, segment_count, content_hash, payload, created_at
		 FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.Title, &run.SourceFile, &run.Status, &run.LLMUsed, &run.SegmentCount, &run.ContentHash, &payload, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	var p runPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return nil, fmt.Errorf("unmarshal run payload: %w", err)
	}
	run.TOC = p.TOC
	run.Sections = p.Sections
	return &run, nil
}

// FindRunByHash returns the ID of a run with the given content hash, or
// "" when none exists. Used for duplicate detection.
func (s *Store) FindRunByHash(hash string) (string, error) {
	if hash == "" {
		return "", nil
	}
	var id string
	err := s.db.QueryRow(
		`SELECT id FROM runs WHERE content_hash = ? ORDER BY created_at DESC LIMIT 1`, hash,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find run by hash: %w", err)
	}
	return id, nil
}

// ListRuns returns summaries of all runs, newest first.
func (s *Store) ListRuns() ([]RunSummary, error) {
	rows, err := s.db.Query(
		`SELECT id, title, source_file, status, llm_used, segment_count, created_at
		 FROM runs ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.Title, &r.SourceFile, &r.Status, &r.LLMUsed, &r.SegmentCount, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and its vectors. Deleting a missing run is not
// an error.
func (s *Store) DeleteRun(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM run_vectors WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("delete run vectors: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return tx.Commit()
}

// SaveVectors stores the segment vectors and their assigned topics for a
// run, replacing any existing set.
func (s *Store) SaveVectors(runID string, topics []string, vectors [][]float32) error {
	if len(topics) != len(vectors) {
		return fmt.Errorf("topics/vectors length mismatch: %d vs %d", len(topics), len(vectors))
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM run_vectors WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("clear run vectors: %w", err)
	}
	for i := range vectors {
		_, err := tx.Exec(
			`INSERT INTO run_vectors (run_id, idx, topic, vector) VALUES (?, ?, ?, ?)`,
			runID, i, topics[i], encodeVector(vectors[i]),
		)
		if err != nil {
			return fmt.Errorf("insert vector %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// GetVectors returns a run's topics and vectors in segment order.
func (s *Store) GetVectors(runID string) ([]string, [][]float32, error) {
	rows, err := s.db.Query(
		`SELECT topic, vector FROM run_vectors WHERE run_id = ? ORDER BY idx`, runID,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("get vectors: %w", err)
	}
	defer rows.Close()

	var topics []string
	var vectors [][]float32
	for rows.Next() {
		var topic string
		var blob []byte
		if err := rows.Scan(&topic, &blob); err != nil {
			return nil, nil, fmt.Errorf("scan vector: %w", err)
		}
		vec, err := decodeVector(blob)
		if err != nil {
			return nil, nil, err
		}
		topics = append(topics, topic)
		vectors = append(vectors, vec)
	}
	return topics, vectors, rows.Err()
}

// GetVector looks up a cached embedding. Implements the embed cache
// interface; a miss is not an error.
func (s *Store) GetVector(key string) ([]float32, bool, error) {
	var blob []byte
	err := s.db.QueryRow(
		`SELECT vector FROM embedding_cache WHERE key = ?`, key,
	).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached vector: %w", err)
	}
	vec, err := decodeVector(blob)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

// PutVector stores an embedding in the cache, replacing any existing entry.
func (s *Store) PutVector(key, model string, vector []float32) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO embedding_cache (key, model, vector, created_at)
		 VALUES (?, ?, ?, datetime('now'))`,
		key, model, encodeVector(vector),
	)
	if err != nil {
		return fmt.Errorf("put cached vector: %w", err)
	}
	return nil
}

// Vectors are stored as little-endian float32 blobs.

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(blob))
	}
	v := make([]float32, len(blob)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
	}
	return v, nil
}
