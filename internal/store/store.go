// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists documents, the interest profile, and per-document
// relevance outcomes in a SQLite database. Outcome writes and the
// processed mark happen in one transaction, so a document is marked
// processed exactly when its outcome is durably written.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/wevbarker/DRADIS/pkg/types"
)

const dbFile = "dradis.db"

// Store manages the DRADIS SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at cfg.DataDir/dradis.db and creates
// the schema if it does not exist.
func Open(cfg types.StoreConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			authors TEXT NOT NULL,
			abstract TEXT NOT NULL,
			categories TEXT NOT NULL,
			published_at TEXT,
			processed INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_processed ON documents(processed)`,
		`CREATE TABLE IF NOT EXISTS user_profile (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			keywords TEXT NOT NULL,
			topics TEXT NOT NULL,
			prior_work TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			document_id TEXT PRIMARY KEY REFERENCES documents(id),
			composite_score REAL NOT NULL,
			keyword_score REAL NOT NULL,
			category_score REAL NOT NULL,
			citation_potential REAL NOT NULL,
			recency_score REAL NOT NULL,
			classifier_score REAL NOT NULL,
			identity_boost REAL NOT NULL,
			flagged INTEGER NOT NULL,
			matched_collaborators TEXT,
			key_concepts TEXT,
			reasoning TEXT,
			degraded INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_flagged ON outcomes(flagged)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// AddDocuments inserts documents, ignoring ids already present, and
// returns the number actually added. Re-ingesting a batch is a no-op.
func (s *Store) AddDocuments(ctx context.Context, docs []types.Document) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO documents (id, title, authors, abstract, categories, published_at)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	added := 0
	for _, doc := range docs {
		authorsJSON, _ := json.Marshal(doc.Authors)
		categoriesJSON, _ := json.Marshal(doc.Categories)
		res, err := stmt.ExecContext(ctx,
			doc.ID, doc.Title, string(authorsJSON), doc.Abstract,
			string(categoriesJSON), formatTime(doc.PublishedAt))
		if err != nil {
			return 0, fmt.Errorf("inserting document %s: %w", doc.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing documents: %w", err)
	}
	return added, nil
}

// PendingDocuments returns documents not yet marked processed, newest first.
func (s *Store) PendingDocuments(ctx context.Context) ([]types.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, authors, abstract, categories, published_at
		 FROM documents WHERE processed = 0
		 ORDER BY published_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying pending documents: %w", err)
	}
	defer rows.Close()

	var docs []types.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// Profile returns the stored interest profile, or nil when none exists.
func (s *Store) Profile(ctx context.Context) (*types.InterestProfile, error) {
	var keywordsJSON, topicsJSON, priorJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT keywords, topics, prior_work FROM user_profile WHERE id = 1`,
	).Scan(&keywordsJSON, &topicsJSON, &priorJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}

	var profile types.InterestProfile
	if err := json.Unmarshal([]byte(keywordsJSON), &profile.Keywords); err != nil {
		return nil, fmt.Errorf("parsing profile keywords: %w", err)
	}
	if err := json.Unmarshal([]byte(topicsJSON), &profile.Topics); err != nil {
		return nil, fmt.Errorf("parsing profile topics: %w", err)
	}
	if err := json.Unmarshal([]byte(priorJSON), &profile.PriorWork); err != nil {
		return nil, fmt.Errorf("parsing profile prior work: %w", err)
	}
	return &profile, nil
}

// SaveProfile replaces the stored interest profile.
func (s *Store) SaveProfile(ctx context.Context, profile types.InterestProfile) error {
	keywordsJSON, _ := json.Marshal(profile.Keywords)
	topicsJSON, _ := json.Marshal(profile.Topics)
	priorJSON, _ := json.Marshal(profile.PriorWork)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_profile (id, keywords, topics, prior_work, updated_at)
		 VALUES (1, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(id) DO UPDATE SET
			keywords=excluded.keywords, topics=excluded.topics,
			prior_work=excluded.prior_work, updated_at=excluded.updated_at`,
		string(keywordsJSON), string(topicsJSON), string(priorJSON))
	if err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}

// CompleteDocument writes the outcome and marks the document processed in
// one transaction. degraded records a per-item classifier failure folded
// into the outcome. On error nothing is written and the document stays
// pending for the next run.
func (s *Store) CompleteDocument(ctx context.Context, outcome types.RelevanceOutcome, degraded bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	matchesJSON, _ := json.Marshal(outcome.MatchedCollaborators)
	conceptsJSON, _ := json.Marshal(outcome.KeyConcepts)

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO outcomes
		 (document_id, composite_score, keyword_score, category_score,
		  citation_potential, recency_score, classifier_score, identity_boost,
		  flagged, matched_collaborators, key_concepts, reasoning, degraded)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		outcome.DocumentID, outcome.CompositeScore, outcome.KeywordScore,
		outcome.CategoryScore, outcome.CitationPotential, outcome.RecencyScore,
		outcome.ClassifierScore, outcome.IdentityBoost, outcome.Flagged,
		string(matchesJSON), string(conceptsJSON), outcome.Reasoning, degraded)
	if err != nil {
		return fmt.Errorf("saving outcome for %s: %w", outcome.DocumentID, err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE documents SET processed = 1 WHERE id = ?`, outcome.DocumentID)
	if err != nil {
		return fmt.Errorf("marking %s processed: %w", outcome.DocumentID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("marking %s processed: no such document", outcome.DocumentID)
	}

	return tx.Commit()
}

// FlaggedDocument pairs a flagged outcome with its document for reporting.
type FlaggedDocument struct {
	Document types.Document
	Outcome  types.RelevanceOutcome
}

// FlaggedOutcomes returns flagged outcomes ordered by composite score
// descending, publication date descending, then document id ascending —
// a stable read for downstream reporting.
func (s *Store) FlaggedOutcomes(ctx context.Context, limit int) ([]FlaggedDocument, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT d.id, d.title, d.authors, d.abstract, d.categories, d.published_at,
		        o.composite_score, o.keyword_score, o.category_score,
		        o.citation_potential, o.recency_score, o.classifier_score,
		        o.identity_boost, o.flagged, o.matched_collaborators,
		        o.key_concepts, o.reasoning
		 FROM documents d
		 JOIN outcomes o ON d.id = o.document_id
		 WHERE o.flagged = 1
		 ORDER BY o.composite_score DESC, d.published_at DESC, d.id ASC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying flagged outcomes: %w", err)
	}
	defer rows.Close()

	var flagged []FlaggedDocument
	for rows.Next() {
		var fd FlaggedDocument
		var authorsJSON, categoriesJSON, publishedAt string
		var matchesJSON, conceptsJSON, reasoning sql.NullString

		err := rows.Scan(&fd.Document.ID, &fd.Document.Title, &authorsJSON,
			&fd.Document.Abstract, &categoriesJSON, &publishedAt,
			&fd.Outcome.CompositeScore, &fd.Outcome.KeywordScore,
			&fd.Outcome.CategoryScore, &fd.Outcome.CitationPotential,
			&fd.Outcome.RecencyScore, &fd.Outcome.ClassifierScore,
			&fd.Outcome.IdentityBoost, &fd.Outcome.Flagged,
			&matchesJSON, &conceptsJSON, &reasoning)
		if err != nil {
			return nil, fmt.Errorf("scanning flagged outcome: %w", err)
		}

		fd.Outcome.DocumentID = fd.Document.ID
		fd.Outcome.Reasoning = reasoning.String
		json.Unmarshal([]byte(authorsJSON), &fd.Document.Authors)
		json.Unmarshal([]byte(categoriesJSON), &fd.Document.Categories)
		if matchesJSON.Valid {
			json.Unmarshal([]byte(matchesJSON.String), &fd.Outcome.MatchedCollaborators)
		}
		if conceptsJSON.Valid {
			json.Unmarshal([]byte(conceptsJSON.String), &fd.Outcome.KeyConcepts)
		}
		fd.Document.PublishedAt = parseTime(publishedAt)

		flagged = append(flagged, fd)
	}
	return flagged, rows.Err()
}

// Counts holds store-level totals for the status operation.
type Counts struct {
	Documents int
	Pending   int
	Analyzed  int
	Flagged   int
	Degraded  int
}

// Stats returns store-level totals.
func (s *Store) Stats(ctx context.Context) (Counts, error) {
	var c Counts
	queries := []struct {
		dst   *int
		query string
	}{
		{&c.Documents, `SELECT count(*) FROM documents`},
		{&c.Pending, `SELECT count(*) FROM documents WHERE processed = 0`},
		{&c.Analyzed, `SELECT count(*) FROM outcomes`},
		{&c.Flagged, `SELECT count(*) FROM outcomes WHERE flagged = 1`},
		{&c.Degraded, `SELECT count(*) FROM outcomes WHERE degraded = 1`},
	}
	for _, q := range queries {
		if err := s.db.QueryRowContext(ctx, q.query).Scan(q.dst); err != nil {
			return Counts{}, fmt.Errorf("counting: %w", err)
		}
	}
	return c, nil
}

// scanner abstracts *sql.Row and *sql.Rows for document scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(sc scanner) (types.Document, error) {
	var doc types.Document
	var authorsJSON, categoriesJSON, publishedAt string

	if err := sc.Scan(&doc.ID, &doc.Title, &authorsJSON, &doc.Abstract,
		&categoriesJSON, &publishedAt); err != nil {
		return types.Document{}, fmt.Errorf("scanning document: %w", err)
	}

	if err := json.Unmarshal([]byte(authorsJSON), &doc.Authors); err != nil {
		return types.Document{}, fmt.Errorf("parsing authors for %s: %w", doc.ID, err)
	}
	if err := json.Unmarshal([]byte(categoriesJSON), &doc.Categories); err != nil {
		return types.Document{}, fmt.Errorf("parsing categories for %s: %w", doc.ID, err)
	}
	doc.PublishedAt = parseTime(publishedAt)
	return doc, nil
}

// formatTime stores times as RFC3339; the zero time stores as empty.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// parseTime is the inverse of formatTime; unparseable values yield the
// zero time.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
