// Package store provides SQLite access to the three source corpora and
// turns table rows into normalized documents ready for chunking.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/homescan/leaselens/internal/config"
	"github.com/homescan/leaselens/internal/models"
)

// Store wraps the SQLite database holding law articles, precedents, and
// mediation cases.
type Store struct {
	db       *sql.DB
	datasets map[models.DataKind]config.DatasetConfig
}

// New opens or creates a SQLite database at dbPath and initializes the
// schema. Parent directories are created if they do not exist.
func New(dbPath string, datasets map[models.DataKind]config.DatasetConfig) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, datasets: datasets}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS law_text (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_year INTEGER,
		source_name TEXT,
		source_doc TEXT,
		page_start INTEGER,
		page_end INTEGER,
		title TEXT,
		text TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_law_text_source ON law_text(source_name, source_year);

	CREATE TABLE IF NOT EXISTS precedents (
		precedent_id TEXT PRIMARY KEY,
		case_name TEXT,
		case_number TEXT,
		decision_date TEXT,
		court_name TEXT,
		judgment_type TEXT,
		issues TEXT,
		summary TEXT,
		referenced_laws TEXT,
		referenced_cases TEXT,
		full_text TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_precedents_decision_date ON precedents(decision_date);
	CREATE INDEX IF NOT EXISTS idx_precedents_court ON precedents(court_name);

	CREATE TABLE IF NOT EXISTS mediation_cases (
		case_id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_year INTEGER,
		source_name TEXT,
		source_doc TEXT,
		page_start INTEGER,
		page_end INTEGER,
		title TEXT,
		facts TEXT,
		issues TEXT,
		related_rules TEXT,
		related_precedents TEXT,
		result TEXT,
		order_text TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_mediation_source ON mediation_cases(source_name, source_year);
	`
	_, err := db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LawArticle is one row of the law_text table.
type LawArticle struct {
	ID         int64
	SourceYear int
	SourceName string
	SourceDoc  string
	PageStart  int
	PageEnd    int
	Title      string
	Text       string
}

// MediationCase is one row of the mediation_cases table.
type MediationCase struct {
	CaseID            int64
	SourceYear        int
	SourceName        string
	SourceDoc         string
	PageStart         int
	PageEnd           int
	Title             string
	Facts             string
	Issues            string
	RelatedRules      string
	RelatedPrecedents string
	Result            string
	OrderText         string
}

// InsertLawArticle inserts a law article and fills in its assigned id.
func (s *Store) InsertLawArticle(ctx context.Context, a *LawArticle) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO law_text (source_year, source_name, source_doc, page_start, page_end, title, text)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.SourceYear, a.SourceName, a.SourceDoc, a.PageStart, a.PageEnd, a.Title, a.Text,
	)
	if err != nil {
		return fmt.Errorf("failed to insert law article: %w", err)
	}
	a.ID, err = res.LastInsertId()
	return err
}

// InsertPrecedent inserts or replaces a precedent row keyed by precedent id.
func (s *Store) InsertPrecedent(ctx context.Context, p *models.PrecedentRecord) error {
	if p.PrecedentID == "" {
		return fmt.Errorf("precedent id is required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO precedents
		 (precedent_id, case_name, case_number, decision_date, court_name, judgment_type,
		  issues, summary, referenced_laws, referenced_cases, full_text)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.PrecedentID, p.CaseName, p.CaseNumber, p.DecisionDate, p.CourtName, p.JudgmentType,
		p.Issues, p.Summary, p.ReferencedLaws, p.ReferencedCases, p.FullText,
	)
	if err != nil {
		return fmt.Errorf("failed to insert precedent: %w", err)
	}
	return nil
}

// InsertMediationCase inserts a mediation case and fills in its assigned id.
func (s *Store) InsertMediationCase(ctx context.Context, m *MediationCase) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO mediation_cases
		 (source_year, source_name, source_doc, page_start, page_end, title,
		  facts, issues, related_rules, related_precedents, result, order_text)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.SourceYear, m.SourceName, m.SourceDoc, m.PageStart, m.PageEnd, m.Title,
		m.Facts, m.Issues, m.RelatedRules, m.RelatedPrecedents, m.Result, m.OrderText,
	)
	if err != nil {
		return fmt.Errorf("failed to insert mediation case: %w", err)
	}
	m.CaseID, err = res.LastInsertId()
	return err
}

// Counts returns the row count of each source table.
func (s *Store) Counts(ctx context.Context) (map[models.DataKind]int, error) {
	counts := make(map[models.DataKind]int, len(s.datasets))
	for kind, ds := range s.datasets {
		var n int
		q := fmt.Sprintf("SELECT COUNT(*) FROM %s", ds.TableName)
		if err := s.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", ds.TableName, err)
		}
		counts[kind] = n
	}
	return counts, nil
}
