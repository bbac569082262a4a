// Package review implements the Review Gate (spec.md C6): an interactive
// accept/modify/reject/add pass over one domain's enriched
// DomainMappingSpec, with every decision persisted immediately so a crash
// after decision N preserves decisions 1..N, and a Resume operation that
// continues a session from its first non-COMPLETED domain.
//
// Grounded on the teacher's internal/feedback/store.go (single-writer
// SQLite persistence, one row per event, opened with ":memory:" for
// tests) generalized from thumbs-up/down feedback rows to per-variable
// review decisions keyed by session_id.
package review

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// Store persists ReviewSession state to an embedded SQLite database.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens (or creates) a sessions database at dbPath. An empty
// dbPath opens an in-memory database, used by tests.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("review: create dir for %q: %w", dbPath, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("review: open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		study_id   TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("review: create sessions table: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS domain_reviews (
		session_id TEXT NOT NULL,
		domain     TEXT NOT NULL,
		status     TEXT NOT NULL,
		PRIMARY KEY (session_id, domain)
	)`)
	if err != nil {
		return fmt.Errorf("review: create domain_reviews table: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS decisions (
		id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id         TEXT NOT NULL,
		domain             TEXT NOT NULL,
		variable_index     INTEGER NOT NULL,
		correction_type    TEXT NOT NULL,
		original_mapping   TEXT NOT NULL,
		corrected_mapping  TEXT NOT NULL DEFAULT '',
		reason             TEXT NOT NULL DEFAULT '',
		created_at         TIMESTAMP NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("review: create decisions table: %w", err)
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_decisions_session_domain ON decisions(session_id, domain)`)
	if err != nil {
		return fmt.Errorf("review: create decisions index: %w", err)
	}
	return nil
}

// NewSession creates and persists a fresh session for studyID, one
// DomainReview row per domain in domains (all PENDING).
func (s *Store) NewSession(studyID string, domains []string) (*model.ReviewSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	session := &model.ReviewSession{
		SessionID:     uuid.NewString(),
		StudyID:       studyID,
		DomainReviews: make(map[string]*model.DomainReview, len(domains)),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("review: begin new session: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO sessions (session_id, study_id, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		session.SessionID, studyID, now, now); err != nil {
		return nil, fmt.Errorf("review: insert session: %w", err)
	}

	for _, domain := range domains {
		if _, err := tx.Exec(`INSERT INTO domain_reviews (session_id, domain, status) VALUES (?, ?, ?)`,
			session.SessionID, domain, string(model.ReviewPending)); err != nil {
			return nil, fmt.Errorf("review: insert domain_reviews: %w", err)
		}
		session.DomainReviews[domain] = &model.DomainReview{Status: model.ReviewPending}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("review: commit new session: %w", err)
	}
	return session, nil
}

// RecordDecision persists one reviewer decision immediately and marks the
// domain IN_PROGRESS if it was PENDING.
func (s *Store) RecordDecision(sessionID, domain string, decision model.HumanCorrection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	originalJSON, err := json.Marshal(decision.OriginalMapping)
	if err != nil {
		return fmt.Errorf("review: marshal original mapping: %w", err)
	}
	correctedJSON := ""
	if decision.CorrectedMapping != nil {
		b, err := json.Marshal(decision.CorrectedMapping)
		if err != nil {
			return fmt.Errorf("review: marshal corrected mapping: %w", err)
		}
		correctedJSON = string(b)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("review: begin record decision: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO decisions (session_id, domain, variable_index, correction_type, original_mapping, corrected_mapping, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, domain, decision.VariableIndex, string(decision.CorrectionType), string(originalJSON), correctedJSON, decision.Reason, decision.Timestamp,
	); err != nil {
		return fmt.Errorf("review: insert decision: %w", err)
	}

	if _, err := tx.Exec(
		`UPDATE domain_reviews SET status = ? WHERE session_id = ? AND domain = ? AND status = ?`,
		string(model.ReviewInProgress), sessionID, domain, string(model.ReviewPending),
	); err != nil {
		return fmt.Errorf("review: mark domain in-progress: %w", err)
	}

	if _, err := tx.Exec(`UPDATE sessions SET updated_at = ? WHERE session_id = ?`, time.Now().UTC(), sessionID); err != nil {
		return fmt.Errorf("review: touch session: %w", err)
	}

	return tx.Commit()
}

// CompleteDomain marks domain COMPLETED within sessionID.
func (s *Store) CompleteDomain(sessionID, domain string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`UPDATE domain_reviews SET status = ? WHERE session_id = ? AND domain = ?`,
		string(model.ReviewCompleted), sessionID, domain)
	if err != nil {
		return fmt.Errorf("review: complete domain %s: %w", domain, err)
	}
	_, err = s.db.Exec(`UPDATE sessions SET updated_at = ? WHERE session_id = ?`, time.Now().UTC(), sessionID)
	if err != nil {
		return fmt.Errorf("review: touch session: %w", err)
	}
	return nil
}

// LoadSession reconstructs a ReviewSession (including every persisted
// decision, in insertion order) from the database. Resume calls this and
// then FirstIncompleteDomain to continue where the reviewer left off.
func (s *Store) LoadSession(sessionID string) (*model.ReviewSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var studyID string
	var createdAt, updatedAt time.Time
	err := s.db.QueryRow(`SELECT study_id, created_at, updated_at FROM sessions WHERE session_id = ?`, sessionID).
		Scan(&studyID, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("review: no session %q", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("review: load session %q: %w", sessionID, err)
	}

	session := &model.ReviewSession{
		SessionID:     sessionID,
		StudyID:       studyID,
		DomainReviews: make(map[string]*model.DomainReview),
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}

	rows, err := s.db.Query(`SELECT domain, status FROM domain_reviews WHERE session_id = ?`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("review: load domain_reviews: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var domain, status string
		if err := rows.Scan(&domain, &status); err != nil {
			return nil, fmt.Errorf("review: scan domain_reviews: %w", err)
		}
		session.DomainReviews[domain] = &model.DomainReview{Status: model.DomainReviewStatus(status)}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("review: domain_reviews rows: %w", err)
	}

	decisionRows, err := s.db.Query(
		`SELECT domain, variable_index, correction_type, original_mapping, corrected_mapping, reason, created_at
		 FROM decisions WHERE session_id = ? ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("review: load decisions: %w", err)
	}
	defer decisionRows.Close()
	for decisionRows.Next() {
		var domain, correctionType, originalJSON, correctedJSON, reason string
		var varIndex int
		var createdAt time.Time
		if err := decisionRows.Scan(&domain, &varIndex, &correctionType, &originalJSON, &correctedJSON, &reason, &createdAt); err != nil {
			return nil, fmt.Errorf("review: scan decision: %w", err)
		}

		var original model.VariableMapping
		if err := json.Unmarshal([]byte(originalJSON), &original); err != nil {
			return nil, fmt.Errorf("review: unmarshal original mapping: %w", err)
		}
		var corrected *model.VariableMapping
		if correctedJSON != "" {
			corrected = &model.VariableMapping{}
			if err := json.Unmarshal([]byte(correctedJSON), corrected); err != nil {
				return nil, fmt.Errorf("review: unmarshal corrected mapping: %w", err)
			}
		}

		dr, ok := session.DomainReviews[domain]
		if !ok {
			dr = &model.DomainReview{Status: model.ReviewInProgress}
			session.DomainReviews[domain] = dr
		}
		dr.Decisions = append(dr.Decisions, model.HumanCorrection{
			VariableIndex:    varIndex,
			CorrectionType:   model.CorrectionType(correctionType),
			OriginalMapping:  original,
			CorrectedMapping: corrected,
			Reason:           reason,
			Timestamp:        createdAt,
		})
	}
	if err := decisionRows.Err(); err != nil {
		return nil, fmt.Errorf("review: decisions rows: %w", err)
	}

	return session, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
