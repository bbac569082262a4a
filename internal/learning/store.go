// Package learning is the Learning Retriever (spec.md C11): it persists
// approved mappings and reviewer corrections as LearningExamples in two
// append-only collections, retrieves similar past examples for few-shot
// prompt injection, and maintains a cross-study template library per
// domain.
//
// Grounded on the teacher's internal/ai/example_store.go (an
// operation-keyed in-memory example registry) combined with
// internal/feedback/store.go's single-writer SQLite persistence —
// generalized from an in-memory map to a durable, idempotent-by-
// example_id store with two named collections, matching spec.md §4.12's
// "approved_mappings" / "corrections" split.
package learning

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	_ "modernc.org/sqlite"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// Collection names the two example collections of spec.md §4.12.
type Collection string

const (
	CollectionApproved   Collection = "approved_mappings"
	CollectionCorrection Collection = "corrections"
)

// Store persists LearningExamples (msgpack-encoded) to an embedded SQLite
// database, keyed by (collection, example_id) so repeated ingestion of the
// same decision is idempotent, per spec.md §4.12's "example IDs are
// deterministic... so ingestion is idempotent."
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens (or creates) the learning database at dbPath. An empty
// dbPath opens an in-memory database, used by tests.
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = ":memory:"
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("learning: create dir for %q: %w", dbPath, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("learning: open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS examples (
		collection  TEXT NOT NULL,
		example_id  TEXT NOT NULL,
		domain      TEXT NOT NULL,
		sdtm_variable TEXT NOT NULL,
		document    BLOB NOT NULL,
		created_at  TIMESTAMP NOT NULL,
		PRIMARY KEY (collection, example_id)
	)`)
	if err != nil {
		return fmt.Errorf("learning: create examples table: %w", err)
	}
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_examples_domain ON examples(collection, domain)`)
	if err != nil {
		return fmt.Errorf("learning: create domain index: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS templates (
		domain           TEXT PRIMARY KEY,
		source_study_ids TEXT NOT NULL,
		accuracy         REAL NOT NULL,
		updated_at       TIMESTAMP NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("learning: create templates table: %w", err)
	}
	return nil
}

// Ingest stores example in collection, keyed by its deterministic
// example_id. A second Ingest for the same (collection, example_id)
// overwrites the row with identical content (msgpack-encoded from the same
// example), preserving idempotence.
func (s *Store) Ingest(collection Collection, example model.LearningExample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := msgpack.Marshal(example)
	if err != nil {
		return fmt.Errorf("learning: marshal example %s: %w", example.ExampleID, err)
	}

	_, err = s.db.Exec(
		`INSERT INTO examples (collection, example_id, domain, sdtm_variable, document, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(collection, example_id) DO UPDATE SET document = excluded.document, created_at = excluded.created_at`,
		string(collection), example.ExampleID, example.Domain, example.SDTMVariable, doc, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("learning: ingest %s/%s: %w", collection, example.ExampleID, err)
	}
	return nil
}

// IngestDecision is the Review Gate's entry point (spec.md §4.11's "
// corrections flow into the Learning Retriever"): it classifies the
// decision's collection from WasCorrected and builds the LearningExample
// from the approved/corrected mapping.
func (s *Store) IngestDecision(studyID, domain string, decision model.HumanCorrection) error {
	vm := decision.OriginalMapping
	if decision.CorrectedMapping != nil {
		vm = *decision.CorrectedMapping
	}

	wasCorrected := decision.CorrectionType.WasCorrected()
	example := model.LearningExample{
		ExampleID:        model.ExampleID(studyID, domain, vm.SDTMVariable),
		StudyID:          studyID,
		Domain:           domain,
		SDTMVariable:     vm.SDTMVariable,
		SourceVariable:   vm.SourceVariable,
		Pattern:          vm.Pattern,
		DerivationRule:   vm.DerivationRule,
		WasCorrected:     wasCorrected,
		CorrectionReason: decision.Reason,
		EmbeddedText:     EmbeddedText(domain, vm),
		Timestamp:        decision.Timestamp,
	}

	collection := CollectionApproved
	if wasCorrected {
		collection = CollectionCorrection
	}
	return s.Ingest(collection, example)
}

// ByDomain returns every example in collection for domain, in insertion
// order.
func (s *Store) ByDomain(collection Collection, domain string) ([]model.LearningExample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT document FROM examples WHERE collection = ? AND domain = ? ORDER BY created_at ASC`,
		string(collection), domain,
	)
	if err != nil {
		return nil, fmt.Errorf("learning: query %s/%s: %w", collection, domain, err)
	}
	defer rows.Close()

	var out []model.LearningExample
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("learning: scan %s/%s: %w", collection, domain, err)
		}
		var ex model.LearningExample
		if err := msgpack.Unmarshal(doc, &ex); err != nil {
			return nil, fmt.Errorf("learning: unmarshal %s/%s: %w", collection, domain, err)
		}
		out = append(out, ex)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
