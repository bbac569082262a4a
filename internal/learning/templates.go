package learning

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/SanmaySarada/astraea-sdtm/internal/model"
)

// TemplateLibrary maintains one CrossStudyTemplate per domain, folding in a
// new study's observed mapping accuracy each time a domain's review
// completes, per spec.md §4.12's cross-study template library.
type TemplateLibrary struct {
	store *Store
}

// NewTemplateLibrary returns a TemplateLibrary backed by store's
// "templates" table.
func NewTemplateLibrary(store *Store) *TemplateLibrary {
	return &TemplateLibrary{store: store}
}

// Get returns the current template for domain, or (zero, false) if no study
// has contributed to it yet.
func (l *TemplateLibrary) Get(domain string) (model.CrossStudyTemplate, bool, error) {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	row := l.store.db.QueryRow(
		`SELECT source_study_ids, accuracy, updated_at FROM templates WHERE domain = ?`, domain,
	)
	var studyIDsCSV string
	var t model.CrossStudyTemplate
	err := row.Scan(&studyIDsCSV, &t.Accuracy, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CrossStudyTemplate{}, false, nil
	}
	if err != nil {
		return model.CrossStudyTemplate{}, false, fmt.Errorf("learning: get template for %s: %w", domain, err)
	}
	t.Domain = domain
	if studyIDsCSV != "" {
		t.SourceStudyIDs = strings.Split(studyIDsCSV, ",")
	}
	return t, true, nil
}

// RecordObservation folds a new study's observed mapping accuracy for
// domain into its running cross-study template, using
// model.WeightedAccuracyUpdate. studyID is appended to the template's
// SourceStudyIDs only the first time it contributes to this domain, so a
// study re-reviewed (e.g. via Resume) does not double-count its weight.
func (l *TemplateLibrary) RecordObservation(domain, studyID string, observedAccuracy float64) (model.CrossStudyTemplate, error) {
	existing, found, err := l.Get(domain)
	if err != nil {
		return model.CrossStudyTemplate{}, err
	}

	if !found {
		existing = model.CrossStudyTemplate{Domain: domain}
	}

	alreadyContributed := false
	for _, id := range existing.SourceStudyIDs {
		if id == studyID {
			alreadyContributed = true
			break
		}
	}

	studyIDs := existing.SourceStudyIDs
	if !alreadyContributed {
		studyIDs = append(studyIDs, studyID)
	}
	newAccuracy := model.WeightedAccuracyUpdate(existing.Accuracy, len(studyIDs), observedAccuracy)

	updated := model.CrossStudyTemplate{
		Domain:         domain,
		SourceStudyIDs: studyIDs,
		Accuracy:       newAccuracy,
		UpdatedAt:      time.Now().UTC(),
	}

	l.store.mu.Lock()
	defer l.store.mu.Unlock()

	_, err = l.store.db.Exec(
		`INSERT INTO templates (domain, source_study_ids, accuracy, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(domain) DO UPDATE SET source_study_ids = excluded.source_study_ids,
		   accuracy = excluded.accuracy, updated_at = excluded.updated_at`,
		domain, strings.Join(updated.SourceStudyIDs, ","), updated.Accuracy, updated.UpdatedAt,
	)
	if err != nil {
		return model.CrossStudyTemplate{}, fmt.Errorf("learning: record observation for %s: %w", domain, err)
	}
	return updated, nil
}

// DomainAccuracy computes one domain review's observed accuracy as the
// fraction of decisions that were clean accepts (no correction needed),
// per spec.md §4.12's definition of "mapping accuracy" for template
// weighting.
func DomainAccuracy(decisions []model.HumanCorrection) float64 {
	if len(decisions) == 0 {
		return 0
	}
	accepted := 0
	for _, d := range decisions {
		if !d.CorrectionType.WasCorrected() && d.CorrectionType != model.CorrectionReject {
			accepted++
		}
	}
	return float64(accepted) / float64(len(decisions))
}
