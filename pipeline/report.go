// Package pipeline orchestrates one build: scan, extract, allocate,
// materialize, resolve, assemble, cluster, metrics, persist.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zettelforge/zettelforge/store"
	"github.com/zettelforge/zettelforge/vocabulary/knowledge"
)

// ReportKey is the store key the validation report persists under.
const ReportKey = "report.json"

// Severity classifies a validation finding.
type Severity string

const (
	// SeverityFatal aborts the run: branch overflow, id collision,
	// unreadable source root.
	SeverityFatal Severity = "fatal"

	// SeverityStructural marks the result invalid but the run completes:
	// broken links, duplicate edges.
	SeverityStructural Severity = "structural"

	// SeverityQuality never blocks completion: orphans, low density,
	// ambiguous links, self-loops.
	SeverityQuality Severity = "quality"
)

// Finding is one validation report entry.
type Finding struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Subject  string   `json:"subject,omitempty"`
	Message  string   `json:"message"`
}

// DocumentFailure records a per-document extraction failure. One malformed
// document never aborts the batch.
type DocumentFailure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Report is the validation report. It is always produced, including the
// all-clear case.
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	DryRun     bool      `json:"dry_run"`

	Documents int `json:"documents"`
	NewAtoms  int `json:"new_atoms"`

	Failures []DocumentFailure `json:"failures,omitempty"`
	Findings []Finding         `json:"findings,omitempty"`

	Health knowledge.HealthStatus `json:"health,omitempty"`
	Valid  bool                   `json:"valid"`
}

// NewReport starts a report for one run.
func NewReport(dryRun bool, startedAt time.Time) *Report {
	return &Report{
		RunID:     uuid.New().String(),
		StartedAt: startedAt,
		DryRun:    dryRun,
	}
}

// Add records a finding.
func (r *Report) Add(sev Severity, code, subject, message string) {
	r.Findings = append(r.Findings, Finding{Severity: sev, Code: code, Subject: subject, Message: message})
}

// AddFailure records a per-document failure.
func (r *Report) AddFailure(path string, err error) {
	r.Failures = append(r.Failures, DocumentFailure{Path: path, Error: err.Error()})
}

// Finish closes the report and computes validity: valid means no fatal and
// no structural findings.
func (r *Report) Finish(finishedAt time.Time) {
	r.FinishedAt = finishedAt
	r.Valid = true
	for _, f := range r.Findings {
		if f.Severity == SeverityFatal || f.Severity == SeverityStructural {
			r.Valid = false
			return
		}
	}
}

// Count returns the number of findings at the given severity.
func (r *Report) Count(sev Severity) int {
	n := 0
	for _, f := range r.Findings {
		if f.Severity == sev {
			n++
		}
	}
	return n
}

// Save persists the report.
func (r *Report) Save(ctx context.Context, s store.Store) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := s.Put(ctx, ReportKey, data); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}
