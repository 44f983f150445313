package models

import (
	"fmt"
	"strings"
	"time"
)

// RequirementMatch reports the oracle's verdict on a single requirement.
type RequirementMatch struct {
	Requirement string `json:"requirement" firestore:"requirement"`
	Met         bool   `json:"met" firestore:"met"`
	Notes       string `json:"notes,omitempty" firestore:"notes,omitempty"`
}

// EvaluationResult is the typed shape the scoring oracle must return.
// It is decoded from the model's JSON output and rejected by Validate
// if it does not conform; a loosely-typed or partial response never
// reaches the store.
type EvaluationResult struct {
	Score             int                `json:"score" firestore:"score"`
	Summary           string             `json:"summary" firestore:"summary"`
	KeyStrengths      []string           `json:"keyStrengths" firestore:"keyStrengths"`
	RedFlags          []string           `json:"redFlags" firestore:"redFlags"`
	MustHaveResults   []RequirementMatch `json:"mustHavesAnalysis" firestore:"mustHavesAnalysis"`
	NiceToHaveResults []RequirementMatch `json:"niceToHavesAnalysis" firestore:"niceToHavesAnalysis"`
	CulturalFitScore  int                `json:"culturalFitScore" firestore:"culturalFitScore"`
}

// Validate checks the result against the persona it was produced for.
// Every violation is a schema error: the caller must treat the whole
// response as unusable rather than persist a partial evaluation.
func (r *EvaluationResult) Validate(persona AIPersona) error {
	if r == nil {
		return fmt.Errorf("evaluation result is nil")
	}
	if r.Score < 0 || r.Score > 100 {
		return fmt.Errorf("score %d outside [0,100]", r.Score)
	}
	if r.CulturalFitScore < 0 || r.CulturalFitScore > 100 {
		return fmt.Errorf("culturalFitScore %d outside [0,100]", r.CulturalFitScore)
	}
	if strings.TrimSpace(r.Summary) == "" {
		return fmt.Errorf("summary is empty")
	}
	if len(r.KeyStrengths) < 3 || len(r.KeyStrengths) > 5 {
		return fmt.Errorf("expected 3-5 key strengths, got %d", len(r.KeyStrengths))
	}
	if got, want := len(r.MustHaveResults), len(persona.MustHaves); got != want {
		return fmt.Errorf("expected %d must-have results, got %d", want, got)
	}
	if got, want := len(r.NiceToHaveResults), len(persona.NiceToHaves); got != want {
		return fmt.Errorf("expected %d nice-to-have results, got %d", want, got)
	}
	for i, m := range r.MustHaveResults {
		if strings.TrimSpace(m.Requirement) == "" {
			return fmt.Errorf("must-have result %d has empty requirement", i)
		}
	}
	return nil
}

// Qualified applies the documented score threshold. The boundary is inclusive.
func (r *EvaluationResult) Qualified() bool {
	return r.Score >= 50
}

// Evaluation is the persisted evaluation row, keyed 1:1 by applicant ID.
// Written at most once per applicant on oracle success; a duplicate
// dispatch overwrites the same document rather than creating a second row.
type Evaluation struct {
	ApplicantID string           `firestore:"applicantId"`
	Result      EvaluationResult `firestore:"result"`
	RawResponse string           `firestore:"rawResponse,omitempty"`
	CreatedAt   time.Time        `firestore:"createdAt"`
}
