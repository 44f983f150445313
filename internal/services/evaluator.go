package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Damon-N58/job-application-screener/internal/gcp"
	"github.com/Damon-N58/job-application-screener/internal/models"
	"github.com/Damon-N58/job-application-screener/internal/store"
)

// Substituted for the prompt's candidate text when the applicant sent
// neither a usable email body nor an extractable document.
const emptyMaterialsPlaceholder = "(no application materials were provided)"

type evaluationStore interface {
	GetApplicant(ctx context.Context, id string) (*models.Applicant, error)
	GetJob(ctx context.Context, id string) (*models.Job, error)
	SetApplicantStatus(ctx context.Context, id, status string) error
	UpsertEvaluation(ctx context.Context, ev *models.Evaluation) error
}

type evaluationOracle interface {
	Evaluate(ctx context.Context, job *models.Job, candidate CandidateProfile) (*models.EvaluationResult, string, error)
}

type documentExtractor interface {
	Extract(ctx context.Context, resumeURL string) string
}

// Evaluator owns the end-to-end state transition of one applicant:
// analyzing -> qualified | rejected on oracle success, analyzing ->
// incoming on oracle failure so a later dispatch can retry.
type Evaluator struct {
	store     evaluationStore
	oracle    evaluationOracle
	extractor documentExtractor
	timeout   time.Duration
}

func NewEvaluator(st evaluationStore, oracle evaluationOracle, extractor documentExtractor, timeout time.Duration) *Evaluator {
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Evaluator{store: st, oracle: oracle, extractor: extractor, timeout: timeout}
}

// NewEvaluatorService wires a standalone evaluator from environment
// configuration, for the worker function the evaluation workflow invokes.
func NewEvaluatorService(ctx context.Context) (*Evaluator, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	timeoutSecs, err := strconv.Atoi(gcp.GetEnv("EVALUATION_TIMEOUT_SECONDS", "300"))
	if err != nil || timeoutSecs <= 0 {
		timeoutSecs = 300
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	vertexClient, err := gcp.NewVertexClient(ctx, projectID, gcp.GetEnv("VERTEX_AI_REGION", "us-central1"))
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}

	st := store.New(firestoreClient, store.DefaultCollections())
	oracle := NewOracle(vertexClient)

	return NewEvaluator(st, oracle, NewExtractor(oracle), time.Duration(timeoutSecs)*time.Second), nil
}

// Run evaluates one applicant. A missing applicant or job is a data
// integrity failure: fatal, logged, never retried. An oracle failure
// reverts the applicant to incoming and propagates for the dispatcher's
// retry policy to observe.
func (e *Evaluator) Run(ctx context.Context, applicantID string) (*models.EvaluateApplicantResponse, error) {
	logCtx := slog.With("applicantId", applicantID)

	applicant, err := e.store.GetApplicant(ctx, applicantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: applicant %s", ErrDataIntegrity, applicantID)
		}
		return nil, fmt.Errorf("load applicant %s: %w", applicantID, err)
	}

	job, err := e.store.GetJob(ctx, applicant.JobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: job %s for applicant %s", ErrDataIntegrity, applicant.JobID, applicantID)
		}
		return nil, fmt.Errorf("load job %s: %w", applicant.JobID, err)
	}
	logCtx = logCtx.With("jobId", job.ID)

	// Re-entry from the retry pass: mark the row as in-flight again.
	if applicant.Status == models.ApplicantStatusIncoming {
		if err := e.store.SetApplicantStatus(ctx, applicantID, models.ApplicantStatusAnalyzing); err != nil {
			return nil, err
		}
	}

	candidate := CandidateProfile{
		Name:  applicant.Name,
		Email: applicant.Email,
		Text:  e.candidateText(ctx, applicant),
	}

	oracleCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	result, raw, err := e.oracle.Evaluate(oracleCtx, job, candidate)
	if err != nil {
		e.revertForRetry(ctx, logCtx, applicantID, err)
		return nil, fmt.Errorf("evaluate applicant %s: %w", applicantID, err)
	}
	logCtx.Info("Oracle evaluation complete.", "score", result.Score)

	evaluation := &models.Evaluation{
		ApplicantID: applicantID,
		Result:      *result,
		RawResponse: raw,
	}
	if err := e.store.UpsertEvaluation(ctx, evaluation); err != nil {
		e.revertForRetry(ctx, logCtx, applicantID, err)
		return nil, fmt.Errorf("persist evaluation for %s: %w", applicantID, err)
	}

	newStatus := models.ApplicantStatusRejected
	if result.Qualified() {
		newStatus = models.ApplicantStatusQualified
	}
	if err := e.store.SetApplicantStatus(ctx, applicantID, newStatus); err != nil {
		// The evaluation row is already written; a retry overwrites it
		// and re-attempts this transition.
		e.revertForRetry(ctx, logCtx, applicantID, err)
		return nil, fmt.Errorf("transition applicant %s to %s: %w", applicantID, newStatus, err)
	}

	logCtx.Info("Applicant evaluated.", "newStatus", newStatus)
	return &models.EvaluateApplicantResponse{
		Status:      "success",
		ApplicantID: applicantID,
		Score:       result.Score,
		NewStatus:   newStatus,
	}, nil
}

// candidateText builds the prompt's candidate material: extracted
// document text first, then the email body, with a documented
// placeholder when both are empty.
func (e *Evaluator) candidateText(ctx context.Context, applicant *models.Applicant) string {
	var parts []string

	if e.extractor != nil && applicant.ResumeURL != "" {
		if docText := e.extractor.Extract(ctx, applicant.ResumeURL); docText != "" {
			parts = append(parts, "Resume:\n"+docText)
		}
	}
	if strings.TrimSpace(applicant.EmailBody) != "" {
		parts = append(parts, "Application Email:\n"+applicant.EmailBody)
	}

	if len(parts) == 0 {
		return emptyMaterialsPlaceholder
	}
	return strings.Join(parts, "\n\n")
}

func (e *Evaluator) revertForRetry(ctx context.Context, logCtx *slog.Logger, applicantID string, cause error) {
	logCtx.Error("Evaluation failed, reverting applicant for retry.", "error", cause)
	if err := e.store.SetApplicantStatus(ctx, applicantID, models.ApplicantStatusIncoming); err != nil {
		logCtx.Error("CRITICAL: Failed to revert applicant status after an evaluation failure.", "revertError", err)
	}
}
