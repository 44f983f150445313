package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	executions "cloud.google.com/go/workflows/executions/apiv1"

	"github.com/Damon-N58/job-application-screener/internal/gcp"
	"github.com/Damon-N58/job-application-screener/internal/mail"
	"github.com/Damon-N58/job-application-screener/internal/matching"
	"github.com/Damon-N58/job-application-screener/internal/models"
	"github.com/Damon-N58/job-application-screener/internal/store"
)

// IntakeConfig holds all configuration for the intake function.
type IntakeConfig struct {
	ProjectID        string
	VertexAIRegion   string
	ResumeBucket     string
	WorkflowID       string
	WorkflowLocation string
	DefaultOwnerID   string
	EvalTimeout      time.Duration
}

type intakeStore interface {
	OwnerForInbox(ctx context.Context, inbox string) (string, error)
	FindActiveApplicant(ctx context.Context, ownerID, email string) (*models.Applicant, error)
	ActiveJobs(ctx context.Context, ownerID string) ([]models.Job, error)
	CreateApplicant(ctx context.Context, a *models.Applicant) (string, error)
}

type identityResolver interface {
	Resolve(ctx context.Context, fromHeader, subject, body string) mail.Identity
}

type workDispatcher interface {
	Dispatch(ctx context.Context, applicantID string) (string, error)
}

type resumeStore interface {
	Save(ctx context.Context, objectName, contentType string, data []byte) (string, error)
}

// IntakeFunction holds the dependencies of the inbound-email pipeline:
// normalize (done by the caller) -> resolve sender -> dedup -> match ->
// persist -> dispatch evaluation.
type IntakeFunction struct {
	store      intakeStore
	resolver   identityResolver
	dispatcher workDispatcher
	resumes    resumeStore
	config     IntakeConfig
}

func loadIntakeConfig() (*IntakeConfig, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	resumeBucket := gcp.GetEnv("RESUME_BUCKET", "")
	if resumeBucket == "" {
		return nil, fmt.Errorf("RESUME_BUCKET environment variable must be set")
	}

	timeoutSecs, err := strconv.Atoi(gcp.GetEnv("EVALUATION_TIMEOUT_SECONDS", "300"))
	if err != nil || timeoutSecs <= 0 {
		timeoutSecs = 300
	}

	return &IntakeConfig{
		ProjectID:        projectID,
		VertexAIRegion:   gcp.GetEnv("VERTEX_AI_REGION", "us-central1"),
		ResumeBucket:     resumeBucket,
		WorkflowID:       gcp.GetEnv("WORKFLOW_ID", "applicant-evaluation"),
		WorkflowLocation: gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
		DefaultOwnerID:   gcp.GetEnv("DEFAULT_OWNER_ID", "default"),
		EvalTimeout:      time.Duration(timeoutSecs) * time.Second,
	}, nil
}

// NewIntake wires the full intake pipeline from environment configuration.
func NewIntake(ctx context.Context) (*IntakeFunction, error) {
	config, err := loadIntakeConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	vertexClient, err := gcp.NewVertexClient(ctx, config.ProjectID, config.VertexAIRegion)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}
	executionsClient, err := executions.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}

	st := store.New(firestoreClient, store.DefaultCollections())
	oracle := NewOracle(vertexClient)
	evaluator := NewEvaluator(st, oracle, NewExtractor(oracle), config.EvalTimeout)

	f := &IntakeFunction{
		store:      st,
		resolver:   mail.NewResolver(oracle),
		dispatcher: NewDispatcher(executionsClient, config.ProjectID, config.WorkflowLocation, config.WorkflowID, evaluator),
		resumes:    &gcsResumeStore{client: storageClient, bucket: config.ResumeBucket},
		config:     *config,
	}
	slog.Info("Intake pipeline initialized.", "workflowId", config.WorkflowID, "resumeBucket", config.ResumeBucket)
	return f, nil
}

// Process runs the intake pipeline for one normalized inbound email.
// The returned error is one of the typed taxonomy values wrapped with
// context; a recognized duplicate is a success, not an error.
func (f *IntakeFunction) Process(ctx context.Context, email *models.InboundEmail) (*models.WebhookResponse, error) {
	body := email.PlainBody
	if body == "" {
		body = mail.StripHTML(email.HTMLBody)
	}

	identity := f.resolver.Resolve(ctx, email.FromHeader, email.Subject, body)
	logCtx := slog.With("from", identity.Email, "subject", email.Subject)
	logCtx.Info("Processing inbound application email.", "attachments", len(email.Attachments))

	ownerID := f.resolveOwner(ctx, logCtx, email.To)

	// Dedup gate: a re-submission from an address already on file is an
	// idempotent success, nothing is created or re-triggered.
	existing, err := f.store.FindActiveApplicant(ctx, ownerID, identity.Email)
	if err == nil {
		logCtx.Info("Applicant already exists, acknowledging without re-intake.", "applicantId", existing.ID)
		return &models.WebhookResponse{
			Success:     true,
			Message:     "Applicant already exists",
			ApplicantID: existing.ID,
			JobID:       existing.JobID,
		}, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("dedup lookup: %w", err)
	}

	jobs, err := f.store.ActiveJobs(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("load active jobs: %w", err)
	}
	job := matching.Match(jobs, email.Subject, body)
	if job == nil {
		return nil, fmt.Errorf("%w: owner %s", ErrNoActiveJob, ownerID)
	}
	logCtx = logCtx.With("jobId", job.ID)

	resumeURL := f.storeResume(ctx, logCtx, email.Attachments)

	applicant := &models.Applicant{
		OwnerID:      ownerID,
		JobID:        job.ID,
		Name:         identity.Name,
		Email:        identity.Email,
		Status:       models.ApplicantStatusAnalyzing,
		Source:       "email",
		SourceDetail: "inbound-email: " + email.To,
		EmailSubject: email.Subject,
		EmailBody:    body,
		ResumeURL:    resumeURL,
		SubmittedAt:  time.Now().UTC(),
	}
	applicantID, err := f.store.CreateApplicant(ctx, applicant)
	if err != nil {
		return nil, fmt.Errorf("create applicant: %w", err)
	}
	logCtx.Info("New applicant created.", "applicantId", applicantID)

	// Fire-and-forget: a dispatch failure degrades to a logged local run
	// and never fails the intake request that already persisted the row.
	mode, err := f.dispatcher.Dispatch(ctx, applicantID)
	if err != nil {
		logCtx.Error("Evaluation dispatch degraded path failed.", "mode", mode, "error", err)
	}

	return &models.WebhookResponse{
		Success:     true,
		Message:     "Application received",
		ApplicantID: applicantID,
		JobID:       job.ID,
	}, nil
}

// resolveOwner maps the inbound inbox address to the owning account,
// degrading to the configured default owner when the inbox is unknown.
func (f *IntakeFunction) resolveOwner(ctx context.Context, logCtx *slog.Logger, inbox string) string {
	inbox = strings.ToLower(strings.TrimSpace(inbox))
	if inbox == "" {
		return f.config.DefaultOwnerID
	}

	ownerID, err := f.store.OwnerForInbox(ctx, inbox)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logCtx.Warn("Owner lookup failed, using default owner.", "inbox", inbox, "error", err)
		}
		return f.config.DefaultOwnerID
	}
	return ownerID
}

// storeResume persists the first attachment that looks like a document
// and returns its public URL. Storage failure means "no resume", never
// an aborted intake.
func (f *IntakeFunction) storeResume(ctx context.Context, logCtx *slog.Logger, attachments []models.Attachment) string {
	att := pickResumeAttachment(attachments)
	if att == nil {
		return ""
	}

	objectName := fmt.Sprintf("resumes/%d-%s", time.Now().UnixMilli(), att.FileName)
	url, err := f.resumes.Save(ctx, objectName, att.ContentType, att.Content)
	if err != nil {
		logCtx.Warn("Resume upload failed, continuing without a stored resume.",
			"fileName", att.FileName, "error", err)
		return ""
	}

	logCtx.Info("Resume stored.", "object", objectName, "bytes", att.Size)
	return url
}

var documentExtensions = []string{".pdf", ".doc", ".docx"}

var documentContentTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// pickResumeAttachment returns the first attachment whose declared
// content type or file extension indicates a document format.
func pickResumeAttachment(attachments []models.Attachment) *models.Attachment {
	for i := range attachments {
		att := &attachments[i]
		for _, ct := range documentContentTypes {
			if strings.Contains(att.ContentType, ct) {
				return att
			}
		}
		lower := strings.ToLower(att.FileName)
		for _, ext := range documentExtensions {
			if strings.HasSuffix(lower, ext) {
				return att
			}
		}
	}
	return nil
}

// gcsResumeStore is the blob-store contract backed by Cloud Storage.
type gcsResumeStore struct {
	client *storage.Client
	bucket string
}

func (s *gcsResumeStore) Save(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
	bucketHandle := s.client.Bucket(s.bucket)
	if err := gcp.SaveBytesIfAbsent(ctx, bucketHandle, objectName, contentType, data); err != nil {
		return "", err
	}
	return gcp.PublicURL(s.bucket, objectName), nil
}
