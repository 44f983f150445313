package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Damon-N58/job-application-screener/internal/models"
)

// ErrNotFound is returned when a lookup by ID or key matches nothing.
var ErrNotFound = errors.New("store: not found")

// Collections names the Firestore collections the pipeline touches.
type Collections struct {
	Jobs        string
	Applicants  string
	Evaluations string
	Profiles    string
}

// DefaultCollections are used when no overrides are configured.
func DefaultCollections() Collections {
	return Collections{
		Jobs:        "jobs",
		Applicants:  "applicants",
		Evaluations: "evaluations",
		Profiles:    "profiles",
	}
}

// Store is the narrow read/write contract the pipeline has with Firestore.
// Every access is by primary key or an indexed lookup; the only scan is
// the per-owner active-jobs read, bounded by one account's open postings.
type Store struct {
	client *firestore.Client
	cols   Collections
}

func New(client *firestore.Client, cols Collections) *Store {
	return &Store{client: client, cols: cols}
}

// ActiveJobs returns the owner's active postings, most recently created
// first. The order matters: it is the matcher's tie-break and its
// zero-score fallback target.
func (s *Store) ActiveJobs(ctx context.Context, ownerID string) ([]models.Job, error) {
	docs, err := s.client.Collection(s.cols.Jobs).
		Where("ownerId", "==", ownerID).
		Where("status", "==", models.JobStatusActive).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("query active jobs: %w", err)
	}

	jobs := make([]models.Job, 0, len(docs))
	for _, doc := range docs {
		var j models.Job
		if err := doc.DataTo(&j); err != nil {
			return nil, fmt.Errorf("decode job %s: %w", doc.Ref.ID, err)
		}
		j.ID = doc.Ref.ID
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// GetJob loads a single posting by ID.
func (s *Store) GetJob(ctx context.Context, id string) (*models.Job, error) {
	doc, err := s.client.Collection(s.cols.Jobs).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	var j models.Job
	if err := doc.DataTo(&j); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	j.ID = doc.Ref.ID
	return &j, nil
}

// FindActiveApplicant looks up a non-rejected applicant by the dedup key
// (owner, lower-cased email). Rejected rows do not count: a previously
// rejected candidate may apply again.
func (s *Store) FindActiveApplicant(ctx context.Context, ownerID, email string) (*models.Applicant, error) {
	docs, err := s.client.Collection(s.cols.Applicants).
		Where("ownerId", "==", ownerID).
		Where("email", "==", email).
		Where("status", "in", []string{
			models.ApplicantStatusIncoming,
			models.ApplicantStatusAnalyzing,
			models.ApplicantStatusQualified,
		}).
		Limit(1).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("query applicant by email: %w", err)
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}

	var a models.Applicant
	if err := docs[0].DataTo(&a); err != nil {
		return nil, fmt.Errorf("decode applicant %s: %w", docs[0].Ref.ID, err)
	}
	a.ID = docs[0].Ref.ID
	return &a, nil
}

// CreateApplicant inserts a new applicant row and returns its generated ID.
func (s *Store) CreateApplicant(ctx context.Context, a *models.Applicant) (string, error) {
	docRef, _, err := s.client.Collection(s.cols.Applicants).Add(ctx, a)
	if err != nil {
		return "", fmt.Errorf("create applicant: %w", err)
	}
	return docRef.ID, nil
}

// GetApplicant loads a single applicant by ID.
func (s *Store) GetApplicant(ctx context.Context, id string) (*models.Applicant, error) {
	doc, err := s.client.Collection(s.cols.Applicants).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get applicant %s: %w", id, err)
	}
	var a models.Applicant
	if err := doc.DataTo(&a); err != nil {
		return nil, fmt.Errorf("decode applicant %s: %w", id, err)
	}
	a.ID = doc.Ref.ID
	return &a, nil
}

// SetApplicantStatus moves an applicant's lifecycle status.
func (s *Store) SetApplicantStatus(ctx context.Context, id, newStatus string) error {
	_, err := s.client.Collection(s.cols.Applicants).Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: newStatus},
	})
	if err != nil {
		return fmt.Errorf("set applicant %s status to %s: %w", id, newStatus, err)
	}
	return nil
}

// IncomingApplicants lists applicants awaiting a (re-)dispatch, oldest first.
func (s *Store) IncomingApplicants(ctx context.Context, limit int) ([]models.Applicant, error) {
	docs, err := s.client.Collection(s.cols.Applicants).
		Where("status", "==", models.ApplicantStatusIncoming).
		OrderBy("submittedAt", firestore.Asc).
		Limit(limit).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("query incoming applicants: %w", err)
	}

	out := make([]models.Applicant, 0, len(docs))
	for _, doc := range docs {
		var a models.Applicant
		if err := doc.DataTo(&a); err != nil {
			return nil, fmt.Errorf("decode applicant %s: %w", doc.Ref.ID, err)
		}
		a.ID = doc.Ref.ID
		out = append(out, a)
	}
	return out, nil
}

// UpsertEvaluation writes the evaluation row keyed by applicant ID.
// Keying the document by applicant ID is what makes a duplicate dispatch
// rewrite the same row instead of creating a second one.
func (s *Store) UpsertEvaluation(ctx context.Context, ev *models.Evaluation) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	_, err := s.client.Collection(s.cols.Evaluations).Doc(ev.ApplicantID).Set(ctx, ev)
	if err != nil {
		return fmt.Errorf("upsert evaluation for applicant %s: %w", ev.ApplicantID, err)
	}
	return nil
}

// OwnerForInbox resolves the owning account for an inbound inbox address.
func (s *Store) OwnerForInbox(ctx context.Context, inbox string) (string, error) {
	docs, err := s.client.Collection(s.cols.Profiles).
		Where("inboxAddress", "==", inbox).
		Limit(1).
		Documents(ctx).GetAll()
	if err != nil {
		return "", fmt.Errorf("query profile by inbox: %w", err)
	}
	if len(docs) == 0 {
		return "", ErrNotFound
	}
	return docs[0].Ref.ID, nil
}
