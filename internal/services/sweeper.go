package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"golang.org/x/sync/errgroup"

	"github.com/Damon-N58/job-application-screener/internal/gcp"
	"github.com/Damon-N58/job-application-screener/internal/models"
	"github.com/Damon-N58/job-application-screener/internal/store"
)

type sweepStore interface {
	IncomingApplicants(ctx context.Context, limit int) ([]models.Applicant, error)
}

// Sweeper re-dispatches applicants left in incoming by a failed
// evaluation, making the documented retry edge a scheduled reality
// instead of an operator chore.
type Sweeper struct {
	store      sweepStore
	dispatcher workDispatcher
	limit      int
}

// NewSweeper wires the sweeper from environment configuration.
func NewSweeper(ctx context.Context) (*Sweeper, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	limit, err := strconv.Atoi(gcp.GetEnv("SWEEP_LIMIT", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	executionsClient, err := executions.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Workflows Executions client: %w", err)
	}

	st := store.New(firestoreClient, store.DefaultCollections())
	dispatcher := NewDispatcher(
		executionsClient,
		projectID,
		gcp.GetEnv("WORKFLOW_LOCATION", "us-central1"),
		gcp.GetEnv("WORKFLOW_ID", "applicant-evaluation"),
		nil, // no local fallback on the sweep path, the next sweep retries
	)

	return NewSweeperWith(st, dispatcher, limit), nil
}

func NewSweeperWith(st sweepStore, dispatcher workDispatcher, limit int) *Sweeper {
	return &Sweeper{store: st, dispatcher: dispatcher, limit: limit}
}

// Sweep re-dispatches every stuck applicant with bounded concurrency and
// returns how many dispatches were attempted. Individual dispatch
// failures are logged, counted, and do not stop the sweep.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	applicants, err := s.store.IncomingApplicants(ctx, s.limit)
	if err != nil {
		return 0, fmt.Errorf("list incoming applicants: %w", err)
	}
	if len(applicants) == 0 {
		slog.Info("No applicants awaiting re-dispatch.")
		return 0, nil
	}

	slog.Info("Re-dispatching stuck applicants.", "count", len(applicants))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(5)

	for _, applicant := range applicants {
		eg.Go(func() error {
			mode, err := s.dispatcher.Dispatch(gctx, applicant.ID)
			if err != nil {
				slog.Warn("Re-dispatch failed, applicant stays queued for the next sweep.",
					"applicantId", applicant.ID, "mode", mode, "error", err)
				return nil
			}
			slog.Info("Applicant re-dispatched.", "applicantId", applicant.ID, "mode", mode)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return len(applicants), err
	}
	return len(applicants), nil
}
