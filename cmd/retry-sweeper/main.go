package main

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/Damon-N58/job-application-screener/internal/services"
)

var (
	sweeperInstance *services.Sweeper
	once            sync.Once
	initErr         error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Triggered by a Cloud Scheduler tick delivered over Pub/Sub.
	functions.CloudEvent("SweepStuckApplicants", sweepStuckApplicants)
}

// main is required by the Go Functions Framework.
func main() {}

// sweepStuckApplicants re-dispatches applicants whose evaluation failed
// and left them in the incoming state. The event payload carries no
// information; the tick itself is the instruction.
func sweepStuckApplicants(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		sweeperInstance, initErr = services.NewSweeper(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	count, err := sweeperInstance.Sweep(ctx)
	if err != nil {
		slog.Error("Sweep failed.", "eventId", e.ID(), "error", err)
		return err
	}

	slog.Info("Sweep complete.", "eventId", e.ID(), "dispatched", count)
	return nil
}
