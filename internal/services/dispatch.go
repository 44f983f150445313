package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	executions "cloud.google.com/go/workflows/executions/apiv1"
	"cloud.google.com/go/workflows/executions/apiv1/executionspb"

	"github.com/Damon-N58/job-application-screener/internal/models"
)

// Dispatch outcomes. The two paths are logged distinctly so operational
// telemetry can tell a healthy queue from a degraded in-process run.
const (
	DispatchModeEnqueued = "enqueued"
	DispatchModeLocal    = "ran-locally"
)

type localRunner interface {
	Run(ctx context.Context, applicantID string) (*models.EvaluateApplicantResponse, error)
}

// Dispatcher hands evaluation work to the evaluation workflow, falling
// back to a synchronous in-process run when enqueuing itself fails.
type Dispatcher struct {
	executionsClient *executions.Client
	workflowParent   string
	local            localRunner
}

func NewDispatcher(executionsClient *executions.Client, projectID, location, workflowID string, local localRunner) *Dispatcher {
	return &Dispatcher{
		executionsClient: executionsClient,
		workflowParent:   fmt.Sprintf("projects/%s/locations/%s/workflows/%s", projectID, location, workflowID),
		local:            local,
	}
}

// Dispatch is fire-and-forget from the caller's perspective: the returned
// error is from the degraded local path only and the caller logs it
// without failing the original request. The remotely-executed task
// reports its own failures to the workflow so its retry policy
// (3 attempts, 1s-10s exponential backoff) can re-invoke it.
func (d *Dispatcher) Dispatch(ctx context.Context, applicantID string) (string, error) {
	payload, err := json.Marshal(map[string]string{"applicantId": applicantID})
	if err != nil {
		return "", fmt.Errorf("marshal dispatch payload: %w", err)
	}

	if d.executionsClient != nil {
		req := &executionspb.CreateExecutionRequest{
			Parent: d.workflowParent,
			Execution: &executionspb.Execution{
				Argument: string(payload),
			},
		}
		exec, err := d.executionsClient.CreateExecution(ctx, req)
		if err == nil {
			slog.Info("Evaluation enqueued on workflow.",
				"applicantId", applicantID, "execution", exec.GetName())
			return DispatchModeEnqueued, nil
		}
		slog.Warn("Workflow enqueue failed, falling back to local evaluation.",
			"applicantId", applicantID, "error", err)
	}

	if d.local == nil {
		return DispatchModeLocal, fmt.Errorf("no local evaluator configured for fallback")
	}

	if _, err := d.local.Run(ctx, applicantID); err != nil {
		return DispatchModeLocal, fmt.Errorf("local evaluation fallback: %w", err)
	}

	slog.Info("Evaluation ran locally after enqueue failure.", "applicantId", applicantID)
	return DispatchModeLocal, nil
}
