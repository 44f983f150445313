package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/Damon-N58/job-application-screener/internal/models"
	"github.com/Damon-N58/job-application-screener/internal/services"
)

var (
	evaluatorInstance *services.Evaluator
	once              sync.Once
	initErr           error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("HandleEvaluateApplicant", handleEvaluateApplicant)
}

// main is required by the Go Functions Framework.
func main() {}

// handleEvaluateApplicant is the worker the evaluation workflow invokes.
// A 500 marks the execution step as failed so the workflow's retry
// policy re-invokes it; a 400 marks a permanent failure (missing
// referential data) that retrying cannot fix.
func handleEvaluateApplicant(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		evaluatorInstance, initErr = services.NewEvaluatorService(context.Background())
	})
	if initErr != nil {
		slog.Error("CRITICAL: Evaluator initialization failed.", "error", initErr)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var req models.EvaluateApplicantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Could not decode request body.", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}
	if req.ApplicantID == "" {
		http.Error(w, "Bad Request: applicantId is required", http.StatusBadRequest)
		return
	}

	slog.Info("Starting background evaluation.", "applicantId", req.ApplicantID, "executionId", req.ExecutionID)

	resp, err := evaluatorInstance.Run(r.Context(), req.ApplicantID)
	if err != nil {
		if errors.Is(err, services.ErrDataIntegrity) {
			// Not retryable: the referenced applicant or job is gone.
			slog.Error("Evaluation aborted on missing referential data.", "applicantId", req.ApplicantID, "error", err)
			http.Error(w, "Bad Request: "+err.Error(), http.StatusBadRequest)
			return
		}
		// The applicant was reverted to incoming; surface the failure so
		// the workflow retries.
		http.Error(w, "Internal Server Error: evaluation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("Failed to write response.", "error", err)
		http.Error(w, "Internal Server Error: failed to encode response", http.StatusInternalServerError)
	}
}
