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

	"github.com/Damon-N58/job-application-screener/internal/mail"
	"github.com/Damon-N58/job-application-screener/internal/models"
	"github.com/Damon-N58/job-application-screener/internal/services"
)

var (
	intakeInstance *services.IntakeFunction
	once           sync.Once
	initErr        error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Register the HTTP function with the framework.
	functions.HTTP("HandleIncomingEmail", handleIncomingEmail)
}

// main is required by the Go Functions Framework.
func main() {}

// handleIncomingEmail is the inbound webhook. The email provider only
// ever sees four response shapes: 200 success (including duplicates),
// 422 when no job can be attributed, 400 on an unparseable body, 500 on
// a downstream failure.
func handleIncomingEmail(w http.ResponseWriter, r *http.Request) {
	// Use sync.Once for robust, one-time initialization of clients.
	once.Do(func() {
		intakeInstance, initErr = services.NewIntake(context.Background())
	})
	if initErr != nil {
		slog.Error("CRITICAL: Intake initialization failed.", "error", initErr)
		writeJSON(w, http.StatusInternalServerError, models.WebhookResponse{
			Success: false,
			Message: "service initialization failed",
		})
		return
	}

	switch r.Method {
	case http.MethodGet:
		// Liveness probe for webhook configuration checks.
		writeJSON(w, http.StatusOK, map[string]string{
			"status":   "incoming-email webhook active",
			"endpoint": "/webhooks/incoming-email",
		})
		return
	case http.MethodPost:
	default:
		writeJSON(w, http.StatusMethodNotAllowed, models.WebhookResponse{
			Success: false,
			Message: "POST only",
		})
		return
	}

	email, err := mail.Normalize(r)
	if err != nil {
		slog.Warn("Dropping unparseable inbound payload.", "error", err)
		writeJSON(w, http.StatusBadRequest, models.WebhookResponse{
			Success: false,
			Message: "could not parse inbound payload",
		})
		return
	}

	resp, err := intakeInstance.Process(r.Context(), email)
	if err != nil {
		if errors.Is(err, services.ErrNoActiveJob) {
			slog.Warn("Could not attribute email to any job.", "subject", email.Subject)
			writeJSON(w, http.StatusUnprocessableEntity, models.WebhookResponse{
				Success: false,
				Message: "No matching job found for this application",
				Subject: email.Subject,
			})
			return
		}
		slog.Error("Intake failed.", "error", err)
		writeJSON(w, http.StatusInternalServerError, models.WebhookResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response.", "error", err)
	}
}
