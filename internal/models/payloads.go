package models

// These structs define the JSON payloads exchanged at the function
// boundaries: the inbound webhook response and the request/response of
// the evaluator function invoked by the evaluation workflow.

// WebhookResponse is what the email provider sees. Only the four shapes
// documented for the webhook are ever produced: 200 success (including
// recognized duplicates), 422 no-active-job, 400 malformed payload,
// 500 downstream failure.
type WebhookResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message,omitempty"`
	ApplicantID string `json:"applicant_id,omitempty"`
	JobID       string `json:"job_id,omitempty"`
	Subject     string `json:"subject,omitempty"`
}

// EvaluateApplicantRequest is the input for the applicant-evaluator function.
type EvaluateApplicantRequest struct {
	ApplicantID string `json:"applicantId"`
	ExecutionID string `json:"executionId,omitempty"`
}

// EvaluateApplicantResponse is the output of the applicant-evaluator function.
type EvaluateApplicantResponse struct {
	Status      string `json:"status"`
	ApplicantID string `json:"applicantId"`
	Score       int    `json:"score"`
	NewStatus   string `json:"newStatus"`
}
