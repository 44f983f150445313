package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"github.com/Damon-N58/job-application-screener/internal/gcp"
	"github.com/Damon-N58/job-application-screener/internal/mail"
	"github.com/Damon-N58/job-application-screener/internal/models"
)

// OracleError kinds. A schema error means the model answered but the
// response did not conform to the declared contract; a transport error
// means the call itself failed (including timeout). Both revert the
// applicant for retry, the distinction exists for operator telemetry.
const (
	OracleErrorSchema    = "schema"
	OracleErrorTransport = "transport"
)

// OracleError is the only failure the evaluation oracle surfaces.
type OracleError struct {
	Kind string
	Err  error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("oracle %s error: %v", e.Kind, e.Err)
}

func (e *OracleError) Unwrap() error { return e.Err }

// CandidateProfile is the candidate-side input of one evaluation call.
type CandidateProfile struct {
	Name  string
	Email string
	Text  string
}

// Oracle adapts the Vertex AI models to the pipeline's typed contracts:
// schema-validated evaluation, verbatim document transcription, and
// sender-identity extraction.
type Oracle struct {
	vertex *gcp.VertexClient
}

func NewOracle(vertex *gcp.VertexClient) *Oracle {
	return &Oracle{vertex: vertex}
}

// Evaluate sends the structured evaluation request and returns the typed,
// validated result together with the raw model output. A response that
// does not conform to the schema is rejected in full; partial or
// loosely-typed results never escape this boundary.
func (o *Oracle) Evaluate(ctx context.Context, job *models.Job, candidate CandidateProfile) (*models.EvaluationResult, string, error) {
	prompt := BuildEvaluationPrompt(job, candidate)

	resp, err := o.vertex.EvaluatorModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, "", &OracleError{Kind: OracleErrorTransport, Err: err}
	}

	raw := responseText(resp)
	if raw == "" {
		return nil, "", &OracleError{Kind: OracleErrorSchema, Err: fmt.Errorf("model returned no text content")}
	}

	var result models.EvaluationResult
	if err := json.Unmarshal([]byte(extractJSON(raw)), &result); err != nil {
		return nil, raw, &OracleError{Kind: OracleErrorSchema, Err: fmt.Errorf("decode evaluation: %w", err)}
	}
	if err := result.Validate(job.Persona); err != nil {
		return nil, raw, &OracleError{Kind: OracleErrorSchema, Err: err}
	}

	return &result, raw, nil
}

// Transcribe asks the oracle to transcribe all textual content of the
// document verbatim. Only a non-empty, non-whitespace response is
// accepted.
func (o *Oracle) Transcribe(ctx context.Context, data []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	resp, err := o.vertex.TranscriberModel.GenerateContent(ctx,
		genai.Blob{MIMEType: mimeType, Data: data},
		genai.Text(gcp.TranscriberUserPrompt),
	)
	if err != nil {
		return "", fmt.Errorf("transcribe document: %w", err)
	}

	text := strings.TrimSpace(responseText(resp))
	if text == "" {
		return "", fmt.Errorf("transcription returned no text")
	}
	return text, nil
}

// ExtractIdentity implements the sender-identity escalation: given the
// email's subject and body, the model names the actual applicant.
func (o *Oracle) ExtractIdentity(ctx context.Context, subject, body string) (mail.Identity, error) {
	prompt := fmt.Sprintf("Subject: %s\n\nBody:\n%s", subject, body)

	resp, err := o.vertex.SenderModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return mail.Identity{}, fmt.Errorf("extract sender identity: %w", err)
	}

	raw := responseText(resp)
	var identity struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &identity); err != nil {
		return mail.Identity{}, fmt.Errorf("decode sender identity: %w", err)
	}

	return mail.Identity{Name: identity.Name, Email: identity.Email}, nil
}

// BuildEvaluationPrompt assembles the deterministic evaluation prompt:
// job facts, enumerated requirements, cultural-fit narrative, candidate
// identity and the best-available candidate text.
func BuildEvaluationPrompt(job *models.Job, candidate CandidateProfile) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Evaluate this candidate for the following position:\n\n")
	fmt.Fprintf(&b, "**Job Title:** %s\n", job.Title)
	fmt.Fprintf(&b, "**Department:** %s\n\n", job.Department)
	fmt.Fprintf(&b, "**Job Description:**\n%s\n\n", job.Description)

	fmt.Fprintf(&b, "**Must-Have Requirements:**\n")
	for i, req := range job.Persona.MustHaves {
		fmt.Fprintf(&b, "%d. %s\n", i+1, req)
	}

	fmt.Fprintf(&b, "\n**Nice-to-Have Qualifications:**\n")
	for i, req := range job.Persona.NiceToHaves {
		fmt.Fprintf(&b, "%d. %s\n", i+1, req)
	}

	culturalFit := job.Persona.CulturalFit
	if strings.TrimSpace(culturalFit) == "" {
		culturalFit = "Not specified"
	}
	fmt.Fprintf(&b, "\n**Cultural Fit Description:**\n%s\n", culturalFit)

	fmt.Fprintf(&b, "\n---\n\n**Candidate Information:**\n")
	fmt.Fprintf(&b, "Name: %s\nEmail: %s\n\n", candidate.Name, candidate.Email)
	fmt.Fprintf(&b, "%s\n", candidate.Text)
	fmt.Fprintf(&b, "\n---\n\nProvide a comprehensive evaluation of this candidate against all the requirements.")

	return b.String()
}

// responseText concatenates every text part of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return strings.TrimSpace(b.String())
}

// extractJSON strips markdown code fences some models wrap around JSON
// output even when a JSON response type is requested.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	return strings.TrimSpace(raw)
}
