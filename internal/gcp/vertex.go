package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/vertexai/genai"
)

// --- Evaluator Model Prompts ---
const EvaluatorSystemPrompt = `You are an expert HR recruiter and talent evaluator. Your job is to evaluate job applicants against specific criteria.

Analyze the candidate's resume and application materials carefully. Be thorough but fair in your assessment.

For scoring:
- 85-100: Exceptional match, strongly recommend
- 70-84: Good match, worth interviewing
- 50-69: Moderate match, consider if limited candidates
- 30-49: Weak match, significant gaps
- 0-29: Poor match, does not meet requirements`

// --- Transcriber Model Prompts ---
const TranscriberSystemPrompt = "You are a document transcription tool. Your task is to transcribe every piece of textual content from the provided document verbatim. Accuracy and completeness are of utmost importance."
const TranscriberUserPrompt = `Transcribe ALL textual content of the attached document verbatim, in reading order. Do not summarize, do not omit anything, do not add commentary. Return only the transcribed text.`

// --- Sender Extractor Model Prompts ---
const SenderExtractorSystemPrompt = `You are an email parsing tool. You are given the subject and body of a job application email whose sender could not be reliably determined from its headers (it may be forwarded). Identify the actual applicant. Respond with a JSON object with exactly two keys: "name" (the applicant's full name) and "email" (the applicant's email address, lower-cased). If a value cannot be determined, use an empty string.`

// VertexClient holds all pre-configured generative models for the pipeline.
type VertexClient struct {
	EvaluatorModel   *genai.GenerativeModel
	TranscriberModel *genai.GenerativeModel
	SenderModel      *genai.GenerativeModel
	baseClient       *genai.Client
}

// NewVertexClient creates a new client holding all necessary models.
func NewVertexClient(ctx context.Context, projectID, region string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	// --- Configure the evaluator model ---
	// JSON output is forced and constrained by an explicit response schema;
	// anything the schema cannot express is re-checked after decoding.
	evaluatorModel := baseClient.GenerativeModel("gemini-1.5-pro")
	evaluatorModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(EvaluatorSystemPrompt)},
	}
	evaluatorModel.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   EvaluationResponseSchema(),
		Temperature:      genai.Ptr[float32](0.0),
	}
	evaluatorModel.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
	}

	// --- Configure the transcriber model ---
	transcriberModel := baseClient.GenerativeModel("gemini-1.5-pro")
	transcriberModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(TranscriberSystemPrompt)},
	}
	transcriberModel.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0.0),
	}

	// --- Configure the sender extractor model ---
	senderModel := baseClient.GenerativeModel("gemini-1.5-flash")
	senderModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(SenderExtractorSystemPrompt)},
	}
	senderModel.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
	}

	return &VertexClient{
		EvaluatorModel:   evaluatorModel,
		TranscriberModel: transcriberModel,
		SenderModel:      senderModel,
		baseClient:       baseClient,
	}, nil
}

// EvaluationResponseSchema declares the strict output contract of the
// evaluator model. Array lengths that depend on the job's requirement
// lists cannot be expressed here and are validated after decoding.
func EvaluationResponseSchema() *genai.Schema {
	requirementMatch := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"requirement": {Type: genai.TypeString},
			"met":         {Type: genai.TypeBoolean},
			"notes":       {Type: genai.TypeString},
		},
		Required: []string{"requirement", "met"},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"score": {
				Type:        genai.TypeInteger,
				Description: "Overall match score from 0-100",
			},
			"summary": {
				Type:        genai.TypeString,
				Description: "2-3 sentence summary of the candidate fit",
			},
			"keyStrengths": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "3-5 key strengths of the candidate",
			},
			"redFlags": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "Any concerns or red flags (can be empty)",
			},
			"mustHavesAnalysis": {
				Type:        genai.TypeArray,
				Items:       requirementMatch,
				Description: "Analysis of each must-have requirement, in the order given",
			},
			"niceToHavesAnalysis": {
				Type:        genai.TypeArray,
				Items:       requirementMatch,
				Description: "Analysis of each nice-to-have qualification, in the order given",
			},
			"culturalFitScore": {
				Type:        genai.TypeInteger,
				Description: "Cultural fit score from 0-100",
			},
		},
		Required: []string{
			"score", "summary", "keyStrengths", "redFlags",
			"mustHavesAnalysis", "niceToHavesAnalysis", "culturalFitScore",
		},
	}
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
