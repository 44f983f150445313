package services

import (
	"strings"
	"testing"

	"github.com/Damon-N58/job-application-screener/internal/models"
)

func TestBuildEvaluationPrompt(t *testing.T) {
	job := &models.Job{
		Title:       "Backend Engineer",
		Department:  "Engineering",
		Description: "Build and operate our ingestion services.",
		Persona: models.AIPersona{
			MustHaves:   []string{"5+ years backend", "Production Go"},
			NiceToHaves: []string{"GCP experience"},
			CulturalFit: "Collaborative, writes things down.",
		},
	}
	candidate := CandidateProfile{
		Name:  "Jane Doe",
		Email: "jane@x.com",
		Text:  "Resume:\nEight years of Go.",
	}

	prompt := BuildEvaluationPrompt(job, candidate)

	for _, want := range []string{
		"**Job Title:** Backend Engineer",
		"**Department:** Engineering",
		"1. 5+ years backend",
		"2. Production Go",
		"1. GCP experience",
		"Collaborative, writes things down.",
		"Name: Jane Doe",
		"Email: jane@x.com",
		"Eight years of Go.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildEvaluationPromptDefaultsCulturalFit(t *testing.T) {
	job := &models.Job{Title: "Backend Engineer"}
	prompt := BuildEvaluationPrompt(job, CandidateProfile{Text: "x"})

	if !strings.Contains(prompt, "Not specified") {
		t.Error("empty cultural fit must render as Not specified")
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: `{"score": 80}`, want: `{"score": 80}`},
		{name: "json fence", in: "```json\n{\"score\": 80}\n```", want: `{"score": 80}`},
		{name: "bare fence", in: "```\n{\"score\": 80}\n```", want: `{"score": 80}`},
		{name: "padded", in: "  {\"score\": 80}  ", want: `{"score": 80}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractJSON(tc.in); got != tc.want {
				t.Fatalf("extractJSON(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
