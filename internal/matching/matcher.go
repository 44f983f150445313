package matching

import (
	"log/slog"
	"strings"

	"github.com/Damon-N58/job-application-screener/internal/models"
)

// Scoring constants. The values are load-bearing: exact-title matches
// must dominate any combination of partial-word and keyword bonuses a
// single competing posting can accumulate.
const (
	exactTitleScore  = 100
	titleWordScore   = 10
	keywordScore     = 20
	minTitleWordLen  = 3
	scoreDenominator = 130 // display-only normalization, never used for selection
)

// Match scores every posting against the email's subject and body and
// returns the attribution target. Callers must pass active jobs sorted
// most-recently-created-first: ties and the zero-score fallback both
// resolve to the earliest element. Returns nil only when jobs is empty.
func Match(jobs []models.Job, subject, body string) *models.Job {
	if len(jobs) == 0 {
		return nil
	}

	corpus := Corpus(subject, body)

	best := 0
	bestIdx := 0
	for i := range jobs {
		score := TitleScore(jobs[i].Title, corpus)
		slog.Debug("Scored job against email.",
			"jobId", jobs[i].ID,
			"title", jobs[i].Title,
			"score", score,
			"normalized", float64(score)/scoreDenominator,
		)
		if score > best {
			best = score
			bestIdx = i
		}
	}

	if best == 0 {
		// Every inbound email is presumed to be an application: with no
		// signal at all, attribute to the most recent opening rather
		// than dropping the candidate.
		slog.Info("No title signal in email, attributing to most recent job.",
			"jobId", jobs[0].ID, "title", jobs[0].Title)
		return &jobs[0]
	}

	return &jobs[bestIdx]
}

// TitleScore computes the integer match score of one job title against a
// lower-cased search corpus.
func TitleScore(title, corpus string) int {
	titleLower := strings.ToLower(title)
	score := 0

	if titleLower != "" && strings.Contains(corpus, titleLower) {
		score += exactTitleScore
	}

	seen := make(map[string]bool)
	for _, word := range strings.Fields(titleLower) {
		if len(word) < minTitleWordLen || seen[word] {
			continue
		}
		seen[word] = true
		if strings.Contains(corpus, word) {
			score += titleWordScore
		}
	}

	if strings.Contains(titleLower, "software") &&
		(strings.Contains(corpus, "software") || strings.Contains(corpus, "developer") || strings.Contains(corpus, "programmer")) {
		score += keywordScore
	}
	if strings.Contains(titleLower, "engineer") && strings.Contains(corpus, "engineer") {
		score += keywordScore
	}
	if strings.Contains(titleLower, "cto") &&
		(strings.Contains(corpus, "cto") || strings.Contains(corpus, "chief technology")) {
		score += keywordScore
	}

	return score
}

// Corpus builds the lower-cased search text the matcher scores against.
func Corpus(subject, body string) string {
	return strings.ToLower(subject + " " + body)
}
