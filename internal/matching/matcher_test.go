package matching

import (
	"testing"

	"github.com/Damon-N58/job-application-screener/internal/models"
)

func jobs(titles ...string) []models.Job {
	out := make([]models.Job, 0, len(titles))
	for i, title := range titles {
		out = append(out, models.Job{ID: string(rune('a' + i)), Title: title})
	}
	return out
}

func TestTitleScore(t *testing.T) {
	cases := []struct {
		name   string
		title  string
		corpus string
		want   int
	}{
		{
			name:   "exact title plus words plus keyword",
			title:  "Senior Python Developer",
			corpus: Corpus("Application for Senior Python Developer role", ""),
			// 100 exact + 3 words over 2 chars + no keyword bonuses
			want: 130,
		},
		{
			name:   "partial words only",
			title:  "Senior Python Developer",
			corpus: Corpus("I know python and I am senior", ""),
			want:   20,
		},
		{
			name:   "software keyword bonus",
			title:  "Software Engineer",
			corpus: Corpus("experienced developer seeking engineer position", ""),
			// words: engineer(10), software absent; bonuses: software/developer(20) + engineer(20)
			want: 50,
		},
		{
			name:   "cto via chief technology",
			title:  "CTO",
			corpus: Corpus("applying for your chief technology officer opening", ""),
			want:   20,
		},
		{
			name:   "short words do not count",
			title:  "QA at HQ",
			corpus: Corpus("qa hq", ""),
			want:   0,
		},
		{
			name:   "repeated title words counted once",
			title:  "Designer Designer",
			corpus: Corpus("designer wanted", ""),
			want:   10,
		},
		{
			name:   "no signal",
			title:  "Product Designer",
			corpus: Corpus("hello there", ""),
			want:   0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TitleScore(tc.title, tc.corpus); got != tc.want {
				t.Fatalf("TitleScore(%q) = %d, want %d", tc.title, got, tc.want)
			}
		})
	}
}

func TestMatchExactTitleWins(t *testing.T) {
	openJobs := jobs("Product Designer", "Senior Python Developer")

	got := Match(openJobs, "Application for Senior Python Developer role", "")
	if got == nil || got.Title != "Senior Python Developer" {
		t.Fatalf("expected exact-title posting to win, got %+v", got)
	}
}

func TestMatchTieBreaksOnInputOrder(t *testing.T) {
	// Both titles score identically against the corpus; the first
	// element (most recently created) must win.
	openJobs := jobs("Backend Developer", "Frontend Developer")

	got := Match(openJobs, "developer application", "")
	if got == nil || got.ID != openJobs[0].ID {
		t.Fatalf("expected first posting on tie, got %+v", got)
	}
}

func TestMatchZeroScoreFallsBackToNewest(t *testing.T) {
	openJobs := jobs("Product Designer", "Accountant")

	got := Match(openJobs, "hello", "I would like a job")
	if got == nil || got.ID != openJobs[0].ID {
		t.Fatalf("expected newest posting on zero score, got %+v", got)
	}
}

func TestMatchNoJobs(t *testing.T) {
	if got := Match(nil, "anything", "at all"); got != nil {
		t.Fatalf("expected nil with zero open jobs, got %+v", got)
	}
}

func TestMatchUsesBodySignal(t *testing.T) {
	openJobs := jobs("Product Designer", "Senior Python Developer")

	got := Match(openJobs, "Job application", "I am applying for the senior python developer position")
	if got == nil || got.Title != "Senior Python Developer" {
		t.Fatalf("expected body text to attribute the job, got %+v", got)
	}
}
