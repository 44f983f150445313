package gcp

import "testing"

func TestGetEnv(t *testing.T) {
	t.Setenv("SCREENER_TEST_KEY", "set")
	if got := GetEnv("SCREENER_TEST_KEY", "fallback"); got != "set" {
		t.Errorf("GetEnv = %q, want env value", got)
	}
	if got := GetEnv("SCREENER_TEST_MISSING", "fallback"); got != "fallback" {
		t.Errorf("GetEnv = %q, want fallback", got)
	}
}

func TestPublicURL(t *testing.T) {
	cases := []struct {
		name   string
		object string
		want   string
	}{
		{
			name:   "plain object",
			object: "resumes/1724500000-cv.pdf",
			want:   "https://storage.googleapis.com/resumes-prod/resumes/1724500000-cv.pdf",
		},
		{
			name:   "file name with spaces",
			object: "resumes/1724500000-Jane Doe CV.pdf",
			want:   "https://storage.googleapis.com/resumes-prod/resumes/1724500000-Jane%20Doe%20CV.pdf",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := PublicURL("resumes-prod", tc.object); got != tc.want {
				t.Fatalf("PublicURL = %q, want %q", got, tc.want)
			}
		})
	}
}
