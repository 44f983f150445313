package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type stubTranscriber struct {
	text     string
	err      error
	called   bool
	lastMIME string
}

func (s *stubTranscriber) Transcribe(_ context.Context, _ []byte, mimeType string) (string, error) {
	s.called = true
	s.lastMIME = mimeType
	return s.text, s.err
}

func TestExtractEmptyURL(t *testing.T) {
	transcriber := &stubTranscriber{}
	e := NewExtractor(transcriber)

	if got := e.Extract(context.Background(), "  "); got != "" {
		t.Fatalf("Extract() = %q, want empty", got)
	}
	if transcriber.called {
		t.Fatal("transcriber must not run without a URL")
	}
}

func TestExtractFetchFailureEndsChain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	transcriber := &stubTranscriber{text: "should never be used"}
	e := NewExtractor(transcriber)

	if got := e.Extract(context.Background(), srv.URL+"/resumes/1-cv.pdf"); got != "" {
		t.Fatalf("Extract() = %q, want empty on 404", got)
	}
	if transcriber.called {
		t.Fatal("a failed fetch must end the chain before transcription")
	}
}

func TestExtractFallsBackToTranscriber(t *testing.T) {
	// A body that is not a parseable PDF forces the oracle fallback.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("not actually a pdf"))
	}))
	defer srv.Close()

	transcriber := &stubTranscriber{text: "Transcribed resume text"}
	e := NewExtractor(transcriber)

	got := e.Extract(context.Background(), srv.URL+"/resumes/1-cv.pdf")
	if got != "Transcribed resume text" {
		t.Fatalf("Extract() = %q, want transcriber output", got)
	}
	if transcriber.lastMIME != "application/pdf" {
		t.Errorf("transcriber received mime %q", transcriber.lastMIME)
	}
}

func TestExtractTranscriberFailureSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("binary blob"))
	}))
	defer srv.Close()

	transcriber := &stubTranscriber{err: errors.New("model unavailable")}
	e := NewExtractor(transcriber)

	if got := e.Extract(context.Background(), srv.URL+"/resumes/1-cv.docx"); got != "" {
		t.Fatalf("Extract() = %q, want empty on transcription failure", got)
	}
}

func TestExtractWhitespaceTranscriptionRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("binary blob"))
	}))
	defer srv.Close()

	transcriber := &stubTranscriber{text: "  \n\t "}
	e := NewExtractor(transcriber)

	if got := e.Extract(context.Background(), srv.URL+"/resumes/1-cv.docx"); got != "" {
		t.Fatalf("Extract() = %q, want whitespace output discarded", got)
	}
}

func TestScrapeTextOperators(t *testing.T) {
	stream := "BT\n(Hello) Tj\n[(World) -250 (again)] TJ\n(ignored, no operator)\nET\n"

	got := scrapeTextOperators(stream)
	for _, want := range []string{"Hello", "World", "again"} {
		if !strings.Contains(got, want) {
			t.Errorf("scraped text %q missing %q", got, want)
		}
	}
	if strings.Contains(got, "ignored") {
		t.Errorf("scraped text %q includes a non-operator line", got)
	}
}

func TestUsableText(t *testing.T) {
	if usableText("short") {
		t.Error("short text must not be usable")
	}
	if usableText("0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3") {
		t.Error("digit soup must not be usable")
	}
	if !usableText("This is a perfectly ordinary paragraph of extracted resume text.") {
		t.Error("ordinary prose must be usable")
	}
}
