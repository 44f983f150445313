package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Transcriber is the oracle-backed fallback of the extraction chain.
type Transcriber interface {
	Transcribe(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Extractor produces best-effort plain text from a stored resume. It
// never fails the caller: every failure path returns the empty string so
// evaluation can proceed on the email body alone.
type Extractor struct {
	httpClient  *http.Client
	transcriber Transcriber
}

func NewExtractor(transcriber Transcriber) *Extractor {
	return &Extractor{
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		transcriber: transcriber,
	}
}

// Extract runs the strategy chain: fetch the binary, try the native PDF
// text scrape, then escalate to oracle transcription. A failed fetch
// ends the chain immediately because there is nothing to extract from.
func (e *Extractor) Extract(ctx context.Context, resumeURL string) string {
	if strings.TrimSpace(resumeURL) == "" {
		return ""
	}

	data, mimeType, err := e.fetch(ctx, resumeURL)
	if err != nil {
		slog.Warn("Resume fetch failed, evaluating without document text.",
			"resumeUrl", resumeURL, "error", err)
		return ""
	}

	if isPDF(mimeType, resumeURL) {
		if text := nativePDFText(data); text != "" {
			slog.Info("Extracted resume text natively.", "chars", len(text))
			return text
		}
	}

	if e.transcriber != nil {
		text, err := e.transcriber.Transcribe(ctx, data, mimeType)
		if err != nil {
			slog.Warn("Oracle transcription failed, evaluating without document text.", "error", err)
			return ""
		}
		if strings.TrimSpace(text) != "" {
			slog.Info("Extracted resume text via oracle transcription.", "chars", len(text))
			return text
		}
	}

	return ""
}

func (e *Extractor) fetch(ctx context.Context, resumeURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resumeURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build fetch request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch resume: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("fetch resume: unexpected status %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read resume body: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func isPDF(mimeType, url string) bool {
	return strings.Contains(mimeType, "application/pdf") ||
		strings.HasSuffix(strings.ToLower(url), ".pdf")
}

var pdfStringRe = regexp.MustCompile(`\(((?:\\.|[^\\()])*)\)`)

// nativePDFText is the local extraction strategy: validate and optimize
// the PDF, dump its page content streams, and scrape the text-showing
// operators. Returns "" whenever the result is not usable text, which
// hands the document to the oracle instead.
func nativePDFText(data []byte) string {
	tempDir, err := os.MkdirTemp("", "resume-extract-*")
	if err != nil {
		return ""
	}
	defer os.RemoveAll(tempDir)

	sourcePath := filepath.Join(tempDir, "resume.pdf")
	if err := os.WriteFile(sourcePath, data, 0o644); err != nil {
		return ""
	}

	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed

	optimizedPath := filepath.Join(tempDir, "optimized.pdf")
	if err := api.OptimizeFile(sourcePath, optimizedPath, cfg); err != nil {
		slog.Debug("PDF optimization failed, deferring to oracle transcription.", "error", err)
		return ""
	}

	contentDir := filepath.Join(tempDir, "content")
	if err := os.MkdirAll(contentDir, 0o755); err != nil {
		return ""
	}
	if err := api.ExtractContentFile(optimizedPath, contentDir, nil, cfg); err != nil {
		slog.Debug("PDF content extraction failed, deferring to oracle transcription.", "error", err)
		return ""
	}

	var b strings.Builder
	entries, err := os.ReadDir(contentDir)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		stream, err := os.ReadFile(filepath.Join(contentDir, entry.Name()))
		if err != nil {
			continue
		}
		b.WriteString(scrapeTextOperators(string(stream)))
	}

	text := strings.TrimSpace(b.String())
	if !usableText(text) {
		return ""
	}
	return text
}

// scrapeTextOperators pulls literal strings off lines carrying Tj/TJ
// text-showing operators. Encoded or subsetted fonts defeat this, which
// is exactly the case the oracle fallback exists for.
func scrapeTextOperators(stream string) string {
	var b strings.Builder
	for _, line := range strings.Split(stream, "\n") {
		if !strings.Contains(line, "Tj") && !strings.Contains(line, "TJ") {
			continue
		}
		for _, m := range pdfStringRe.FindAllStringSubmatch(line, -1) {
			s := strings.NewReplacer(`\(`, "(", `\)`, ")", `\\`, `\`).Replace(m[1])
			b.WriteString(s)
			b.WriteString(" ")
		}
		b.WriteString("\n")
	}
	return b.String()
}

// usableText requires a minimum amount of letter content so that a
// stream of glyph indices is not mistaken for extracted text.
func usableText(text string) bool {
	if len(text) < 40 {
		return false
	}
	letters := 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters*2 >= len(text)
}
