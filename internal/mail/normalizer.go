package mail

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/Damon-N58/job-application-screener/internal/models"
)

// ErrMalformedPayload marks an inbound body that cannot be parsed by any
// strategy. Terminal: the webhook answers 400 and the message is dropped,
// never redelivered.
var ErrMalformedPayload = errors.New("malformed inbound payload")

const (
	attachmentFieldPrefix = "attachments"
	defaultSubject        = "No Subject"

	// Inbound messages are small; this bounds the in-memory share of a
	// multipart parse, the rest spills to temp files.
	maxMultipartMemory = 32 << 20
)

// envelope is the SMTP-level wrapper some providers deliver alongside the
// parsed headers. Parse failure of the field yields a zero envelope, not
// a hard error.
type envelope struct {
	To   string `json:"to"`
	From string `json:"from"`
}

// jsonPayload mirrors the structured (application/json) encoding of an
// inbound message. Attachment content arrives base64-encoded, which
// encoding/json decodes into the byte slice directly.
type jsonPayload struct {
	Envelope envelope            `json:"envelope"`
	Headers  map[string]any      `json:"headers"`
	Plain    string              `json:"plain"`
	HTML     string              `json:"html"`
	Attach   []models.Attachment `json:"attachments"`
}

// Normalize turns whatever wire encoding the email provider delivered into
// one canonical InboundEmail. Multipart and JSON bodies are first-class;
// anything else gets a best-effort JSON parse before the request is
// declared malformed.
func Normalize(r *http.Request) (*models.InboundEmail, error) {
	contentType := r.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = ""
	}

	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		return normalizeMultipart(r)
	case mediaType == "application/json":
		return normalizeJSON(r.Body)
	default:
		// Unlabeled or unknown body: try the structured parse anyway.
		email, err := normalizeJSON(r.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: unrecognized content type %q", ErrMalformedPayload, contentType)
		}
		return email, nil
	}
}

func normalizeMultipart(r *http.Request) (*models.InboundEmail, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	env := parseEnvelopeField(r.FormValue("envelope"))
	headers := parseHeadersField(r.FormValue("headers"))

	email := &models.InboundEmail{
		PlainBody: r.FormValue("plain"),
		HTMLBody:  r.FormValue("html"),
		To:        env.To,
	}
	applyHeaders(email, env, headers)

	// Every field named attachments / attachments[...] is a candidate
	// document; each part is read in full while the request is alive.
	if r.MultipartForm != nil {
		for field, files := range r.MultipartForm.File {
			if !strings.HasPrefix(field, attachmentFieldPrefix) {
				continue
			}
			for _, fh := range files {
				part, err := fh.Open()
				if err != nil {
					slog.Warn("Skipping unreadable attachment part.", "field", field, "error", err)
					continue
				}
				content, err := io.ReadAll(part)
				_ = part.Close()
				if err != nil {
					slog.Warn("Skipping attachment part that failed to read.", "field", field, "error", err)
					continue
				}
				email.Attachments = append(email.Attachments, models.Attachment{
					FileName:    fh.Filename,
					ContentType: fh.Header.Get("Content-Type"),
					Content:     content,
					Size:        len(content),
				})
			}
		}
	}

	return email, nil
}

func normalizeJSON(body io.Reader) (*models.InboundEmail, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrMalformedPayload, err)
	}

	var p jsonPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	email := &models.InboundEmail{
		PlainBody:   p.Plain,
		HTMLBody:    p.HTML,
		To:          p.Envelope.To,
		Attachments: p.Attach,
	}
	for i := range email.Attachments {
		if email.Attachments[i].Size == 0 {
			email.Attachments[i].Size = len(email.Attachments[i].Content)
		}
	}
	applyHeaders(email, p.Envelope, p.Headers)
	return email, nil
}

// applyHeaders fills the sender and subject with the documented
// precedence: parsed headers win over the envelope, and every field has
// a default so absence is never an error.
func applyHeaders(email *models.InboundEmail, env envelope, headers map[string]any) {
	email.FromHeader = firstHeader(headers, "From", "from")
	if email.FromHeader == "" {
		email.FromHeader = env.From
	}

	email.Subject = firstHeader(headers, "Subject", "subject")
	if email.Subject == "" {
		email.Subject = defaultSubject
	}

	if to := firstHeader(headers, "To", "to"); email.To == "" && to != "" {
		email.To = to
	}
}

func parseEnvelopeField(value string) envelope {
	var env envelope
	if value == "" {
		return env
	}
	if err := json.Unmarshal([]byte(value), &env); err != nil {
		slog.Warn("Envelope field is not valid JSON, treating as empty.", "error", err)
		return envelope{}
	}
	return env
}

func parseHeadersField(value string) map[string]any {
	if value == "" {
		return map[string]any{}
	}
	var headers map[string]any
	if err := json.Unmarshal([]byte(value), &headers); err != nil {
		slog.Warn("Headers field is not valid JSON, treating as empty.", "error", err)
		return map[string]any{}
	}
	return headers
}

func firstHeader(headers map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := headers[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
