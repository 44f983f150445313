package mail

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var collapseWhitespaceRe = regexp.MustCompile(`[ \t]*\n[ \t\n]*`)

// StripHTML reduces an HTML email body to its visible text. Used when a
// message carries no plain part. On a parse failure the raw input is
// returned: a noisy body still beats an empty one for evaluation.
func StripHTML(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}

	doc.Find("script, style, head").Remove()
	text := doc.Text()
	text = collapseWhitespaceRe.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}
