package summarizer

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const systemPrompt = `Summarize the content provided by the user.

Rules:
- Under 30 words.
- Focus on key points only.
- Return only the summary, without preamble or quotes.
- Write in the same language as the content.`

var markupRe = regexp.MustCompile(
	`(?i)<(?:html|body|article|section|div|p|span|br|a|ul|ol|li|h[1-6]|table|blockquote)\b[^>]*>`,
)

// promptText returns the text that is sent to a remote provider. Snippets
// pasted as HTML are reduced to their visible text.
func promptText(input Input) (string, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return "", ErrEmptyInput
	}

	if !markupRe.MatchString(text) {
		return text, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return text, nil
	}

	doc.Find("script, style, noscript").Remove()

	visible := strings.Join(strings.Fields(doc.Text()), " ")
	if visible == "" {
		return text, nil
	}

	return visible, nil
}
