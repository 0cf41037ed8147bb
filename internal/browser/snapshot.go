package browser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxCandidateText caps the text carried per candidate so prompts stay small.
const maxCandidateText = 80

// PageText parses HTML and returns the visible text with noise elements
// removed and whitespace normalized.
func PageText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript, svg, iframe").Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}

	return cleanWhitespace(body.Text()), nil
}

// Candidates enumerates the interactive elements in the HTML: links, buttons,
// inputs, and selects, each with a CSS selector stable enough to act on.
func Candidates(html string) ([]Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var out []Candidate
	doc.Find("a, button, input, select, textarea").Each(func(_ int, sel *goquery.Selection) {
		tag := goquery.NodeName(sel)
		if tag == "input" {
			if typ, _ := sel.Attr("type"); typ == "hidden" {
				return
			}
		}

		c := Candidate{
			Selector: selectorFor(sel, tag),
			Tag:      tag,
			Text:     truncate(collapseSpaces(sel.Text()), maxCandidateText),
		}
		if name, ok := sel.Attr("name"); ok {
			c.Name = name
		}
		if c.Text == "" {
			if ph, ok := sel.Attr("placeholder"); ok {
				c.Text = truncate(ph, maxCandidateText)
			} else if label, ok := sel.Attr("aria-label"); ok {
				c.Text = truncate(label, maxCandidateText)
			} else if val, ok := sel.Attr("value"); ok {
				c.Text = truncate(val, maxCandidateText)
			}
		}
		out = append(out, c)
	})

	return out, nil
}

// selectorFor derives a CSS selector for an element, preferring stable
// attributes over positional fallbacks.
func selectorFor(sel *goquery.Selection, tag string) string {
	if id, ok := sel.Attr("id"); ok && id != "" {
		return "#" + id
	}
	if name, ok := sel.Attr("name"); ok && name != "" {
		return fmt.Sprintf(`%s[name=%q]`, tag, name)
	}
	if tag == "a" {
		if href, ok := sel.Attr("href"); ok && href != "" && href != "#" {
			return fmt.Sprintf(`a[href=%q]`, href)
		}
	}
	// Positional fallback, scoped to siblings of the same tag.
	return fmt.Sprintf("%s:nth-of-type(%d)", tag, sel.PrevAllFiltered(tag).Length()+1)
}

// cleanWhitespace trims each line and drops empty ones, preserving the
// page's line structure for the model.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}

// collapseSpaces flattens all whitespace runs to single spaces.
func collapseSpaces(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// truncate caps s at n runes. Cutting on a byte count could split a
// multi-byte character and feed invalid UTF-8 into the candidate JSON.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
