package web

import (
	"fmt"
	"strings"
	"unicode/utf8"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// DefaultMaxLength is the maximum number of characters of extracted content.
const DefaultMaxLength = 5000

const (
	removeSelector = "script, style, nav, footer, header, aside, .ad, .advertisement, .cookie-banner"
	textSelector   = "p, h1, h2, h3, h4, h5, h6, li, div, span"

	// Shorter text elements are ignored.
	minElementLength = 20
	// Shorter extractions fall back to the whole body text.
	minContentLength = 50
)

var mainSelectors = []string{
	"article",
	"main",
	".content",
	".main-content",
	".post-content",
	".article-content",
	".entry-content",
	"#content",
	"#main",
}

// Extract returns the title and main text content of an HTML document.
// Content longer than maxLength characters is cut and suffixed with "...".
func Extract(html string, maxLength int, markdown bool) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", "", fmt.Errorf("web: couldn't parse html: %w", err)
	}
	doc.Find(removeSelector).Remove()

	title := strings.TrimSpace(doc.Find("title").Text())

	container := doc.Find("body")
	for _, s := range mainSelectors {
		if sel := doc.Find(s); sel.Length() > 0 {
			container = sel.First()
			break
		}
	}

	var content string
	if markdown {
		content, err = toMarkdown(container)
		if err != nil {
			return "", "", err
		}
	} else {
		content = textContent(container)
	}

	if utf8.RuneCountInString(content) < minContentLength {
		if all := strings.TrimSpace(doc.Find("body").Text()); all != "" {
			content = all
		}
	}
	return title, Truncate(content, maxLength), nil
}

func textContent(sel *goquery.Selection) string {
	var texts []string
	sel.Find(textSelector).Each(func(_ int, el *goquery.Selection) {
		text := strings.TrimSpace(el.Text())
		if utf8.RuneCountInString(text) > minElementLength {
			texts = append(texts, text)
		}
	})
	return strings.Join(texts, "\n\n")
}

func toMarkdown(sel *goquery.Selection) (string, error) {
	html, err := goquery.OuterHtml(sel)
	if err != nil {
		return "", fmt.Errorf("web: couldn't render html: %w", err)
	}
	converter := md.NewConverter("", true, nil)
	text, err := converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("web: couldn't convert to markdown: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// Truncate cuts s to max characters, appending "..." when cut.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}
