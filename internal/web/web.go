package web

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"regexp"
	"strings"
)

// Getter retrieves the HTML of a page.
type Getter interface {
	Get(ctx context.Context, u string) (string, error)
}

// Page is the extracted content of a web page.
type Page struct {
	Title   string
	URL     string
	Content string
}

// Summary renders the page as text for the language model.
func (p *Page) Summary() string {
	title := p.Title
	if title == "" {
		title = "Без заголовка"
	}
	content := p.Content
	if content == "" {
		content = "Контент не найден или страница пустая"
	}
	return fmt.Sprintf("Заголовок: %s\nURL: %s\n\nСодержимое:\n%s", title, p.URL, content)
}

// Client fetches pages and extracts their main text.
type Client struct {
	getter    Getter
	maxLength int
	markdown  bool
}

// New returns a new Client. A zero maxLength uses DefaultMaxLength.
func New(getter Getter, maxLength int, markdown bool) *Client {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &Client{
		getter:    getter,
		maxLength: maxLength,
		markdown:  markdown,
	}
}

// Page fetches the page at the given address and extracts its content.
func (c *Client) Page(ctx context.Context, raw string) (*Page, error) {
	u, err := Normalize(raw)
	if err != nil {
		return nil, err
	}
	log.Printf("web: fetching %s", u)
	html, err := c.getter.Get(ctx, u)
	if err != nil {
		return nil, err
	}
	title, content, err := Extract(html, c.maxLength, c.markdown)
	if err != nil {
		return nil, err
	}
	log.Printf("web: extracted %q from %s (%d chars)", title, u, len([]rune(content)))
	return &Page{
		Title:   title,
		URL:     u,
		Content: content,
	}, nil
}

var schemeRegexp = regexp.MustCompile(`(?i)^https?://`)

// Normalize adds the https scheme when missing and validates the URL.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("web: empty url")
	}
	if !schemeRegexp.MatchString(raw) {
		if i := strings.Index(raw, "://"); i >= 0 {
			return "", fmt.Errorf("web: unsupported protocol %q", raw[:i])
		}
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("web: invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("web: unsupported protocol %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("web: invalid url %q: missing host", raw)
	}
	return raw, nil
}
