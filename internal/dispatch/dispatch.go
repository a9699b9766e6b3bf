package dispatch

import (
	"regexp"
	"strings"
)

// Tool names understood by the provider.
const (
	SearchInternet = "search_internet"
	FetchWebPage   = "fetch_web_page"
)

var (
	urlRegexp    = regexp.MustCompile(`https?://[^\s]+`)
	domainRegexp = regexp.MustCompile(`\b[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.([a-zA-Z]{2,})\b`)
)

var pageKeywords = []string{
	"прочитай", "открой", "анализ", "содержимое", "контент", "страниц", "сайт",
	"что на", "посмотри", "изучи", "проверь",
}

var searchKeywords = []string{
	"найди", "поищи", "search", "найти", "поиск", "информация о", "новости",
	"последние", "актуальн", "что нового", "свежие", "сейчас", "сегодня",
}

// Decision is the outcome of classifying a user message.
type Decision struct {
	// Tool to force, empty when the provider decides on its own.
	Tool string
	// Target is the URL or domain for the fetch tool, or the raw message
	// for the search tool.
	Target string
}

// Forced reports whether the decision requires a tool call.
func (d Decision) Forced() bool {
	return d.Tool != ""
}

// Decide classifies the message. Explicit URLs win, then bare domains
// combined with page keywords, then search keywords.
func Decide(message string) Decision {
	if u := FindURL(message); u != "" {
		return Decision{Tool: FetchWebPage, Target: u}
	}
	if d := FindDomain(message); d != "" && NeedsWebPage(message) {
		return Decision{Tool: FetchWebPage, Target: d}
	}
	if NeedsSearch(message) {
		return Decision{Tool: SearchInternet, Target: message}
	}
	return Decision{}
}

// FindURL returns the first http(s) URL in the message.
func FindURL(message string) string {
	return urlRegexp.FindString(message)
}

// FindDomain returns the first bare domain (e.g. example.com) in the message.
func FindDomain(message string) string {
	return domainRegexp.FindString(message)
}

// NeedsWebPage reports whether the message asks to read or inspect a page.
func NeedsWebPage(message string) bool {
	return containsAny(message, pageKeywords)
}

// NeedsSearch reports whether the message asks for fresh information.
func NeedsSearch(message string) bool {
	return containsAny(message, searchKeywords)
}

func containsAny(message string, keywords []string) bool {
	lower := strings.ToLower(message)
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
