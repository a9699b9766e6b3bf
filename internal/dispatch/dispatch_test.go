package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    Decision
	}{
		{
			name:    "url",
			message: "Прочитай эту страницу: https://example.com/news?id=1",
			want:    Decision{Tool: FetchWebPage, Target: "https://example.com/news?id=1"},
		},
		{
			name:    "url-without-keywords",
			message: "http://golang.org",
			want:    Decision{Tool: FetchWebPage, Target: "http://golang.org"},
		},
		{
			name:    "url-beats-search",
			message: "найди новости на https://news.ycombinator.com",
			want:    Decision{Tool: FetchWebPage, Target: "https://news.ycombinator.com"},
		},
		{
			name:    "domain-with-page-keyword",
			message: "Открой shuvaev.com",
			want:    Decision{Tool: FetchWebPage, Target: "shuvaev.com"},
		},
		{
			name:    "domain-with-what-is-on",
			message: "Что на этом сайте: news.com",
			want:    Decision{Tool: FetchWebPage, Target: "news.com"},
		},
		{
			name:    "domain-without-page-keyword",
			message: "я работаю в example.org",
			want:    Decision{},
		},
		{
			name:    "search-news",
			message: "Какие последние новости о Go?",
			want:    Decision{Tool: SearchInternet, Target: "Какие последние новости о Go?"},
		},
		{
			name:    "search-english",
			message: "Please SEARCH for gophers",
			want:    Decision{Tool: SearchInternet, Target: "Please SEARCH for gophers"},
		},
		{
			name:    "domain-and-search-keyword",
			message: "найди отзывы про example.org",
			want:    Decision{Tool: SearchInternet, Target: "найди отзывы про example.org"},
		},
		{
			name:    "plain",
			message: "Привет! Как дела?",
			want:    Decision{},
		},
		{
			name:    "empty",
			message: "",
			want:    Decision{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.message)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want.Tool != "", got.Forced())
		})
	}
}

func TestFindURL(t *testing.T) {
	assert.Equal(t, "https://a.b/c", FindURL("see https://a.b/c and http://d.e"))
	assert.Equal(t, "", FindURL("ftp://a.b"))
}

func TestFindDomain(t *testing.T) {
	assert.Equal(t, "example.com", FindDomain("go to example.com now"))
	assert.Equal(t, "", FindDomain("version 1.2 is out"))
	assert.Equal(t, "", FindDomain("no domains here"))
}

func TestKeywordsAreCaseInsensitive(t *testing.T) {
	assert.True(t, NeedsWebPage("ПРОЧИТАЙ это"))
	assert.True(t, NeedsSearch("Что Нового в мире?"))
	assert.False(t, NeedsSearch("расскажи анекдот"))
}
