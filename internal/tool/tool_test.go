package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/igolaizola/igochat/internal/web"
	"github.com/igolaizola/igochat/pkg/perplexity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArguments(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    map[string]any
		raw     string
		wantErr bool
	}{
		{
			name:  "object",
			input: `{"query":"golang news"}`,
			want:  map[string]any{"query": "golang news"},
			raw:   `{"query":"golang news"}`,
		},
		{
			name:  "string-encoded-object",
			input: `"{\"url\":\"https://go.dev\"}"`,
			want:  map[string]any{"url": "https://go.dev"},
			raw:   `{"url":"https://go.dev"}`,
		},
		{
			name:  "embedded-object",
			input: `"call with {\"query\": \"go\"} please"`,
			want:  map[string]any{"query": "go"},
			raw:   `call with {"query": "go"} please`,
		},
		{
			name:  "empty",
			input: ``,
			want:  map[string]any{},
		},
		{
			name:  "null",
			input: `null`,
			want:  map[string]any{},
		},
		{
			name:  "array",
			input: `["go news"]`,
			want:  map[string]any{},
			raw:   `["go news"]`,
		},
		{
			name:  "number",
			input: `42`,
			want:  map[string]any{},
			raw:   `42`,
		},
		{
			name:    "plain-string",
			input:   `"latest go release"`,
			raw:     `latest go release`,
			wantErr: true,
		},
		{
			name:    "malformed",
			input:   `{"query": "unterminated`,
			raw:     `{"query": "unterminated`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, raw, err := ParseArguments(json.RawMessage(tt.input))
			assert.Equal(t, tt.raw, raw)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStringArg(t *testing.T) {
	args := map[string]any{"query": "  go  ", "n": 3.0, "nil": nil}
	assert.Equal(t, "go", StringArg(args, "query"))
	assert.Equal(t, "3", StringArg(args, "n"))
	assert.Equal(t, "", StringArg(args, "nil"))
	assert.Equal(t, "", StringArg(args, "missing"))
}

func TestRegistry(t *testing.T) {
	search := NewSearchTool(nil)
	page := NewPageTool(nil)
	r := NewRegistry(search, page)

	got, ok := r.Get("Search-Internet")
	require.True(t, ok)
	assert.Equal(t, search, got)

	got, ok = r.Get("fetch web page")
	require.True(t, ok)
	assert.Equal(t, page, got)

	_, ok = r.Get("bash")
	assert.False(t, ok)

	fns := r.Functions()
	require.Len(t, fns, 2)
	assert.Equal(t, "search_internet", fns[0].Name)
	assert.Equal(t, "fetch_web_page", fns[1].Name)
	for _, fn := range fns {
		assert.True(t, json.Valid(fn.Parameters), fn.Name)
	}
}

type fakeSearcher struct {
	result string
	err    error
}

func (f *fakeSearcher) Search(_ context.Context, query string) (string, error) {
	return f.result, f.err
}

func TestSearchTool(t *testing.T) {
	tests := []struct {
		name     string
		searcher Searcher
		want     string
	}{
		{name: "ok", searcher: &fakeSearcher{result: "found"}, want: "found"},
		{name: "not-configured", want: "Ошибка: не настроен API ключ для поиска. Проверьте файл .env и перезапустите сервер."},
		{
			name:     "unauthorized",
			searcher: &fakeSearcher{err: fmt.Errorf("%w: 401", perplexity.ErrUnauthorized)},
			want:     "Ошибка аутентификации API. Проверьте настройки ключа.",
		},
		{
			name:     "rate-limited",
			searcher: &fakeSearcher{err: perplexity.ErrRateLimited},
			want:     "Превышен лимит запросов API. Попробуйте позже.",
		},
		{
			name:     "no-results",
			searcher: &fakeSearcher{err: perplexity.ErrNoResults},
			want:     "Не удалось получить результаты поиска по запросу \"go\". Попробуйте переформулировать запрос.",
		},
		{
			name:     "other",
			searcher: &fakeSearcher{err: errors.New("timeout")},
			want:     "Ошибка при поиске \"go\": timeout. Попробуйте переформулировать запрос или попросить что-то другое.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewSearchTool(tt.searcher).Run(context.Background(), "go")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type fakePager struct {
	page *web.Page
	err  error
}

func (f *fakePager) Page(_ context.Context, u string) (*web.Page, error) {
	return f.page, f.err
}

func TestPageTool(t *testing.T) {
	tool := NewPageTool(&fakePager{page: &web.Page{Title: "Go", URL: "https://go.dev", Content: "Build simple software"}})
	got, err := tool.Run(context.Background(), "go.dev")
	require.NoError(t, err)
	assert.Equal(t, "Заголовок: Go\nURL: https://go.dev\n\nСодержимое:\nBuild simple software", got)

	tool = NewPageTool(&fakePager{err: errors.New("connection refused")})
	got, err = tool.Run(context.Background(), "go.dev")
	require.NoError(t, err)
	assert.Equal(t, "Ошибка при получении содержимого страницы go.dev: connection refused", got)
}
