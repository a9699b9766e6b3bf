package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/igolaizola/igochat/internal/dispatch"
	"github.com/igolaizola/igochat/pkg/gigachat"
	"github.com/igolaizola/igochat/pkg/perplexity"
)

// Searcher runs a web search and returns a text answer.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// SearchTool searches the internet. Failures are reported as text so the
// model can explain them to the user.
type SearchTool struct {
	searcher Searcher
}

// NewSearchTool returns a search tool. A nil searcher means the search
// backend isn't configured.
func NewSearchTool(searcher Searcher) *SearchTool {
	return &SearchTool{searcher: searcher}
}

func (t *SearchTool) Name() string {
	return dispatch.SearchInternet
}

func (t *SearchTool) Argument() string {
	return "query"
}

func (t *SearchTool) Function() gigachat.Function {
	return gigachat.Function{
		Name:        t.Name(),
		Description: "Поиск актуальной информации в интернете. Используй когда пользователь спрашивает о новостях, последних событиях, актуальной информации или просит что-то найти в интернете.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"query": {"type": "string", "description": "Поисковый запрос для поиска в интернете"}
			},
			"required": ["query"]
		}`),
	}
}

func (t *SearchTool) Run(ctx context.Context, query string) (string, error) {
	if t.searcher == nil {
		log.Println("tool: search backend not configured")
		return "Ошибка: не настроен API ключ для поиска. Проверьте файл .env и перезапустите сервер.", nil
	}
	result, err := t.searcher.Search(ctx, query)
	if err == nil {
		return result, nil
	}
	log.Println(fmt.Errorf("tool: search failed: %w", err))
	switch {
	case errors.Is(err, perplexity.ErrUnauthorized):
		return "Ошибка аутентификации API. Проверьте настройки ключа.", nil
	case errors.Is(err, perplexity.ErrRateLimited):
		return "Превышен лимит запросов API. Попробуйте позже.", nil
	case errors.Is(err, perplexity.ErrNoResults):
		return fmt.Sprintf("Не удалось получить результаты поиска по запросу \"%s\". Попробуйте переформулировать запрос.", query), nil
	}
	return fmt.Sprintf("Ошибка при поиске \"%s\": %v. Попробуйте переформулировать запрос или попросить что-то другое.", query, err), nil
}
