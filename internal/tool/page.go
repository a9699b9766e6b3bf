package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/igolaizola/igochat/internal/dispatch"
	"github.com/igolaizola/igochat/internal/web"
	"github.com/igolaizola/igochat/pkg/gigachat"
)

// Pager fetches and extracts web pages.
type Pager interface {
	Page(ctx context.Context, u string) (*web.Page, error)
}

// PageTool fetches a web page and returns its summary.
type PageTool struct {
	pager Pager
}

func NewPageTool(pager Pager) *PageTool {
	return &PageTool{pager: pager}
}

func (t *PageTool) Name() string {
	return dispatch.FetchWebPage
}

func (t *PageTool) Argument() string {
	return "url"
}

func (t *PageTool) Function() gigachat.Function {
	return gigachat.Function{
		Name:        t.Name(),
		Description: "Получение и анализ содержимого веб-страницы по URL. Используй когда пользователь предоставляет URL веб-страницы. Извлекает заголовок, основной текст и структуру страницы для последующего анализа.",
		Parameters: json.RawMessage(`{
			"type": "object",
			"properties": {
				"url": {"type": "string", "description": "URL веб-страницы для анализа (должен начинаться с http:// или https://)"}
			},
			"required": ["url"]
		}`),
	}
}

func (t *PageTool) Run(ctx context.Context, u string) (string, error) {
	page, err := t.pager.Page(ctx, u)
	if err != nil {
		log.Println(fmt.Errorf("tool: page fetch failed: %w", err))
		return fmt.Sprintf("Ошибка при получении содержимого страницы %s: %v", u, err), nil
	}
	return page.Summary(), nil
}
