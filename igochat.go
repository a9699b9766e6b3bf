package igochat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/igolaizola/igochat/internal/google"
	"github.com/igolaizola/igochat/internal/relay"
	"github.com/igolaizola/igochat/internal/server"
	"github.com/igolaizola/igochat/internal/tool"
	"github.com/igolaizola/igochat/internal/web"
	"github.com/igolaizola/igochat/pkg/gigachat"
	"github.com/igolaizola/igochat/pkg/perplexity"
)

type Config struct {
	Addr   string `yaml:"addr"`
	Static string `yaml:"static"`

	// GigaChat parameters
	GigachatCredentials string        `yaml:"gigachat-credentials"`
	GigachatAuthURL     string        `yaml:"gigachat-auth-url"`
	GigachatAPIURL      string        `yaml:"gigachat-api-url"`
	GigachatScope       string        `yaml:"gigachat-scope"`
	GigachatModel       string        `yaml:"gigachat-model"`
	GigachatTemperature float64       `yaml:"gigachat-temperature"`
	GigachatMaxTokens   int           `yaml:"gigachat-max-tokens"`
	GigachatTimeout     time.Duration `yaml:"gigachat-timeout"`
	GigachatRetries     int           `yaml:"gigachat-retries"`
	GigachatRetryWait   time.Duration `yaml:"gigachat-retry-wait"`
	GigachatCA          string        `yaml:"gigachat-ca"`
	GigachatInsecure    bool          `yaml:"gigachat-insecure"`
	HistoryTokens       int           `yaml:"history-tokens"`

	// Search parameters
	SearchProvider        string        `yaml:"search-provider"`
	SearchTimeout         time.Duration `yaml:"search-timeout"`
	PerplexityKey         string        `yaml:"perplexity-key"`
	PerplexityModel       string        `yaml:"perplexity-model"`
	PerplexityURL         string        `yaml:"perplexity-url"`
	PerplexityTemperature float64       `yaml:"perplexity-temperature"`
	GoogleKey             string        `yaml:"google-key"`
	GoogleCX              string        `yaml:"google-cx"`

	// Web parameters
	WebBackend   string        `yaml:"web-backend"`
	WebTimeout   time.Duration `yaml:"web-timeout"`
	WebInsecure  bool          `yaml:"web-insecure"`
	WebMaxLength int           `yaml:"web-max-length"`
	WebMarkdown  bool          `yaml:"web-markdown"`
	BrowserURL   string        `yaml:"browser-remote"`
	Proxy        string        `yaml:"proxy"`
}

// Serve launches the chat relay HTTP server.
func Serve(ctx context.Context, cfg *Config) error {
	r, err := newRelay(cfg)
	if err != nil {
		return err
	}
	log.Printf("igochat: gigachat credentials loaded (%s...)", prefix(cfg.GigachatCredentials, 10))
	srv := server.New(r, cfg.Addr, cfg.Static)
	return srv.Run(ctx)
}

// Ask sends a single message through the relay and prints the result.
func Ask(ctx context.Context, cfg *Config, message string) error {
	if message == "" {
		return fmt.Errorf("igochat: message is required")
	}
	r, err := newRelay(cfg)
	if err != nil {
		return err
	}
	result, err := r.Send(ctx, message, nil)
	if err != nil {
		return fmt.Errorf("igochat: couldn't send message: %w", err)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(result)
}

// Fetch prints the extracted content of a web page.
func Fetch(ctx context.Context, cfg *Config, u string) error {
	w, err := newWeb(cfg)
	if err != nil {
		return err
	}
	page, err := w.Page(ctx, u)
	if err != nil {
		return fmt.Errorf("igochat: couldn't fetch page: %w", err)
	}
	fmt.Println(page.Summary())
	return nil
}

// Search prints the search results for the query.
func Search(ctx context.Context, cfg *Config, query string) error {
	searcher, err := newSearcher(cfg)
	if err != nil {
		return err
	}
	if searcher == nil {
		return fmt.Errorf("igochat: search provider %q is not configured", cfg.SearchProvider)
	}
	text, err := searcher.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("igochat: couldn't search: %w", err)
	}
	fmt.Println(text)
	return nil
}

func newRelay(cfg *Config) (*relay.Relay, error) {
	chat, err := gigachat.New(&gigachat.Config{
		Credentials: cfg.GigachatCredentials,
		AuthURL:     cfg.GigachatAuthURL,
		APIURL:      cfg.GigachatAPIURL,
		Scope:       cfg.GigachatScope,
		Timeout:     cfg.GigachatTimeout,
		Retries:     cfg.GigachatRetries,
		RetryWait:   cfg.GigachatRetryWait,
		CAFile:      cfg.GigachatCA,
		Insecure:    cfg.GigachatInsecure,
	})
	if err != nil {
		return nil, fmt.Errorf("igochat: couldn't create gigachat client: %w", err)
	}
	searcher, err := newSearcher(cfg)
	if err != nil {
		return nil, err
	}
	if searcher == nil {
		log.Println("igochat: search provider not configured")
	}
	pager, err := newWeb(cfg)
	if err != nil {
		return nil, err
	}
	tools := tool.NewRegistry(tool.NewSearchTool(searcher), tool.NewPageTool(pager))
	return relay.New(chat, tools, &relay.Config{
		Model:         cfg.GigachatModel,
		Temperature:   cfg.GigachatTemperature,
		MaxTokens:     cfg.GigachatMaxTokens,
		HistoryTokens: cfg.HistoryTokens,
	}), nil
}

// newSearcher returns nil when the selected provider has no credentials.
func newSearcher(cfg *Config) (tool.Searcher, error) {
	switch cfg.SearchProvider {
	case "", "perplexity":
		if cfg.PerplexityKey == "" {
			return nil, nil
		}
		return perplexity.New(&perplexity.Config{
			Key:         cfg.PerplexityKey,
			BaseURL:     cfg.PerplexityURL,
			Model:       cfg.PerplexityModel,
			Temperature: float32(cfg.PerplexityTemperature),
			Timeout:     cfg.SearchTimeout,
		}), nil
	case "google":
		if cfg.GoogleKey == "" || cfg.GoogleCX == "" {
			return nil, nil
		}
		return google.New(cfg.GoogleKey, cfg.GoogleCX, "", cfg.SearchTimeout), nil
	default:
		return nil, fmt.Errorf("igochat: invalid search provider: %s", cfg.SearchProvider)
	}
}

func newWeb(cfg *Config) (*web.Client, error) {
	var getter web.Getter
	switch cfg.WebBackend {
	case "", "http":
		getter = web.NewHTTPGetter(cfg.WebTimeout, cfg.WebInsecure)
	case "browser":
		getter = web.NewBrowserGetter(cfg.BrowserURL, cfg.Proxy, cfg.WebTimeout)
	default:
		return nil, fmt.Errorf("igochat: invalid web backend: %s", cfg.WebBackend)
	}
	return web.New(getter, cfg.WebMaxLength, cfg.WebMarkdown), nil
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
