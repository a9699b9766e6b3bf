package perplexity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PullRequestInc/go-gpt3"
)

const (
	DefaultBaseURL = "https://api.perplexity.ai"
	DefaultModel   = "sonar"

	DefaultTemperature = 0.2
)

var (
	ErrUnauthorized = errors.New("perplexity: unauthorized")
	ErrRateLimited  = errors.New("perplexity: rate limited")
	ErrNoResults    = errors.New("perplexity: no results")
)

const systemPrompt = "Ты помощник для поиска актуальной информации в интернете. Отвечай кратко и информативно, включая источники и ссылки когда это возможно."

const userPrompt = "Найди актуальную информацию по запросу: \"%s\". Если это поиск о человеке, включи информацию о его профессии, достижениях, текущей деятельности. Если это новости, дай последние события. Ответь на русском языке."

type Config struct {
	Key         string
	BaseURL     string
	Model       string
	MaxTokens   int
	// Temperature defaults to DefaultTemperature when zero.
	Temperature float32
	Timeout     time.Duration
}

type Client struct {
	client      gpt3.Client
	model       string
	maxTokens   int
	temperature float32
}

// New returns a new Client.
func New(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1000
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = DefaultTemperature
	}
	client := gpt3.NewClient(cfg.Key,
		gpt3.WithBaseURL(strings.TrimRight(baseURL, "/")),
		gpt3.WithHTTPClient(&http.Client{Timeout: timeout}),
	)
	return &Client{
		client:      client,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// Search asks the search model about the query and returns its answer
// prefixed with a results header.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	log.Printf("perplexity: searching %q", query)
	temperature := c.temperature
	completion, err := c.client.ChatCompletion(ctx, gpt3.ChatCompletionRequest{
		Model: c.model,
		Messages: []gpt3.ChatCompletionRequestMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf(userPrompt, query)},
		},
		MaxTokens:   c.maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		var apiErr gpt3.APIError
		if !errors.As(err, &apiErr) {
			return "", fmt.Errorf("perplexity: couldn't generate completion: %w", err)
		}
		switch apiErr.StatusCode {
		case http.StatusUnauthorized:
			return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
		case http.StatusTooManyRequests:
			return "", fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return "", fmt.Errorf("perplexity: couldn't generate completion: %w", err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", ErrNoResults
	}
	result := completion.Choices[0].Message.Content
	log.Printf("perplexity: response received (%d chars)", len(result))
	return fmt.Sprintf("🔍 Результаты поиска по запросу \"%s\":\n\n%s", query, result), nil
}
