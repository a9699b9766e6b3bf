package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const apiURL = "https://www.googleapis.com/customsearch/v1"

type SearchResponse struct {
	Items []SearchResult `json:"items"`
}

type SearchResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// Client searches using the Google Custom Search JSON API.
type Client struct {
	client  *http.Client
	baseURL string
	key     string
	cx      string
}

// New returns a new Client. An empty baseURL uses the public endpoint.
func New(key, cx, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = apiURL
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
		key:     key,
		cx:      cx,
	}
}

// Results returns the raw search results.
func (c *Client) Results(ctx context.Context, query string) ([]SearchResult, error) {
	if c.key == "" || c.cx == "" {
		return nil, errors.New("google: key and cx are required")
	}
	params := url.Values{
		"key": {c.key},
		"cx":  {c.cx},
		"q":   {query},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("google: couldn't create request: %w", err)
	}
	response, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google: error making HTTP request: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("google: error reading response body: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google: invalid status code %d: %s", response.StatusCode, string(body))
	}

	var searchResponse SearchResponse
	if err := json.Unmarshal(body, &searchResponse); err != nil {
		return nil, fmt.Errorf("google: error unmarshaling JSON response: %w", err)
	}
	return searchResponse.Items, nil
}

// Search returns the results formatted as a numbered list.
func (c *Client) Search(ctx context.Context, query string) (string, error) {
	log.Printf("google: searching %q", query)
	results, err := c.Results(ctx, query)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return fmt.Sprintf("По запросу \"%s\" ничего не найдено.", query), nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🔍 Результаты поиска по запросу \"%s\":\n", query)
	for i, r := range results {
		fmt.Fprintf(&sb, "\n%d. %s\n%s\n", i+1, r.Title, r.Link)
		if s := strings.TrimSpace(r.Snippet); s != "" {
			fmt.Fprintf(&sb, "%s\n", s)
		}
	}
	return sb.String(), nil
}
