package gigachat

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/igolaizola/igochat/internal/backoff"
)

const (
	DefaultAuthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
	DefaultAPIURL  = "https://gigachat.devices.sberbank.ru/api/v1"
	DefaultScope   = "GIGACHAT_API_PERS"
	DefaultModel   = "GigaChat-Max"
)

const maxResponseSize = 4 * 1024 * 1024

type Config struct {
	// Credentials is the base64 authorization key sent as Basic auth.
	Credentials string
	AuthURL     string
	APIURL      string
	Scope       string
	Timeout     time.Duration
	// Retries is the number of extra attempts on 429 and 5xx responses.
	Retries   int
	RetryWait time.Duration
	// CAFile is an optional PEM bundle added to the system pool.
	CAFile   string
	Insecure bool
}

type Client struct {
	client      *http.Client
	credentials string
	authURL     string
	apiURL      string
	scope       string
	retries     int
	retryWait   time.Duration
}

// New returns a new Client.
func New(cfg *Config) (*Client, error) {
	if cfg.Credentials == "" {
		return nil, errors.New("gigachat: credentials are required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	retryWait := cfg.RetryWait
	if retryWait == 0 {
		retryWait = time.Second
	}
	tlsConfig, err := newTLSConfig(cfg.CAFile, cfg.Insecure)
	if err != nil {
		return nil, err
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig
	return &Client{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		credentials: cfg.Credentials,
		authURL:     orDefault(cfg.AuthURL, DefaultAuthURL),
		apiURL:      strings.TrimRight(orDefault(cfg.APIURL, DefaultAPIURL), "/"),
		scope:       orDefault(cfg.Scope, DefaultScope),
		retries:     cfg.Retries,
		retryWait:   retryWait,
	}, nil
}

func newTLSConfig(caFile string, insecure bool) (*tls.Config, error) {
	if insecure {
		log.Println("gigachat: tls verification disabled")
		return &tls.Config{InsecureSkipVerify: true}, nil
	}
	if caFile == "" {
		return nil, nil
	}
	pem, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("gigachat: couldn't read ca file: %w", err)
	}
	pool, err := x509.SystemCertPool()
	if err != nil || pool == nil {
		pool = x509.NewCertPool()
	}
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("gigachat: no certificates found in %s", caFile)
	}
	return &tls.Config{RootCAs: pool}, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// APIError is returned when the API answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gigachat: invalid status code %d: %s", e.StatusCode, e.Body)
}

func retryable(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

// Token obtains a new access token.
func (c *Client) Token(ctx context.Context) (string, error) {
	var token string
	err := backoff.Retry(ctx, c.retries, c.retryWait, retryable, func() error {
		form := url.Values{"scope": {c.scope}}.Encode()
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form))
		if err != nil {
			return fmt.Errorf("gigachat: couldn't create token request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Basic "+c.credentials)
		req.Header.Set("RqUID", uuid.NewString())

		var resp tokenResponse
		if err := c.do(req, &resp); err != nil {
			return err
		}
		if resp.AccessToken == "" {
			return errors.New("gigachat: empty access token")
		}
		token = resp.AccessToken
		return nil
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// Complete sends a chat completion request and returns the first choice.
func (c *Client) Complete(ctx context.Context, token string, r *Request) (*Message, error) {
	body, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("gigachat: couldn't marshal request: %w", err)
	}
	var resp Response
	err = backoff.Retry(ctx, c.retries, c.retryWait, retryable, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("gigachat: couldn't create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		return c.do(req, &resp)
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("gigachat: no choices")
	}
	if resp.Usage != nil {
		log.Printf("gigachat: request tokens %d", resp.Usage.TotalTokens)
	}
	msg := resp.Choices[0].Message
	return &msg, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("gigachat: couldn't do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("gigachat: couldn't read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("gigachat: couldn't unmarshal response (%s): %w", string(data), err)
	}
	return nil
}
