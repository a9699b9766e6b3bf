package web

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/dsnet/compress/brotli"
	"golang.org/x/net/html/charset"
)

const (
	userAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	maxRedirects    = 5
	maxResponseSize = 5 * 1024 * 1024
)

// HTTPGetter downloads pages with a plain HTTP client.
type HTTPGetter struct {
	client *http.Client
}

// NewHTTPGetter returns a getter with browser-like headers. Insecure disables
// TLS certificate verification.
func NewHTTPGetter(timeout time.Duration, insecure bool) *HTTPGetter {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return &HTTPGetter{
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return errors.New("too many redirects")
				}
				return nil
			},
		},
	}
}

// Get returns the decoded body of the given URL.
func (g *HTTPGetter) Get(ctx context.Context, u string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("web: couldn't create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9,en;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("web: couldn't get response: %w", err)
	}
	defer resp.Body.Close()
	log.Printf("web: response status %d", resp.StatusCode)
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("web: invalid status code %d", resp.StatusCode)
	}

	body, err := decode(resp)
	if err != nil {
		return "", err
	}
	defer body.Close()

	rd, err := charset.NewReader(io.LimitReader(body, maxResponseSize), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("web: couldn't detect charset: %w", err)
	}
	data, err := io.ReadAll(rd)
	if err != nil {
		return "", fmt.Errorf("web: couldn't read response: %w", err)
	}
	return string(data), nil
}

// decode unwraps the body according to its content encoding.
func decode(resp *http.Response) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
		return io.NopCloser(resp.Body), nil
	case "gzip":
		rd, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("web: couldn't create gzip reader: %w", err)
		}
		return rd, nil
	case "deflate":
		// Servers send either zlib-wrapped or raw deflate data
		br := bufio.NewReader(resp.Body)
		if !hasZlibHeader(br) {
			return flate.NewReader(br), nil
		}
		rd, err := zlib.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("web: couldn't create deflate reader: %w", err)
		}
		return rd, nil
	case "br":
		rd, err := brotli.NewReader(resp.Body, nil)
		if err != nil {
			return nil, fmt.Errorf("web: couldn't create brotli reader: %w", err)
		}
		return rd, nil
	default:
		return nil, fmt.Errorf("web: unsupported content encoding %q", resp.Header.Get("Content-Encoding"))
	}
}

func hasZlibHeader(br *bufio.Reader) bool {
	h, err := br.Peek(2)
	if err != nil {
		return false
	}
	return h[0]&0x0f == 8 && (uint16(h[0])<<8|uint16(h[1]))%31 == 0
}
