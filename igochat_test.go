package igochat

import (
	"context"
	"testing"

	"github.com/igolaizola/igochat/internal/google"
	"github.com/igolaizola/igochat/internal/web"
	"github.com/igolaizola/igochat/pkg/perplexity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSearcher(t *testing.T) {
	s, err := newSearcher(&Config{})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = newSearcher(&Config{PerplexityKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &perplexity.Client{}, s)

	s, err = newSearcher(&Config{SearchProvider: "google", GoogleKey: "k"})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = newSearcher(&Config{SearchProvider: "google", GoogleKey: "k", GoogleCX: "cx"})
	require.NoError(t, err)
	assert.IsType(t, &google.Client{}, s)

	_, err = newSearcher(&Config{SearchProvider: "bing"})
	assert.Error(t, err)
}

func TestNewWeb(t *testing.T) {
	w, err := newWeb(&Config{})
	require.NoError(t, err)
	assert.IsType(t, &web.Client{}, w)

	_, err = newWeb(&Config{WebBackend: "browser"})
	assert.NoError(t, err)

	_, err = newWeb(&Config{WebBackend: "curl"})
	assert.Error(t, err)
}

func TestNewRelayRequiresCredentials(t *testing.T) {
	_, err := newRelay(&Config{})
	assert.ErrorContains(t, err, "credentials")

	r, err := newRelay(&Config{GigachatCredentials: "key"})
	require.NoError(t, err)
	assert.NotNil(t, r)
}

func TestAskRequiresMessage(t *testing.T) {
	err := Ask(context.Background(), &Config{GigachatCredentials: "key"}, "")
	assert.Error(t, err)
}

func TestSearchNotConfigured(t *testing.T) {
	err := Search(context.Background(), &Config{}, "go")
	assert.ErrorContains(t, err, "not configured")
}

func TestPrefix(t *testing.T) {
	assert.Equal(t, "abc", prefix("abc", 10))
	assert.Equal(t, "0123456789", prefix("0123456789abc", 10))
}
