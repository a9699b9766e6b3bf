package main

import (
	"testing"

	"github.com/igolaizola/igochat"
	"github.com/stretchr/testify/assert"
)

func TestApplyLegacyEnv(t *testing.T) {
	t.Setenv("GIGA_CHAT_TOKEN", "giga")
	t.Setenv("PERPLEXITY_API_KEY", "pplx")
	t.Setenv("PORT", "8080")

	cfg := &igochat.Config{}
	applyLegacyEnv(cfg)
	assert.Equal(t, "giga", cfg.GigachatCredentials)
	assert.Equal(t, "pplx", cfg.PerplexityKey)
	assert.Equal(t, ":8080", cfg.Addr)

	cfg = &igochat.Config{GigachatCredentials: "flag", PerplexityKey: "flag", Addr: "127.0.0.1:9000"}
	applyLegacyEnv(cfg)
	assert.Equal(t, "flag", cfg.GigachatCredentials)
	assert.Equal(t, "flag", cfg.PerplexityKey)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
}

func TestApplyLegacyEnvDefaultPort(t *testing.T) {
	t.Setenv("PORT", "")
	cfg := &igochat.Config{}
	applyLegacyEnv(cfg)
	assert.Equal(t, ":3000", cfg.Addr)
}
