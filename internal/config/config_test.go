package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENABLE_MOCKS", "true")

	cfg, err := Load("test")
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.ServerAddr)
	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, 10, cfg.PipelineCfg.TopK)
	assert.Equal(t, EmbedBackendHashing, cfg.PipelineCfg.EmbedBackend)
	assert.Equal(t, "gpt-4o-mini", cfg.LLMConnectorCfg.Model)
	assert.Equal(t, 300*time.Millisecond, cfg.LLMConnectorCfg.Delay)
	assert.Equal(t, JobStoreMemory, cfg.JobStoreCfg.Backend)
	assert.Equal(t, uint(3), cfg.LLMConnectorCfg.Retry.Attempts)
	assert.False(t, cfg.TelegramCfg.Enabled())
	assert.Equal(t, 20, cfg.TelegramCfg.RateLimitPerMinute)
	assert.Equal(t, 30*time.Second, cfg.TelegramCfg.ShutdownTimeout)
}

func TestLoad_PrefixedGroups(t *testing.T) {
	t.Setenv("LLM_SERVICE_URL", "https://llm.example")
	t.Setenv("LLM_TIMEOUT", "5s")
	t.Setenv("LLM_RETRY_ATTEMPTS", "5")
	t.Setenv("LLM_HEADERS", "OpenAI-Organization:org-1")
	t.Setenv("EMBED_BACKEND", "openai")
	t.Setenv("EMBEDDING_SERVICE_URL", "https://emb.example")
	t.Setenv("EMBEDDING_BATCH_SIZE", "16")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("EMBEDDING_TOKEN", "emb-token")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_CHAT_ID", "-100")
	t.Setenv("JOB_STORE", "bolt")

	cfg, err := Load("test")
	require.NoError(t, err)

	assert.Equal(t, "https://llm.example", cfg.LLMConnectorCfg.Url)
	assert.Equal(t, 5*time.Second, cfg.LLMConnectorCfg.RequestTimeout)
	assert.Equal(t, uint(5), cfg.LLMConnectorCfg.Retry.Attempts)
	assert.Equal(t, map[string]string{"OpenAI-Organization": "org-1"}, cfg.LLMConnectorCfg.Headers)
	assert.Equal(t, "sk-test", cfg.LLMConnectorCfg.Token)
	assert.Equal(t, "emb-token", cfg.EmbeddingConnectorCfg.Token)
	assert.Equal(t, 16, cfg.EmbeddingConnectorCfg.BatchSize)
	assert.True(t, cfg.TelegramCfg.Enabled())
	assert.Equal(t, JobStoreBolt, cfg.JobStoreCfg.Backend)
}

func TestLoad_ValidationErrors(t *testing.T) {
	t.Setenv("TOPK", "0")
	t.Setenv("JOB_STORE", "postgres")
	t.Setenv("EMBED_BACKEND", "faiss")

	_, err := Load("test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TOPK must be between 1 and 100")
	assert.Contains(t, err.Error(), "DATABASE_URL is required")
	assert.Contains(t, err.Error(), "EMBED_BACKEND must be")
	assert.Contains(t, err.Error(), "LLM_SERVICE_URL is required")
}

func TestGetEnvFile(t *testing.T) {
	assert.Equal(t, ".env.prod", getEnvFile("production"))
	assert.Equal(t, ".env.local", getEnvFile("dev"))
	assert.Equal(t, ".env.staging", getEnvFile("staging"))
}
