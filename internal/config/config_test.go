package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PDF_DIR", "DATA_DIR", "INDEX_DIR", "PDF_SOURCE",
	"AWS_REGION", "AWS_ENDPOINT", "AWS_ACCESS_KEY", "AWS_SECRET_KEY", "AWS_BUCKET", "AWS_PREFIX",
	"INDEX_BACKEND", "DATABASE_URL", "INDEX_TABLE",
	"AI_ADAPTER", "AI_EMBED_ADAPTER", "AI_EMBED_MODEL", "AI_EMBED_URL", "AI_EMBED_KEY", "AI_EMBED_DIM",
	"AI_CHAT_MODEL", "AI_CHAT_URL", "AI_CHAT_KEY", "AI_CHAT_TEMPERATURE", "AI_CHAT_THINKING", "AI_PARALLEL_REQ", "AI_MAX_RETRIES",
	"QUERY_TIMEOUT", "PARALLEL_FILES", "MAX_TOKENS", "MIN_PARAGRAPH", "DEBUG", "LOG_FORMAT", "PORT",
}

// isolate runs the test in an empty directory with every config variable
// blanked, which the getters treat as unset.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "docgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pdf_dir: bids
index:
  backend: memory
ai:
  adapter: ollama
  chat_model: llama3
query_timeout: 30s
`), 0o644))

	t.Setenv("AI_CHAT_MODEL", "qwen3")
	t.Setenv("PARALLEL_FILES", "8")
	t.Setenv("AI_CHAT_TEMPERATURE", "0")
	t.Setenv("AI_CHAT_THINKING", "low")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "bids", cfg.PDFDir)
	assert.Equal(t, "memory", cfg.Index.Backend)
	assert.Equal(t, AdapterOllama, cfg.AI.Adapter)
	assert.Equal(t, "qwen3", cfg.AI.ChatModel)
	assert.Equal(t, 30*time.Second, cfg.QueryTimeout)
	assert.Equal(t, 8, cfg.ParallelFiles)
	assert.Equal(t, 0.0, cfg.AI.ChatTemperature)
	assert.Equal(t, "low", cfg.AI.ChatThinking)
	assert.Equal(t, "index", cfg.IndexDir)
}

func TestLoad_MissingFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		unknown bool
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.Index.Backend = "faiss" }, unknown: true, wantErr: true},
		{name: "unknown adapter", mutate: func(c *Config) { c.AI.Adapter = "gemini" }, unknown: true, wantErr: true},
		{name: "unknown embed adapter", mutate: func(c *Config) { c.AI.EmbedAdapter = "" }, unknown: true, wantErr: true},
		{name: "unknown source", mutate: func(c *Config) { c.PDFSource = "ftp" }, unknown: true, wantErr: true},
		{name: "unknown log format", mutate: func(c *Config) { c.LogFormat = "xml" }, unknown: true, wantErr: true},
		{name: "unknown thinking", mutate: func(c *Config) { c.AI.ChatThinking = "max" }, unknown: true, wantErr: true},
		{name: "temperature out of range", mutate: func(c *Config) { c.AI.ChatTemperature = 2.5 }, wantErr: true},
		{name: "s3 without bucket", mutate: func(c *Config) { c.PDFSource = SourceS3 }, wantErr: true},
		{name: "s3 with bucket", mutate: func(c *Config) { c.PDFSource = SourceS3; c.S3.Bucket = "bids" }},
		{name: "pgvector without url", mutate: func(c *Config) { c.Index.Backend = "pgvector" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			if tt.unknown {
				assert.ErrorIs(t, err, ErrUnknownValue)
			} else {
				assert.NotErrorIs(t, err, ErrUnknownValue)
			}
		})
	}
}

func TestLoad_RejectsUnknownEnvValue(t *testing.T) {
	isolate(t)
	t.Setenv("INDEX_BACKEND", "sqlite-faiss")

	_, err := Load("")
	assert.ErrorIs(t, err, ErrUnknownValue)
}
