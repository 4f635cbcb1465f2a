package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/docgraph/docgraph/internal/util"

	"gopkg.in/yaml.v3"
)

// ErrUnknownValue is returned by Validate for an unsupported selection.
var ErrUnknownValue = errors.New("unknown configuration value")

const (
	SourceLocal = "local"
	SourceS3    = "s3"

	AdapterOpenAI = "openai"
	AdapterOllama = "ollama"
	AdapterLocal  = "local"
)

type S3Config struct {
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
}

type IndexConfig struct {
	Backend     string `yaml:"backend"`
	DatabaseURL string `yaml:"database_url"`
	Table       string `yaml:"table"`
}

type AIConfig struct {
	Adapter      string `yaml:"adapter"`
	EmbedAdapter string `yaml:"embed_adapter"`
	EmbedModel   string `yaml:"embed_model"`
	EmbedURL     string `yaml:"embed_url"`
	EmbedKey     string `yaml:"embed_key"`
	EmbedDim     int    `yaml:"embed_dim"`
	ChatModel    string `yaml:"chat_model"`
	ChatURL      string `yaml:"chat_url"`
	ChatKey      string `yaml:"chat_key"`
	// ChatTemperature is the sampling temperature of answer requests.
	ChatTemperature float64 `yaml:"chat_temperature"`
	// ChatThinking is a reasoning effort (low, medium, high). Empty
	// disables reasoning.
	ChatThinking string `yaml:"chat_thinking"`
	ParallelReq  int    `yaml:"parallel_requests"`
	MaxRetries   int    `yaml:"max_retries"`
}

// Config is the settings shared by the indexer, the ask command and the
// query server.
type Config struct {
	PDFDir   string `yaml:"pdf_dir"`
	DataDir  string `yaml:"data_dir"`
	IndexDir string `yaml:"index_dir"`

	PDFSource string   `yaml:"pdf_source"`
	S3        S3Config `yaml:"s3"`

	Index IndexConfig `yaml:"index"`
	AI    AIConfig    `yaml:"ai"`

	QueryTimeout  time.Duration `yaml:"query_timeout"`
	ParallelFiles int           `yaml:"parallel_files"`
	MaxTokens     int           `yaml:"max_tokens"`
	MinParagraph  int           `yaml:"min_paragraph"`

	Debug     bool   `yaml:"debug"`
	LogFormat string `yaml:"log_format"`
	Port      string `yaml:"port"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		PDFDir:    "data/pdfs",
		DataDir:   "data",
		IndexDir:  "index",
		PDFSource: SourceLocal,
		S3: S3Config{
			Region: "us-east-1",
		},
		Index: IndexConfig{
			Backend: "sqlite",
			Table:   "fragment_embeddings",
		},
		AI: AIConfig{
			Adapter:         AdapterOpenAI,
			EmbedAdapter:    AdapterLocal,
			EmbedModel:      "local-subword",
			EmbedDim:        384,
			ChatModel:       "gpt-4o-mini",
			ChatTemperature: 0.1,
			ParallelReq:     4,
			MaxRetries:      1,
		},
		QueryTimeout:  2 * time.Minute,
		ParallelFiles: 4,
		MaxTokens:     0,
		MinParagraph:  80,
		LogFormat:     "text",
		Port:          "8080",
	}
}

// Load builds the configuration from the defaults, an optional YAML file at
// path and the environment, in that order. A .env file in the working
// directory is loaded first.
func Load(path string) (*Config, error) {
	util.LoadEnv()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.PDFDir = util.GetEnvString("PDF_DIR", c.PDFDir)
	c.DataDir = util.GetEnvString("DATA_DIR", c.DataDir)
	c.IndexDir = util.GetEnvString("INDEX_DIR", c.IndexDir)

	c.PDFSource = util.GetEnvString("PDF_SOURCE", c.PDFSource)
	c.S3.Region = util.GetEnvString("AWS_REGION", c.S3.Region)
	c.S3.Endpoint = util.GetEnvString("AWS_ENDPOINT", c.S3.Endpoint)
	c.S3.AccessKey = util.GetEnvString("AWS_ACCESS_KEY", c.S3.AccessKey)
	c.S3.SecretKey = util.GetEnvString("AWS_SECRET_KEY", c.S3.SecretKey)
	c.S3.Bucket = util.GetEnvString("AWS_BUCKET", c.S3.Bucket)
	c.S3.Prefix = util.GetEnvString("AWS_PREFIX", c.S3.Prefix)

	c.Index.Backend = util.GetEnvString("INDEX_BACKEND", c.Index.Backend)
	c.Index.DatabaseURL = util.GetEnvString("DATABASE_URL", c.Index.DatabaseURL)
	c.Index.Table = util.GetEnvString("INDEX_TABLE", c.Index.Table)

	c.AI.Adapter = util.GetEnvString("AI_ADAPTER", c.AI.Adapter)
	c.AI.EmbedAdapter = util.GetEnvString("AI_EMBED_ADAPTER", c.AI.EmbedAdapter)
	c.AI.EmbedModel = util.GetEnvString("AI_EMBED_MODEL", c.AI.EmbedModel)
	c.AI.EmbedURL = util.GetEnvString("AI_EMBED_URL", c.AI.EmbedURL)
	c.AI.EmbedKey = util.GetEnvString("AI_EMBED_KEY", c.AI.EmbedKey)
	c.AI.EmbedDim = util.GetEnvInt("AI_EMBED_DIM", c.AI.EmbedDim)
	c.AI.ChatModel = util.GetEnvString("AI_CHAT_MODEL", c.AI.ChatModel)
	c.AI.ChatURL = util.GetEnvString("AI_CHAT_URL", c.AI.ChatURL)
	c.AI.ChatKey = util.GetEnvString("AI_CHAT_KEY", c.AI.ChatKey)
	c.AI.ChatTemperature = util.GetEnvFloat("AI_CHAT_TEMPERATURE", c.AI.ChatTemperature)
	c.AI.ChatThinking = util.GetEnvString("AI_CHAT_THINKING", c.AI.ChatThinking)
	c.AI.ParallelReq = util.GetEnvInt("AI_PARALLEL_REQ", c.AI.ParallelReq)
	c.AI.MaxRetries = util.GetEnvInt("AI_MAX_RETRIES", c.AI.MaxRetries)

	c.QueryTimeout = util.GetEnvDuration("QUERY_TIMEOUT", c.QueryTimeout)
	c.ParallelFiles = util.GetEnvInt("PARALLEL_FILES", c.ParallelFiles)
	c.MaxTokens = util.GetEnvInt("MAX_TOKENS", c.MaxTokens)
	c.MinParagraph = util.GetEnvInt("MIN_PARAGRAPH", c.MinParagraph)

	c.Debug = util.GetEnvBool("DEBUG", c.Debug)
	c.LogFormat = util.GetEnvString("LOG_FORMAT", c.LogFormat)
	c.Port = util.GetEnvString("PORT", c.Port)
}

// Validate rejects selections no component implements.
func (c *Config) Validate() error {
	if err := oneOf("PDF_SOURCE", c.PDFSource, SourceLocal, SourceS3); err != nil {
		return err
	}
	if err := oneOf("INDEX_BACKEND", c.Index.Backend, "sqlite", "memory", "pgvector"); err != nil {
		return err
	}
	if err := oneOf("AI_ADAPTER", c.AI.Adapter, AdapterOpenAI, AdapterOllama); err != nil {
		return err
	}
	if err := oneOf("AI_EMBED_ADAPTER", c.AI.EmbedAdapter, AdapterOpenAI, AdapterOllama, AdapterLocal); err != nil {
		return err
	}
	if err := oneOf("AI_CHAT_THINKING", c.AI.ChatThinking, "", "low", "medium", "high"); err != nil {
		return err
	}
	if err := oneOf("LOG_FORMAT", c.LogFormat, "text", "json", "logfmt"); err != nil {
		return err
	}

	if c.PDFSource == SourceS3 && c.S3.Bucket == "" {
		return fmt.Errorf("AWS_BUCKET is required when PDF_SOURCE is s3")
	}
	if c.Index.Backend == "pgvector" && c.Index.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when INDEX_BACKEND is pgvector")
	}
	if c.AI.ChatTemperature < 0 || c.AI.ChatTemperature > 2 {
		return fmt.Errorf("AI_CHAT_TEMPERATURE must be between 0 and 2")
	}
	if c.AI.EmbedDim < 0 {
		return fmt.Errorf("AI_EMBED_DIM must not be negative")
	}
	return nil
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%w: %s=%q (want one of %v)", ErrUnknownValue, key, value, allowed)
}
