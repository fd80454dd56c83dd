package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the document QA service.
type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Retrieve   RetrieveConfig   `yaml:"retrieve"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Server     ServerConfig     `yaml:"server"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// StoreConfig selects where document records live.
type StoreConfig struct {
	Driver         string `yaml:"driver"` // "bolt", "postgres", "memory"
	Path           string `yaml:"path"`   // bolt file, relative to the data dir
	PostgresDSNEnv string `yaml:"postgres_dsn_env"`
}

// ChunkingConfig holds passage windowing configuration, in characters.
type ChunkingConfig struct {
	ChunkSize int `yaml:"chunk_size"`
	Overlap   int `yaml:"overlap"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider    string        `yaml:"provider"` // "openai", "ollama", "deepseek", "jina", "mock"
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	Dimension   int           `yaml:"dimension"` // 0 = the model's native size
	BatchSize   int           `yaml:"batch_size"`
	Concurrency int           `yaml:"concurrency"`
	Timeout     time.Duration `yaml:"timeout"`
	RateLimit   float64       `yaml:"rate_limit"` // requests per second, 0 = unlimited
}

// GenerationConfig holds answer generation configuration.
type GenerationConfig struct {
	Provider    string        `yaml:"provider"` // "openai", "ollama", "groq", "deepseek", "mock"
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	APIKeyEnv   string        `yaml:"api_key_env"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	TokenBudget int           `yaml:"token_budget"` // prompt budget for passages, 0 = unlimited
	Tokenizer   string        `yaml:"tokenizer"`    // "tiktoken" or "heuristic"
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK      int           `yaml:"top_k"`
	MinScore  float64       `yaml:"min_score"`  // drop passages scoring below this, 0 = keep all
	CacheSize int           `yaml:"cache_size"` // 0 disables the query cache
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

// IngestConfig holds background ingestion configuration.
type IngestConfig struct {
	Workers   int      `yaml:"workers"`
	QueueSize int      `yaml:"queue_size"`
	Includes  []string `yaml:"includes"`
	Excludes  []string `yaml:"excludes"`
}

// ServerConfig holds HTTP configuration.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Driver:         "bolt",
			Path:           "documents.db",
			PostgresDSNEnv: "EDURAG_POSTGRES_DSN",
		},
		Chunking: ChunkingConfig{
			ChunkSize: 800,
			Overlap:   100,
		},
		Embedding: EmbeddingConfig{
			Provider:    "mock",
			Model:       "text-embedding-3-small",
			APIKeyEnv:   "OPENAI_API_KEY",
			BatchSize:   64,
			Concurrency: 4,
			Timeout:     30 * time.Second,
		},
		Generation: GenerationConfig{
			Provider:    "mock",
			Model:       "llama-3.1-8b-instant",
			APIKeyEnv:   "GROQ_API_KEY",
			Temperature: 0.3,
			Timeout:     60 * time.Second,
			Tokenizer:   "heuristic",
		},
		Retrieve: RetrieveConfig{
			TopK:      4,
			CacheSize: 256,
			CacheTTL:  5 * time.Minute,
		},
		Ingest: IngestConfig{
			Workers:   2,
			QueueSize: 64,
			Includes:  []string{"**/*.txt", "**/*.md"},
			Excludes:  []string{"**/.git/**", "**/.edurag/**", "**/node_modules/**"},
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate rejects settings the core cannot run with.
func (c *Config) Validate() error {
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("chunking.chunk_size must be positive, got %d", c.Chunking.ChunkSize)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("chunking.overlap must be in [0, chunk_size), got %d", c.Chunking.Overlap)
	}
	if c.Retrieve.TopK <= 0 {
		return fmt.Errorf("retrieve.top_k must be positive, got %d", c.Retrieve.TopK)
	}
	switch c.Store.Driver {
	case "bolt", "postgres", "memory":
	default:
		return fmt.Errorf("unsupported store driver: %s", c.Store.Driver)
	}
	if c.Ingest.Workers <= 0 {
		return fmt.Errorf("ingest.workers must be positive, got %d", c.Ingest.Workers)
	}
	return nil
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for edurag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "edurag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".edurag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// DataDir returns the directory holding local state.
func DataDir(dir string) string {
	return filepath.Join(dir, ".edurag")
}

// StorePath returns the path to the bolt document database.
func (c *Config) StorePath(dir string) string {
	if filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(DataDir(dir), c.Store.Path)
}

// EnsureDataDir ensures the .edurag directory exists.
func EnsureDataDir(dir string) error {
	return os.MkdirAll(DataDir(dir), 0755)
}
