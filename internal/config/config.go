package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the full codescope configuration.
type Config struct {
	DataDir   string          `yaml:"data_dir"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// IndexConfig holds file discovery and indexing settings.
type IndexConfig struct {
	Extensions  []string `yaml:"extensions"`
	ExcludeDirs []string `yaml:"exclude_dirs"`
	BatchSize   int      `yaml:"batch_size"`
	// SkipIndexed skips files whose path is already in the metadata
	// store instead of re-indexing them.
	SkipIndexed bool `yaml:"skip_indexed"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"` // hash, openai (default: hash)
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	CacheSize int    `yaml:"cache_size"`
}

// SearchConfig holds query-time settings.
type SearchConfig struct {
	DefaultLimit   int     `yaml:"default_limit"`
	CandidateLimit int     `yaml:"candidate_limit"`
	MinSimilarity  float64 `yaml:"min_similarity"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: info)
}

// DefaultExtensions are the source extensions indexed when none are
// configured.
var DefaultExtensions = []string{".py", ".js", ".jsx", ".ts", ".tsx"}

// DefaultExcludeDirs are directory names skipped during the file walk.
var DefaultExcludeDirs = []string{
	"node_modules", "__pycache__", "dist", "build", ".git", "venv", "env", ".venv",
}

// Load reads configuration from a YAML file. A missing path (or a path
// that doesn't exist) yields the defaults.
func Load(path string) (Config, error) {
	if path == "" || !fileExists(path) {
		cfg := Config{}
		cfg.ApplyDefaults()
		return cfg, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	// Substitute env variables of the form ${VAR} or ${VAR:-default}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.DataDir == "" {
		c.DataDir = ".codescope"
	}
	if len(c.Index.Extensions) == 0 {
		c.Index.Extensions = append([]string(nil), DefaultExtensions...)
	}
	if len(c.Index.ExcludeDirs) == 0 {
		c.Index.ExcludeDirs = append([]string(nil), DefaultExcludeDirs...)
	}
	if c.Index.BatchSize <= 0 {
		c.Index.BatchSize = 8
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "hash"
	}
	if c.Embedding.Dimension <= 0 {
		c.Embedding.Dimension = 384
	}
	if c.Embedding.CacheSize <= 0 {
		c.Embedding.CacheSize = 10000
	}
	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = 10
	}
	if c.Search.CandidateLimit <= 0 {
		c.Search.CandidateLimit = 100
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case "hash", "openai":
	default:
		return fmt.Errorf("embedding.provider must be \"hash\" or \"openai\", got %q",
			c.Embedding.Provider)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q",
			c.Logging.Level)
	}

	if c.Search.MinSimilarity < 0 || c.Search.MinSimilarity > 1 {
		return fmt.Errorf("search.min_similarity must be in [0, 1], got %g",
			c.Search.MinSimilarity)
	}

	for _, ext := range c.Index.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("index.extensions entries must start with a dot, got %q", ext)
		}
	}

	return nil
}

// MetadataPath is the SQLite database location under the data dir.
func (c *Config) MetadataPath() string {
	return filepath.Join(c.DataDir, "metadata.db")
}

// VectorsPath is the vector snapshot location under the data dir.
func (c *Config) VectorsPath() string {
	return filepath.Join(c.DataDir, "vectors.db")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment
// variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
