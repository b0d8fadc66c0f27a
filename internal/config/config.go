// Package config loads application configuration from an optional TOML
// file with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Gemini   GeminiConfig   `toml:"gemini"`
	Embed    EmbedConfig    `toml:"embedding"`
	Pipeline PipelineConfig `toml:"pipeline"`
	Storage  StorageConfig  `toml:"storage"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           string `toml:"port"`
	APIKey         string `toml:"api_key"`
	MaxUploadBytes int64  `toml:"max_upload_bytes"`
}

// GeminiConfig holds settings for the generative Gemini client. An empty
// API key disables generative analysis; the heuristic pipeline still runs.
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// EmbedConfig selects and configures the embedding provider.
type EmbedConfig struct {
	Provider  string `toml:"provider"`
	APIKey    string `toml:"api_key"`
	BaseURL   string `toml:"base_url"`
	Model     string `toml:"model"`
	BatchSize int    `toml:"batch_size"`
}

// PipelineConfig holds analysis pipeline settings.
type PipelineConfig struct {
	WorkerCount        int      `toml:"worker_count"`
	MaxQueueSize       int      `toml:"max_queue_size"`
	MaxConcurrentEmbed int      `toml:"max_concurrent_embed"`
	WindowLines        int      `toml:"window_lines"`
	OverlapLines       int      `toml:"overlap_lines"`
	NumClusters        int      `toml:"num_clusters"`
	NumTopics          int      `toml:"num_topics"`
	JobTTL             duration `toml:"job_ttl"`
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// duration lets TOML carry values like "1h30m".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// DefaultConfig returns a Config populated with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8090",
			MaxUploadBytes: 52428800, // 50MB
		},
		Gemini: GeminiConfig{
			Model: "gemini-1.5-flash",
		},
		Embed: EmbedConfig{
			Provider:  "gemini",
			Model:     "text-embedding-004",
			BatchSize: 64,
		},
		Pipeline: PipelineConfig{
			WorkerCount:        4,
			MaxQueueSize:       100,
			MaxConcurrentEmbed: 5,
			WindowLines:        3,
			OverlapLines:       0,
			NumClusters:        5,
			NumTopics:          5,
			JobTTL:             duration{time.Hour},
		},
		Storage: StorageConfig{
			DBPath: "depoindex.db",
		},
	}
}

// Load reads configuration from path (skipped when empty or missing),
// applies environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("decode config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	cfg.clamp()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = envOr("DEPOINDEX_PORT", c.Server.Port)
	if v := os.Getenv("DEPOINDEX_API_KEY"); v != "" {
		c.Server.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
		if c.Embed.Provider == "gemini" && c.Embed.APIKey == "" {
			c.Embed.APIKey = v
		}
	}
	c.Gemini.Model = envOr("DEPOINDEX_GEMINI_MODEL", c.Gemini.Model)
	c.Embed.Provider = envOr("DEPOINDEX_EMBED_PROVIDER", c.Embed.Provider)
	c.Embed.BaseURL = envOr("DEPOINDEX_EMBED_BASE_URL", c.Embed.BaseURL)
	c.Embed.Model = envOr("DEPOINDEX_EMBED_MODEL", c.Embed.Model)
	c.Storage.DBPath = envOr("DEPOINDEX_DB_PATH", c.Storage.DBPath)

	c.Pipeline.WorkerCount = envInt("DEPOINDEX_WORKER_COUNT", c.Pipeline.WorkerCount)
	c.Pipeline.MaxQueueSize = envInt("DEPOINDEX_MAX_QUEUE_SIZE", c.Pipeline.MaxQueueSize)
	c.Pipeline.MaxConcurrentEmbed = envInt("DEPOINDEX_MAX_CONCURRENT_EMBED", c.Pipeline.MaxConcurrentEmbed)
	c.Server.MaxUploadBytes = envInt64("DEPOINDEX_MAX_UPLOAD_BYTES", c.Server.MaxUploadBytes)
	if v := os.Getenv("DEPOINDEX_JOB_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Pipeline.JobTTL = duration{d}
		}
	}
}

func (c *Config) clamp() {
	if c.Pipeline.WorkerCount <= 0 {
		c.Pipeline.WorkerCount = 4
	}
	if c.Pipeline.MaxQueueSize <= 0 {
		c.Pipeline.MaxQueueSize = 100
	}
	if c.Pipeline.MaxConcurrentEmbed <= 0 {
		c.Pipeline.MaxConcurrentEmbed = 5
	}
	if c.Pipeline.WindowLines <= 0 {
		c.Pipeline.WindowLines = 3
	}
	if c.Pipeline.OverlapLines < 0 || c.Pipeline.OverlapLines >= c.Pipeline.WindowLines {
		c.Pipeline.OverlapLines = 0
	}
	if c.Pipeline.NumClusters <= 0 {
		c.Pipeline.NumClusters = 5
	}
	if c.Pipeline.NumTopics <= 0 {
		c.Pipeline.NumTopics = 5
	}
	if c.Pipeline.JobTTL.Duration <= 0 {
		c.Pipeline.JobTTL = duration{time.Hour}
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = 52428800
	}
	if c.Embed.BatchSize <= 0 {
		c.Embed.BatchSize = 64
	}
}

// Validate checks for required settings.
func (c *Config) Validate() error {
	if c.Embed.Provider == "gemini" && c.Embed.APIKey == "" {
		return fmt.Errorf("gemini embedding provider requires an API key (set GEMINI_API_KEY or [embedding].api_key, or switch to the ollama provider)")
	}
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage db_path is required")
	}
	return nil
}

// JobTTL returns the job TTL as a time.Duration.
func (c *Config) JobTTL() time.Duration {
	return c.Pipeline.JobTTL.Duration
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}
