// Package config loads and validates the orchestration core's YAML
// configuration, mirroring the per-subsystem SetDefaults/Validate
// pattern used throughout the teacher's pkg/config.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for one hectorcore process.
type Config struct {
	Memory     MemoryConfig     `yaml:"memory"`
	Safety     SafetyConfig     `yaml:"safety"`
	Router     RouterConfig     `yaml:"router"`
	Supervisor SupervisorConfig `yaml:"supervisor"`
	History    HistoryConfig    `yaml:"history"`
	LLM        LLMConfig        `yaml:"llm"`
	Reasoning  ReasoningConfig  `yaml:"reasoning"`
	LogLevel   string           `yaml:"log_level"`
}

// ProviderConfig configures a single named LLM Provider, mirroring
// pkg/config/llm.go's LLMProviderConfig but generalized across the
// local/remote/cached split §4.4/§4.5 require.
type ProviderConfig struct {
	// Type selects the provider implementation: "local" (Ollama-style
	// HTTP endpoint, no API key) or "remote" (OpenAI-compatible chat
	// completions endpoint, API key required).
	Type           string  `yaml:"type"`
	Model          string  `yaml:"model"`
	BaseURL        string  `yaml:"base_url"`
	APIKey         string  `yaml:"api_key"`
	Temperature    float64 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
	MaxRetries     int     `yaml:"max_retries"`
	// CacheTTLSeconds, if > 0, wraps this provider in a caching decorator
	// that memoizes identical (messages, tools) requests for the given
	// duration (0 disables caching for this provider).
	CacheTTLSeconds int `yaml:"cache_ttl_seconds"`
}

// SetDefaults applies provider-shape defaults. model-specific defaults
// (temperature, max tokens, timeout) mirror pkg/config/llm.go.
func (c *ProviderConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "remote"
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 4096
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = 120
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 5
	}
	if c.Type == "local" && c.BaseURL == "" {
		c.BaseURL = "http://localhost:11434"
	}
}

// Validate checks ProviderConfig invariants.
func (c *ProviderConfig) Validate() error {
	if c.Type != "local" && c.Type != "remote" {
		return fmt.Errorf("llm provider type must be \"local\" or \"remote\", got %q", c.Type)
	}
	if c.Type == "remote" && c.APIKey == "" {
		return fmt.Errorf("llm provider of type \"remote\" requires an api_key")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("llm provider temperature must be in [0,2], got %f", c.Temperature)
	}
	return nil
}

// LLMConfig configures the named LLM Providers the Router's
// ModelsByTier registry resolves against.
type LLMConfig struct {
	Providers map[string]ProviderConfig `yaml:"providers"`
}

// SetDefaults seeds two local default providers (local-logic-small and
// local-tiny, both llama3.2) when none are configured, so the system is
// runnable out of the box against Ollama.
func (c *LLMConfig) SetDefaults() {
	if c.Providers == nil {
		c.Providers = map[string]ProviderConfig{
			"local-logic-small": {Type: "local", Model: "llama3.2"},
			"local-tiny":        {Type: "local", Model: "llama3.2"},
		}
	}
	for name, p := range c.Providers {
		p.SetDefaults()
		c.Providers[name] = p
	}
}

// Validate checks every configured provider.
func (c *LLMConfig) Validate() error {
	for name, p := range c.Providers {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("llm.providers[%s]: %w", name, err)
		}
	}
	return nil
}

// MemoryConfig configures the Memory Store.
type MemoryConfig struct {
	HotCapacity        int     `yaml:"hot_capacity"`
	ColdPath           string  `yaml:"cold_path"`
	ConsolidateMinK1   int     `yaml:"consolidate_access_count_max"`
	ConsolidateMaxImp  float64 `yaml:"consolidate_importance_max"`
	ConsolidateBatch   int     `yaml:"consolidate_batch_min"`
	SnapshotPath       string  `yaml:"snapshot_path"`
	EmbeddingCacheDir  string  `yaml:"embedding_cache_dir"`
	EpisodicMaxTurns   int     `yaml:"episodic_max_turns"`
	EpisodicMaxTokens  int     `yaml:"episodic_max_tokens"`
}

// SetDefaults applies the documented defaults from spec §4.1.
func (c *MemoryConfig) SetDefaults() {
	if c.HotCapacity <= 0 {
		c.HotCapacity = 10000
	}
	if c.ColdPath == "" {
		c.ColdPath = "./data/memory_cold.db"
	}
	if c.ConsolidateMinK1 <= 0 {
		c.ConsolidateMinK1 = 5
	}
	if c.ConsolidateMaxImp <= 0 {
		c.ConsolidateMaxImp = 0.7
	}
	if c.ConsolidateBatch <= 0 {
		c.ConsolidateBatch = 50
	}
	if c.SnapshotPath == "" {
		c.SnapshotPath = "./data/memory_hot.snapshot"
	}
	if c.EpisodicMaxTurns <= 0 {
		c.EpisodicMaxTurns = 200
	}
	if c.EpisodicMaxTokens <= 0 {
		c.EpisodicMaxTokens = 3200
	}
}

// Validate checks MemoryConfig invariants.
func (c *MemoryConfig) Validate() error {
	if c.ConsolidateMaxImp < 0 || c.ConsolidateMaxImp > 1 {
		return fmt.Errorf("memory.consolidate_importance_max must be in [0,1], got %f", c.ConsolidateMaxImp)
	}
	return nil
}

// SafetyConfig configures the Safety Guard.
type SafetyConfig struct {
	AssuranceDenyBelow     float64 `yaml:"assurance_deny_below"`
	AssuranceApproveAbove  float64 `yaml:"assurance_approve_above"`
	ContentFilterBlockAt   int     `yaml:"content_filter_block_severity"`
	RateLimitRefillPerSec  float64 `yaml:"rate_limit_refill_per_sec"`
	RateLimitBurst         int     `yaml:"rate_limit_burst"`
}

// SetDefaults applies spec §4.3 defaults.
func (c *SafetyConfig) SetDefaults() {
	if c.AssuranceDenyBelow <= 0 {
		c.AssuranceDenyBelow = 0.3
	}
	if c.AssuranceApproveAbove <= 0 {
		c.AssuranceApproveAbove = 0.6
	}
	if c.ContentFilterBlockAt <= 0 {
		c.ContentFilterBlockAt = 7
	}
	if c.RateLimitRefillPerSec <= 0 {
		c.RateLimitRefillPerSec = 1.0
	}
	if c.RateLimitBurst <= 0 {
		c.RateLimitBurst = 10
	}
}

// Validate checks SafetyConfig invariants.
func (c *SafetyConfig) Validate() error {
	if c.AssuranceDenyBelow >= c.AssuranceApproveAbove {
		return fmt.Errorf("safety.assurance_deny_below must be < assurance_approve_above")
	}
	return nil
}

// RouterConfig configures the Router's model registry.
type RouterConfig struct {
	ModelsByTier map[string]string `yaml:"models_by_tier"`
}

// SetDefaults applies a static scale-tier-to-model registry.
func (c *RouterConfig) SetDefaults() {
	if c.ModelsByTier == nil {
		c.ModelsByTier = map[string]string{
			"logic":    "local-logic-small",
			"tiny":     "local-tiny",
			"standard": "remote-standard",
			"heavy":    "remote-heavy",
		}
	}
}

// SupervisorConfig configures the Supervisor's escalation and
// concurrency behavior.
type SupervisorConfig struct {
	MaxEscalations        int `yaml:"max_escalations"`
	ConcurrencyCap        int `yaml:"concurrency_cap"`
	CompactionThreshold   int `yaml:"compaction_threshold_tokens"`
}

// SetDefaults applies spec §4.7/§5 defaults.
func (c *SupervisorConfig) SetDefaults() {
	if c.MaxEscalations <= 0 {
		c.MaxEscalations = 3
	}
	if c.ConcurrencyCap <= 0 {
		c.ConcurrencyCap = 4
	}
	if c.CompactionThreshold <= 0 {
		c.CompactionThreshold = 3200
	}
}

// ReasoningConfig configures the Reasoning Loop (spec §4.5).
type ReasoningConfig struct {
	MaxIterations  int `yaml:"max_iterations"`
	SteerQueueSize int `yaml:"steer_queue_size"`
}

// SetDefaults applies spec §4.5 defaults.
func (c *ReasoningConfig) SetDefaults() {
	if c.MaxIterations <= 0 {
		c.MaxIterations = 10
	}
	if c.SteerQueueSize <= 0 {
		c.SteerQueueSize = 8
	}
}

// Validate checks ReasoningConfig invariants.
func (c *ReasoningConfig) Validate() error {
	if c.MaxIterations <= 0 {
		return fmt.Errorf("reasoning.max_iterations must be positive")
	}
	return nil
}

// HistoryConfig configures the append-only history log.
type HistoryConfig struct {
	Path          string `yaml:"path"`
	MaxBytes      int64  `yaml:"max_bytes"`
	TrimToPercent float64 `yaml:"trim_to_percent"`
}

// SetDefaults applies spec §6 defaults.
func (c *HistoryConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "./data/history.jsonl"
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 50 * 1024 * 1024
	}
	if c.TrimToPercent <= 0 {
		c.TrimToPercent = 0.8
	}
}

// SetDefaults applies defaults across every subsystem config.
func (c *Config) SetDefaults() {
	c.Memory.SetDefaults()
	c.Safety.SetDefaults()
	c.Router.SetDefaults()
	c.Supervisor.SetDefaults()
	c.History.SetDefaults()
	c.LLM.SetDefaults()
	c.Reasoning.SetDefaults()
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate checks the whole config tree.
func (c *Config) Validate() error {
	if err := c.Memory.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Safety.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Reasoning.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Load reads YAML configuration from path, applies a .env overlay if
// one exists in the current working directory, fills in defaults, and
// validates the result.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // optional .env overlay; absence is not an error

	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
