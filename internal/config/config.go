package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Agent     AgentConfig     `mapstructure:"agent"`
	Store     StoreConfig     `mapstructure:"store"`
	Seating   SeatingConfig   `mapstructure:"seating"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	MiddlewareTimeout time.Duration `mapstructure:"middleware_timeout"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
	PoolSize  int    `mapstructure:"pool_size"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type LLMConfig struct {
	DefaultProvider string          `mapstructure:"default_provider"`
	Temperature     float64         `mapstructure:"temperature"`
	OpenAI          OpenAIConfig    `mapstructure:"openai"`
	Anthropic       AnthropicConfig `mapstructure:"anthropic"`
	Ollama          OllamaConfig    `mapstructure:"ollama"`
	DeepSeek        DeepSeekConfig  `mapstructure:"deepseek"`
	Gemini          GeminiConfig    `mapstructure:"gemini"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type OllamaConfig struct {
	Host         string `mapstructure:"host"`
	DefaultModel string `mapstructure:"default_model"`
}

type DeepSeekConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// AgentConfig tunes the turn router and memory compaction
type AgentConfig struct {
	ContextMode     string        `mapstructure:"context_mode"`
	ToolSource      string        `mapstructure:"tool_source"`
	Model           string        `mapstructure:"model"`
	LastK           int           `mapstructure:"last_k"`
	SummaryWindow   int           `mapstructure:"summary_window"`
	MaxSummaryChars int           `mapstructure:"max_summary_chars"`
	NameLookback    int           `mapstructure:"name_lookback"`
	OverwriteName   bool          `mapstructure:"overwrite_name"`
	LLMTimeout      time.Duration `mapstructure:"llm_timeout"`
	ToolTimeout     time.Duration `mapstructure:"tool_timeout"`
	MaxToolRounds   int           `mapstructure:"max_tool_rounds"`
}

// StoreConfig selects where session checkpoints live
type StoreConfig struct {
	Backend    string      `mapstructure:"backend"`
	SQLitePath string      `mapstructure:"sqlite_path"`
	Mongo      MongoConfig `mapstructure:"mongo"`
	Cache      CacheConfig `mapstructure:"cache"`
}

type MongoConfig struct {
	URI        string        `mapstructure:"uri"`
	Database   string        `mapstructure:"database"`
	Collection string        `mapstructure:"collection"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// SeatingConfig configures the seat assignment tool
type SeatingConfig struct {
	Backend    string      `mapstructure:"backend"`
	ClaimMode  string      `mapstructure:"claim_mode"`
	RemoteURL  string      `mapstructure:"remote_url"`
	ListenAddr string      `mapstructure:"listen_addr"`
	MySQL      MySQLConfig `mapstructure:"mysql"`
}

type MySQLConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	MaxConns int    `mapstructure:"max_conns"`
}

func (c MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true", c.User, c.Password, c.Host, c.Port, c.Database)
}

type RateLimitConfig struct {
	Enabled           bool `mapstructure:"enabled"`
	RequestsPerMinute int  `mapstructure:"requests_per_minute"`
	Burst             int  `mapstructure:"burst"`
}

type LoggingConfig struct {
	Level        string        `mapstructure:"level"`
	Format       string        `mapstructure:"format"`
	File         string        `mapstructure:"file"`
	MaxAge       time.Duration `mapstructure:"max_age"`
	RotationTime time.Duration `mapstructure:"rotation_time"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set config file path
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	// Override with environment variables
	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects unsupported option values
func (c *Config) Validate() error {
	checks := []struct {
		key     string
		value   string
		allowed []string
	}{
		{"agent.context_mode", c.Agent.ContextMode, []string{"compact", "full"}},
		{"agent.tool_source", c.Agent.ToolSource, []string{"in_process", "remote_service"}},
		{"store.backend", c.Store.Backend, []string{"postgres", "sqlite", "mongo"}},
		{"seating.backend", c.Seating.Backend, []string{"postgres", "mysql"}},
		{"seating.claim_mode", c.Seating.ClaimMode, []string{"atomic", "read_only"}},
	}
	for _, ch := range checks {
		if !slices.Contains(ch.allowed, ch.value) {
			return fmt.Errorf("invalid %s %q: expected one of %v", ch.key, ch.value, ch.allowed)
		}
	}
	if c.Agent.LastK <= 0 {
		return fmt.Errorf("invalid agent.last_k %d: must be positive", c.Agent.LastK)
	}
	if c.Agent.MaxSummaryChars <= 0 {
		return fmt.Errorf("invalid agent.max_summary_chars %d: must be positive", c.Agent.MaxSummaryChars)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "150s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.middleware_timeout", "140s")

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "onboarding")
	v.SetDefault("database.database", "onboarding")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)

	// Redis
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "onboarding:")
	v.SetDefault("redis.pool_size", 10)

	// LLM
	v.SetDefault("llm.default_provider", "openai")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.ollama.host", "http://localhost:11434")
	v.SetDefault("llm.ollama.default_model", "llama3.1")

	// Agent
	v.SetDefault("agent.context_mode", "compact")
	v.SetDefault("agent.tool_source", "in_process")
	v.SetDefault("agent.last_k", 6)
	v.SetDefault("agent.summary_window", 4)
	v.SetDefault("agent.max_summary_chars", 2000)
	v.SetDefault("agent.name_lookback", 3)
	v.SetDefault("agent.overwrite_name", false)
	v.SetDefault("agent.llm_timeout", "60s")
	v.SetDefault("agent.tool_timeout", "10s")
	v.SetDefault("agent.max_tool_rounds", 6)

	// Store
	v.SetDefault("store.backend", "postgres")
	v.SetDefault("store.sqlite_path", "./data/sessions.db")
	v.SetDefault("store.mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("store.mongo.database", "onboarding")
	v.SetDefault("store.mongo.collection", "threads")
	v.SetDefault("store.mongo.timeout", "10s")
	v.SetDefault("store.cache.enabled", false)
	v.SetDefault("store.cache.ttl", "30m")

	// Seating
	v.SetDefault("seating.backend", "postgres")
	v.SetDefault("seating.claim_mode", "atomic")
	v.SetDefault("seating.remote_url", "http://localhost:8090/mcp")
	v.SetDefault("seating.listen_addr", ":8090")
	v.SetDefault("seating.mysql.host", "localhost")
	v.SetDefault("seating.mysql.port", 3306)
	v.SetDefault("seating.mysql.database", "onboarding")
	v.SetDefault("seating.mysql.max_conns", 10)

	// Rate limit
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_minute", 30)
	v.SetDefault("rate_limit.burst", 5)

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.max_age", "168h")
	v.SetDefault("logging.rotation_time", "24h")
}

func bindEnvVars(v *viper.Viper) {
	// Database
	v.BindEnv("database.host", "PGHOST")
	v.BindEnv("database.port", "PGPORT")
	v.BindEnv("database.user", "PGUSER")
	v.BindEnv("database.password", "PGPASSWORD")
	v.BindEnv("database.database", "PGDATABASE")

	// Redis
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// LLM API Keys
	v.BindEnv("llm.openai.api_key", "OPENAI_API_KEY")
	v.BindEnv("llm.openai.base_url", "JETSTREAM_BASE_URL")
	v.BindEnv("llm.anthropic.api_key", "ANTHROPIC_API_KEY")
	v.BindEnv("llm.deepseek.api_key", "DEEPSEEK_API_KEY")
	v.BindEnv("llm.gemini.api_key", "GEMINI_API_KEY")
	v.BindEnv("llm.ollama.host", "OLLAMA_HOST")

	// Stores
	v.BindEnv("store.mongo.uri", "MONGODB_URI")
	v.BindEnv("seating.mysql.password", "MYSQL_PASSWORD")
	v.BindEnv("seating.remote_url", "SEATING_MCP_URL")
}
