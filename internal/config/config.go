// Package config loads application configuration from config.yaml and
// ANNOBENCH_* environment variables, and installs the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. It is built once at
// startup and passed explicitly into component constructors.
type Config struct {
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Wikipedia  WikipediaConfig  `yaml:"wikipedia" mapstructure:"wikipedia"`
	Engines    EnginesConfig    `yaml:"engines" mapstructure:"engines"`
	Agent      AgentConfig      `yaml:"agent" mapstructure:"agent"`
	Consensus  ConsensusConfig  `yaml:"consensus" mapstructure:"consensus"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Report     ReportConfig     `yaml:"report" mapstructure:"report"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// WikipediaConfig holds MediaWiki API settings.
type WikipediaConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit   float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// EnginesConfig selects the reasoning engines used across the system.
type EnginesConfig struct {
	// Catalog is an optional path to an engines.yaml file; empty means the
	// built-in catalog.
	Catalog string `yaml:"catalog" mapstructure:"catalog"`
	// Default is the engine used in single-model mode.
	Default string `yaml:"default" mapstructure:"default"`
	// Committee is the ordered list of engine IDs for consensus scoring.
	Committee []string `yaml:"committee" mapstructure:"committee"`
	// Judge is the engine used by the grader and the LLM clarifier.
	Judge string `yaml:"judge" mapstructure:"judge"`
}

// AgentConfig configures the agent decision loop.
type AgentConfig struct {
	MaxTurns int `yaml:"max_turns" mapstructure:"max_turns"`
	// CommitteeMaxTurns bounds each committee member's run; committee runs
	// use a smaller budget than single-model baselines.
	CommitteeMaxTurns int    `yaml:"committee_max_turns" mapstructure:"committee_max_turns"`
	SearchEngine      string `yaml:"search_engine" mapstructure:"search_engine"` // knowledge|wikipedia|perplexity
	ClarifierMode     string `yaml:"clarifier_mode" mapstructure:"clarifier_mode"` // hard|easy
	RetryDelaySecs    int    `yaml:"retry_delay_secs" mapstructure:"retry_delay_secs"`
}

// ConsensusConfig configures committee aggregation.
type ConsensusConfig struct {
	// Threshold is the minimum number of correct members for quality_failed.
	Threshold int `yaml:"threshold" mapstructure:"threshold"`
}

// BatchConfig configures batch evaluation.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// StoreConfig configures evaluation-task persistence.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite|postgres
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// NotionConfig holds the optional review-queue sink settings.
type NotionConfig struct {
	Token    string `yaml:"token" mapstructure:"token"`
	ReviewDB string `yaml:"review_db" mapstructure:"review_db"`
}

// ReportConfig configures report output.
type ReportConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// ServerConfig configures the HTTP task server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ANNOBENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "annobench.db")
	v.SetDefault("report.dir", "reports")
	v.SetDefault("batch.concurrency", 5)
	v.SetDefault("consensus.threshold", 2)
	v.SetDefault("agent.max_turns", 5)
	v.SetDefault("agent.committee_max_turns", 3)
	v.SetDefault("agent.search_engine", "knowledge")
	v.SetDefault("agent.clarifier_mode", "hard")
	v.SetDefault("agent.retry_delay_secs", 1)
	v.SetDefault("engines.default", "claude-sonnet")
	v.SetDefault("engines.judge", "claude-sonnet")
	v.SetDefault("engines.committee", []string{"claude-sonnet", "claude-haiku", "sonar-pro"})
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("wikipedia.base_url", "https://en.wikipedia.org/w/api.php")
	v.SetDefault("wikipedia.rate_limit", 5.0)
	v.SetDefault("wikipedia.timeout_secs", 10)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
