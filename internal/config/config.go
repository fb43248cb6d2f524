package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the complete service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Research ResearchConfig `mapstructure:"research"`
	Reflect  ReflectConfig  `mapstructure:"reflect"`
	Model    ModelConfig    `mapstructure:"model"`
	Tools    ToolsConfig    `mapstructure:"tools"`
	Guard    GuardConfig    `mapstructure:"guard"`
	Clients  ClientsConfig  `mapstructure:"clients"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port int `mapstructure:"port"`
	// ShutdownTimeoutSeconds bounds graceful shutdown
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds"`
}

type LoggingConfig struct {
	// Level is a zerolog level name: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Pretty switches from JSON to console output
	Pretty bool `mapstructure:"pretty"`
}

// WorkflowConfig bounds a whole run.
type WorkflowConfig struct {
	// MaxIterations caps total graph steps per run
	MaxIterations int `mapstructure:"max_iterations"`
}

// ResearchConfig bounds the research cycle.
type ResearchConfig struct {
	// MaxIterations caps research passes per run
	MaxIterations int `mapstructure:"max_iterations"`
}

// ReflectConfig bounds the drafting loops.
type ReflectConfig struct {
	// MaxRevisions caps critique driven rewrites per draft
	MaxRevisions int `mapstructure:"max_revisions"`
}

// ModelConfig controls the model backends.
type ModelConfig struct {
	// TimeoutSeconds caps a single model call
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	// FallbackBaseURL points at an OpenAI compatible server used when the
	// primary backend fails; empty disables failover
	FallbackBaseURL string `mapstructure:"fallback_base_url"`
}

type ToolsConfig struct {
	// TimeoutSeconds caps a single tool call
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// GuardConfig controls the content filter on queries and reports.
type GuardConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Keywords holds blocked words and phrases
	Keywords []string `mapstructure:"keywords"`
	// Threshold is the blocked-word density that trips the filter
	Threshold float64 `mapstructure:"threshold"`
	// Message replaces the default refusal text when set
	Message string `mapstructure:"message"`
}

// ClientsConfig holds base URLs for the outbound HTTP boundaries. Empty URLs
// disable the corresponding tool or service.
type ClientsConfig struct {
	QuoteBaseURL     string `mapstructure:"quote_base_url"`
	SearchBaseURL    string `mapstructure:"search_base_url"`
	RetrieverBaseURL string `mapstructure:"retriever_base_url"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
}

func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

func (c ModelConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c ToolsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c ClientsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                   8080,
			ShutdownTimeoutSeconds: 15,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: false,
		},
		Workflow: WorkflowConfig{MaxIterations: 25},
		Research: ResearchConfig{MaxIterations: 20},
		Reflect:  ReflectConfig{MaxRevisions: 2},
		Model:    ModelConfig{TimeoutSeconds: 60},
		Tools:    ToolsConfig{TimeoutSeconds: 30},
		Guard: GuardConfig{
			Enabled:   true,
			Threshold: 0.2,
		},
		Clients: ClientsConfig{TimeoutSeconds: 10},
	}
}

// SetDefaults registers the default values with viper.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("server.port", defaults.Server.Port)
	viper.SetDefault("server.shutdown_timeout_seconds", defaults.Server.ShutdownTimeoutSeconds)

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.pretty", defaults.Logging.Pretty)

	viper.SetDefault("workflow.max_iterations", defaults.Workflow.MaxIterations)
	viper.SetDefault("research.max_iterations", defaults.Research.MaxIterations)
	viper.SetDefault("reflect.max_revisions", defaults.Reflect.MaxRevisions)

	viper.SetDefault("model.timeout_seconds", defaults.Model.TimeoutSeconds)
	viper.SetDefault("model.fallback_base_url", defaults.Model.FallbackBaseURL)

	viper.SetDefault("tools.timeout_seconds", defaults.Tools.TimeoutSeconds)

	viper.SetDefault("guard.enabled", defaults.Guard.Enabled)
	viper.SetDefault("guard.keywords", defaults.Guard.Keywords)
	viper.SetDefault("guard.threshold", defaults.Guard.Threshold)
	viper.SetDefault("guard.message", defaults.Guard.Message)

	viper.SetDefault("clients.quote_base_url", defaults.Clients.QuoteBaseURL)
	viper.SetDefault("clients.search_base_url", defaults.Clients.SearchBaseURL)
	viper.SetDefault("clients.retriever_base_url", defaults.Clients.RetrieverBaseURL)
	viper.SetDefault("clients.timeout_seconds", defaults.Clients.TimeoutSeconds)
}

// Load reads configuration from file and environment into a Config and
// validates it. The file is optional; environment variables use the
// DEEPAGENT_ prefix with underscores, e.g. DEEPAGENT_SERVER_PORT.
func Load() (*Config, error) {
	SetDefaults()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/deepagent")

	viper.SetEnvPrefix("deepagent")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
	}
	return &cfg, nil
}

const workflowOverheadSteps = 3

// Validate returns every problem with the configuration, not just the first.
func (c *Config) Validate() []string {
	var errs []string
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Workflow.MaxIterations <= 0 {
		errs = append(errs, "workflow.max_iterations must be positive")
	}
	if c.Research.MaxIterations <= 0 {
		errs = append(errs, "research.max_iterations must be positive")
	}
	// A full run spends one step on planning, up to research.max_iterations
	// on research, and one each on consolidation and reporting. The workflow
	// budget has to cover all of them or a budget-exhausted run could never
	// reach its report.
	if c.Research.MaxIterations+workflowOverheadSteps > c.Workflow.MaxIterations {
		errs = append(errs, fmt.Sprintf(
			"workflow.max_iterations must be at least research.max_iterations plus %d for planning, consolidation and reporting",
			workflowOverheadSteps))
	}
	if c.Reflect.MaxRevisions < 0 {
		errs = append(errs, "reflect.max_revisions must not be negative")
	}
	if c.Model.TimeoutSeconds <= 0 {
		errs = append(errs, "model.timeout_seconds must be positive")
	}
	if c.Tools.TimeoutSeconds <= 0 {
		errs = append(errs, "tools.timeout_seconds must be positive")
	}
	if c.Guard.Threshold < 0 || c.Guard.Threshold > 1 {
		errs = append(errs, "guard.threshold must be within [0, 1]")
	}
	return errs
}
