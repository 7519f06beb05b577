package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration for greywaterbot.
type Config struct {
	General  GeneralConfig  `yaml:"general"`
	Server   ServerConfig   `yaml:"server"`
	Chatwoot ChatwootConfig `yaml:"chatwoot"`
	LLM      LLMConfig      `yaml:"llm"`
	Handoff  HandoffConfig  `yaml:"handoff"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Site     SiteConfig     `yaml:"site"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type GeneralConfig struct {
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`         // "text" | "json"
	LogFile   string `yaml:"logFile,omitempty"` // optional log file path
}

type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	WebhookPath string `yaml:"webhookPath"`
}

// ChatwootConfig holds the chat platform credentials. An empty URL or
// bot token disables outbound sends without failing the webhook.
type ChatwootConfig struct {
	URL               string `yaml:"url"`
	BotToken          string `yaml:"botToken"`
	WebhookSecret     string `yaml:"webhookSecret,omitempty"`
	CheckRemoteStatus bool   `yaml:"checkRemoteStatus"`
}

type LLMConfig struct {
	APIBase        string  `yaml:"apiBase"`
	APIKey         string  `yaml:"apiKey,omitempty"`
	Model          string  `yaml:"model"`
	MaxTokens      int     `yaml:"maxTokens"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeoutSeconds"`

	// RequestsPerMinute caps LLM calls across all conversations; 0 disables it.
	RequestsPerMinute int `yaml:"requestsPerMinute"`
	Burst             int `yaml:"burst"`
}

// HandoffConfig selects where handed-off conversation ids are kept.
// "memory" loses them on restart.
type HandoffConfig struct {
	Backend string      `yaml:"backend"` // "memory" | "sqlite" | "redis"
	DBPath  string      `yaml:"dbPath,omitempty"`
	Redis   RedisConfig `yaml:"redis,omitempty"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password,omitempty"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"keyPrefix"`
}

// DispatchConfig holds the fixed delays between outbound sends.
type DispatchConfig struct {
	CardDelayMs               int `yaml:"cardDelayMs"`
	FollowupDelayMs           int `yaml:"followupDelayMs"`
	FollowupAfterCardsDelayMs int `yaml:"followupAfterCardsDelayMs"`
}

type SiteConfig struct {
	BaseURL string `yaml:"baseUrl"`
}

type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// DefaultConfigDir returns the default config directory (~/.greywaterbot).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".greywaterbot"
	}
	return filepath.Join(home, ".greywaterbot")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LoadDotEnv loads a .env file from the working directory if one exists.
// Variables already set in the environment win.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func Load(path string) (*Config, error) {
	path = ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}
	return finish(cfg)
}

// LoadOrEnv loads path, or when the file does not exist, builds the config
// from Defaults and the environment alone. found reports which happened.
func LoadOrEnv(path string) (cfg *Config, found bool, err error) {
	cfg, err = Load(path)
	if err == nil {
		return cfg, true, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, err
	}
	cfg, err = finish(Defaults())
	return cfg, false, err
}

func finish(cfg *Config) (*Config, error) {
	ApplyEnv(cfg)

	cfg.Handoff.DBPath = ExpandPath(cfg.Handoff.DBPath)
	cfg.General.LogFile = ExpandPath(cfg.General.LogFile)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// ApplyEnv fills settings left empty by the config file from the
// environment variables the hosted deployment uses.
func ApplyEnv(cfg *Config) {
	setIfEmpty(&cfg.Chatwoot.URL, "CHATWOOT_URL")
	setIfEmpty(&cfg.Chatwoot.BotToken, "CHATWOOT_BOT_TOKEN")
	setIfEmpty(&cfg.Chatwoot.WebhookSecret, "CHATWOOT_WEBHOOK_SECRET")
	setIfEmpty(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	if v := os.Getenv("NEXT_PUBLIC_SITE_URL"); v != "" && cfg.Site.BaseURL == Defaults().Site.BaseURL {
		cfg.Site.BaseURL = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	cfg.Chatwoot.URL = strings.TrimRight(cfg.Chatwoot.URL, "/")
}

func setIfEmpty(dst *string, envVar string) {
	if *dst != "" {
		return
	}
	*dst = os.Getenv(envVar)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset or empty.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultVal := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			if hasDefault {
				return defaultVal
			}
			return match // Keep original if no env var and no default
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	path = ExpandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

// Validate checks that the config has valid values.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.General.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, "general.logLevel must be one of: debug, info, warn, error")
	}
	switch cfg.General.LogFormat {
	case "", "text", "json":
	default:
		errs = append(errs, "general.logFormat must be one of: text, json")
	}

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 0 and 65535")
	}
	if !strings.HasPrefix(cfg.Server.WebhookPath, "/") {
		errs = append(errs, "server.webhookPath must start with /")
	}

	if cfg.Chatwoot.URL != "" && !strings.HasPrefix(cfg.Chatwoot.URL, "http://") && !strings.HasPrefix(cfg.Chatwoot.URL, "https://") {
		errs = append(errs, "chatwoot.url must be an http(s) URL")
	}

	if cfg.LLM.APIBase == "" {
		errs = append(errs, "llm.apiBase is required")
	}
	if cfg.LLM.MaxTokens < 1 {
		errs = append(errs, "llm.maxTokens must be >= 1")
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		errs = append(errs, "llm.temperature must be between 0 and 2")
	}
	if cfg.LLM.RequestsPerMinute < 0 || cfg.LLM.Burst < 0 {
		errs = append(errs, "llm.requestsPerMinute and llm.burst must be >= 0")
	}

	switch cfg.Handoff.Backend {
	case "memory":
	case "sqlite":
		if cfg.Handoff.DBPath == "" {
			errs = append(errs, "handoff.dbPath is required for the sqlite backend")
		}
	case "redis":
		if cfg.Handoff.Redis.Addr == "" {
			errs = append(errs, "handoff.redis.addr is required for the redis backend")
		}
	default:
		errs = append(errs, "handoff.backend must be one of: memory, sqlite, redis")
	}

	if cfg.Dispatch.CardDelayMs < 0 || cfg.Dispatch.FollowupDelayMs < 0 || cfg.Dispatch.FollowupAfterCardsDelayMs < 0 {
		errs = append(errs, "dispatch delays must be >= 0")
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Endpoint, "/") {
		errs = append(errs, "metrics.endpoint must start with /")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ExpandPath resolves ~/ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
