package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig                 `json:"app" yaml:"app"`
	Gateways   map[string]GatewayConfig  `json:"gateways" yaml:"gateways" validate:"dive"`
	Providers  map[string]ProviderConfig `json:"providers" yaml:"providers" validate:"dive"`
	Memory     MemoryConfig              `json:"memory" yaml:"memory"`
	Server     ServerConfig              `json:"server" yaml:"server"`
	Campaign   CampaignConfig            `json:"campaign" yaml:"campaign"`
	Compliance ComplianceConfig          `json:"compliance" yaml:"compliance"`
}

type AppConfig struct {
	Name  string `json:"name" yaml:"name"`
	Brand string `json:"brand" yaml:"brand"`
	// Prompts is a directory whose *.md files override the built-in prompts.
	Prompts string `json:"prompts" yaml:"prompts"`
	LogDir  string `json:"log_dir" yaml:"log_dir"`
	// Provider picks the model provider when several are enabled.
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`
}

type GatewayConfig struct {
	Token        string  `json:"token" yaml:"token" validate:"required_if=Enabled true"`
	Enabled      bool    `json:"enabled" yaml:"enabled"`
	AllowedChats []int64 `json:"allowed_chats,omitempty" yaml:"allowed_chats,omitempty"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key" yaml:"api_key"`
	Model   string `json:"model" yaml:"model" validate:"required_if=Enabled true"`
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" validate:"omitempty,url"`
	Enabled bool   `json:"enabled" yaml:"enabled"`
}

type MemoryConfig struct {
	Type string `json:"type" yaml:"type" validate:"oneof=sqlite"`
	Path string `json:"path" yaml:"path" validate:"required"`
	// RedisURL moves chat wizard drafts to Redis when set.
	RedisURL string `json:"redis_url,omitempty" yaml:"redis_url,omitempty" validate:"omitempty,url"`
}

type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" validate:"required"`
}

type CampaignConfig struct {
	// DelayConvention is the delay convention plan models are asked to use.
	DelayConvention string `json:"delay_convention" yaml:"delay_convention" validate:"oneof=relative cumulative"`
	DefaultEmails   int    `json:"default_emails" yaml:"default_emails" validate:"gte=1,lte=30"`
	DefaultDays     int    `json:"default_days" yaml:"default_days" validate:"gte=1"`
	// PlanTools offers the propose_plan tool; false asks for JSON text.
	PlanTools *bool `json:"plan_tools,omitempty" yaml:"plan_tools,omitempty"`
	// ToneSeed is a YAML file of tone snippets loaded by "tone seed".
	ToneSeed string `json:"tone_seed,omitempty" yaml:"tone_seed,omitempty"`
}

type ComplianceConfig struct {
	SubjectMax   int    `json:"subject_max" yaml:"subject_max" validate:"gte=1"`
	PreheaderMax int    `json:"preheader_max" yaml:"preheader_max" validate:"gte=1"`
	MergeToken   string `json:"merge_token" yaml:"merge_token" validate:"required"`
	// ExtraPatterns are additional banned regular expressions, keyed by name.
	ExtraPatterns map[string]string `json:"extra_patterns,omitempty" yaml:"extra_patterns,omitempty"`
}

// envOverrides are the environment variables that take precedence over the
// config file.
type envOverrides struct {
	Provider        string `env:"CAMPAIGNER_PROVIDER"`
	Model           string `env:"CAMPAIGNER_MODEL"`
	Brand           string `env:"CAMPAIGNER_BRAND"`
	Addr            string `env:"CAMPAIGNER_ADDR"`
	DBPath          string `env:"CAMPAIGNER_DB"`
	RedisURL        string `env:"CAMPAIGNER_REDIS_URL"`
	LogDir          string `env:"CAMPAIGNER_LOG_DIR"`
	DelayConvention string `env:"CAMPAIGNER_DELAY_CONVENTION"`
	TelegramToken   string `env:"CAMPAIGNER_TELEGRAM_TOKEN"`
	DiscordToken    string `env:"CAMPAIGNER_DISCORD_TOKEN"`
	OpenAIKey       string `env:"OPENAI_API_KEY"`
	OpenRouterKey   string `env:"OPENROUTER_API_KEY"`
	AnthropicKey    string `env:"ANTHROPIC_API_KEY"`
}

// Default returns a config that runs without any file: fallback planning
// only, sqlite under ./data and the API on :8080.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:   "campaigner",
			Brand:  "our team",
			LogDir: "logs",
		},
		Gateways:  map[string]GatewayConfig{},
		Providers: map[string]ProviderConfig{},
		Memory: MemoryConfig{
			Type: "sqlite",
			Path: filepath.Join("data", "campaigner.db"),
		},
		Server: ServerConfig{Addr: ":8080"},
		Campaign: CampaignConfig{
			DelayConvention: "relative",
			DefaultEmails:   8,
			DefaultDays:     45,
		},
		Compliance: ComplianceConfig{
			SubjectMax:   55,
			PreheaderMax: 90,
			MergeToken:   "{{recipient.f_name}}",
		},
	}
}

// Load reads a JSON or YAML config file (chosen by extension), expands
// ${VAR} references, applies environment overrides and validates the result.
// An empty path or a missing file yields the defaults plus overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := decode(path, []byte(os.ExpandEnv(string(data))), cfg); err != nil {
				return nil, err
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to decode config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to decode config file: %w", err)
		}
	}
	if cfg.Gateways == nil {
		cfg.Gateways = map[string]GatewayConfig{}
	}
	if cfg.Providers == nil {
		cfg.Providers = map[string]ProviderConfig{}
	}
	return nil
}

func (c *Config) applyEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	setString(&c.App.Brand, o.Brand)
	setString(&c.App.LogDir, o.LogDir)
	setString(&c.Server.Addr, o.Addr)
	setString(&c.Memory.Path, o.DBPath)
	setString(&c.Memory.RedisURL, o.RedisURL)
	setString(&c.Campaign.DelayConvention, o.DelayConvention)

	for name, key := range map[string]string{"openai": o.OpenAIKey, "openrouter": o.OpenRouterKey, "anthropic": o.AnthropicKey} {
		if p, ok := c.Providers[name]; ok && key != "" {
			p.APIKey = key
			c.Providers[name] = p
		}
	}
	if o.Provider != "" {
		p := c.Providers[o.Provider]
		p.Enabled = true
		c.Providers[o.Provider] = p
		c.App.Provider = o.Provider
	}
	if o.Model != "" && c.App.Provider != "" {
		p := c.Providers[c.App.Provider]
		p.Model = o.Model
		c.Providers[c.App.Provider] = p
	}

	for name, token := range map[string]string{"telegram": o.TelegramToken, "discord": o.DiscordToken} {
		if token != "" {
			g := c.Gateways[name]
			g.Token = token
			g.Enabled = true
			c.Gateways[name] = g
		}
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the config and returns every problem at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		if c.App.Provider != "" && !c.Providers[c.App.Provider].Enabled {
			return fmt.Errorf("configuration validation failed:\n  - app.provider %q is not an enabled provider", c.App.Provider)
		}
		return nil
	}

	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("validation error: %w", err)
	}
	var msgs []string
	for _, e := range validationErrs {
		field := strings.TrimPrefix(e.Namespace(), "Config.")
		switch e.Tag() {
		case "required", "required_if":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s] (got: %v)", field, e.Param(), e.Value()))
		case "gte", "lte":
			msgs = append(msgs, fmt.Sprintf("%s must be %s %s (got: %v)", field, e.Tag(), e.Param(), e.Value()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", field, e.Tag()))
		}
	}
	return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// GetDefaultProvider returns App.Provider when set, otherwise the first
// enabled provider by name.
func (c *Config) GetDefaultProvider() (string, ProviderConfig) {
	if c.App.Provider != "" {
		if p, ok := c.Providers[c.App.Provider]; ok && p.Enabled {
			return c.App.Provider, p
		}
	}
	names := make([]string, 0, len(c.Providers))
	for name := range c.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if p := c.Providers[name]; p.Enabled {
			return name, p
		}
	}
	return "", ProviderConfig{}
}

// GetGatewayConfig returns the named gateway config if enabled.
func (c *Config) GetGatewayConfig(name string) (GatewayConfig, bool) {
	g, ok := c.Gateways[name]
	if ok && g.Enabled && g.Token != "" {
		return g, true
	}
	return GatewayConfig{}, false
}

// GetTelegramConfig returns telegram config if enabled
func (c *Config) GetTelegramConfig() (GatewayConfig, bool) {
	return c.GetGatewayConfig("telegram")
}

func (c *Config) GetDiscordConfig() (GatewayConfig, bool) {
	return c.GetGatewayConfig("discord")
}

// UsePlanTools reports whether the planner should be offered the
// propose_plan tool. Defaults to true.
func (c *Config) UsePlanTools() bool {
	return c.Campaign.PlanTools == nil || *c.Campaign.PlanTools
}
