package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every override so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CAMPAIGNER_PROVIDER", "CAMPAIGNER_MODEL", "CAMPAIGNER_BRAND", "CAMPAIGNER_ADDR",
		"CAMPAIGNER_DB", "CAMPAIGNER_REDIS_URL", "CAMPAIGNER_LOG_DIR", "CAMPAIGNER_DELAY_CONVENTION",
		"CAMPAIGNER_TELEGRAM_TOKEN", "CAMPAIGNER_DISCORD_TOKEN",
		"OPENAI_API_KEY", "OPENROUTER_API_KEY", "ANTHROPIC_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "relative", cfg.Campaign.DelayConvention)
	assert.Equal(t, 55, cfg.Compliance.SubjectMax)
	assert.True(t, cfg.UsePlanTools())

	name, _ := cfg.GetDefaultProvider()
	assert.Empty(t, name)

	cfg, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Equal(t, "our team", cfg.App.Brand)
}

func TestLoad_JSON(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEST_TG_TOKEN", "tg-secret")

	path := writeFile(t, "config.json", `{
		"app": {"brand": "Harbor Lending"},
		"gateways": {"telegram": {"token": "${TEST_TG_TOKEN}", "enabled": true, "allowed_chats": [42]}},
		"providers": {
			"openai": {"api_key": "sk-file", "model": "gpt-4o", "enabled": true},
			"anthropic": {"model": "claude", "enabled": false}
		},
		"campaign": {"delay_convention": "cumulative", "default_emails": 6, "default_days": 30, "plan_tools": false}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Harbor Lending", cfg.App.Brand)
	assert.Equal(t, "cumulative", cfg.Campaign.DelayConvention)
	assert.Equal(t, 6, cfg.Campaign.DefaultEmails)
	assert.False(t, cfg.UsePlanTools())
	// defaults survive for sections the file leaves out
	assert.Equal(t, "sqlite", cfg.Memory.Type)

	tg, ok := cfg.GetTelegramConfig()
	require.True(t, ok)
	assert.Equal(t, "tg-secret", tg.Token)
	assert.Equal(t, []int64{42}, tg.AllowedChats)

	_, ok = cfg.GetDiscordConfig()
	assert.False(t, ok)

	name, p := cfg.GetDefaultProvider()
	assert.Equal(t, "openai", name)
	assert.Equal(t, "sk-file", p.APIKey)
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)

	path := writeFile(t, "config.yaml", `
app:
  brand: Harbor Lending
providers:
  ollama:
    model: llama3
    base_url: http://localhost:11434
    enabled: true
compliance:
  subject_max: 50
  preheader_max: 80
  merge_token: "{{contact.first_name}}"
  extra_patterns:
    lowest rate: (?i)lowest\s+rate
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Compliance.SubjectMax)
	assert.Equal(t, "{{contact.first_name}}", cfg.Compliance.MergeToken)
	assert.Equal(t, `(?i)lowest\s+rate`, cfg.Compliance.ExtraPatterns["lowest rate"])

	name, p := cfg.GetDefaultProvider()
	assert.Equal(t, "ollama", name)
	assert.Equal(t, "llama3", p.Model)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CAMPAIGNER_ADDR", ":9090")
	t.Setenv("CAMPAIGNER_PROVIDER", "openai")
	t.Setenv("CAMPAIGNER_MODEL", "gpt-4o-mini")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("CAMPAIGNER_DISCORD_TOKEN", "dc-secret")
	t.Setenv("CAMPAIGNER_REDIS_URL", "redis://localhost:6379/1")

	path := writeFile(t, "config.json", `{"providers": {"openai": {"api_key": "sk-file", "model": "gpt-4o"}}}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "redis://localhost:6379/1", cfg.Memory.RedisURL)

	name, p := cfg.GetDefaultProvider()
	assert.Equal(t, "openai", name)
	assert.Equal(t, "sk-env", p.APIKey)
	assert.Equal(t, "gpt-4o-mini", p.Model)

	dc, ok := cfg.GetDiscordConfig()
	require.True(t, ok)
	assert.Equal(t, "dc-secret", dc.Token)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad convention", `{"campaign": {"delay_convention": "weekly", "default_emails": 8, "default_days": 45}}`, "DelayConvention must be one of"},
		{"enabled provider without model", `{"providers": {"openai": {"enabled": true}}}`, "Model is required"},
		{"enabled gateway without token", `{"gateways": {"telegram": {"enabled": true}}}`, "Token is required"},
		{"zero subject limit", `{"compliance": {"subject_max": 0, "preheader_max": 90, "merge_token": "x"}}`, "SubjectMax must be gte 1"},
		{"malformed", `{"app": `, "failed to decode config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "config.json", tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_ProviderMustBeEnabled(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeFile(t, "config.json", `{"app": {"provider": "anthropic"}}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `app.provider "anthropic"`)
}
