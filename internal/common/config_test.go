package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewDefaultConfig_IsValid(t *testing.T) {
	config := NewDefaultConfig()
	require.NoError(t, config.Validate())

	assert.Equal(t, "1s", config.Pipeline.ItemDelay)
	assert.Equal(t, "2s", config.Pipeline.SourceDelay)
	assert.Equal(t, 2, config.Crawler.NavigationRetries)
	assert.Equal(t, "Asia/Seoul", config.Pipeline.Timezone)
	assert.Equal(t, LLMProviderGemini, config.LLM.DefaultProvider)
}

func TestLoadFromFiles_LaterFilesOverride(t *testing.T) {
	base := writeConfig(t, "base.toml", `
environment = "production"

[pipeline]
item_delay = "3s"
months_ahead = 2

[crawler]
enable_javascript = false
`)
	override := writeConfig(t, "override.toml", `
[pipeline]
item_delay = "500ms"

[llm]
default_provider = "claude"
`)

	config, err := LoadFromFiles(base, "", override)
	require.NoError(t, err)

	assert.True(t, config.IsProduction())
	assert.Equal(t, "500ms", config.Pipeline.ItemDelay)
	assert.Equal(t, 2, config.Pipeline.MonthsAhead)
	assert.False(t, config.Crawler.EnableJavaScript)
	assert.Equal(t, LLMProviderClaude, config.LLM.DefaultProvider)
	assert.Equal(t, "2s", config.Pipeline.SourceDelay, "unset keys keep defaults")
}

func TestLoadFromFiles_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "config.toml", `
[storage.badger]
path = "/from/file"
`)
	t.Setenv("ECCLESIA_BADGER_PATH", "/from/env")
	t.Setenv("ECCLESIA_LLM_PROVIDER", "CLAUDE")
	t.Setenv("ECCLESIA_ENABLE_JAVASCRIPT", "false")

	config, err := LoadFromFiles(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", config.Storage.Badger.Path)
	assert.Equal(t, LLMProviderClaude, config.LLM.DefaultProvider)
	assert.False(t, config.Crawler.EnableJavaScript)
}

func TestLoadFromFiles_Errors(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = LoadFromFiles(writeConfig(t, "bad.toml", "[pipeline\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad duration", func(c *Config) { c.Pipeline.ItemDelay = "soon" }},
		{"negative retries", func(c *Config) { c.Crawler.NavigationRetries = -1 }},
		{"unknown provider", func(c *Config) { c.LLM.DefaultProvider = "openai" }},
		{"unknown timezone", func(c *Config) { c.Pipeline.Timezone = "Mars/Olympus" }},
		{"five-field cron", func(c *Config) { c.Scheduler.Schedule = "0 */6 * * *" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := NewDefaultConfig()
			tt.mutate(config)
			assert.Error(t, config.Validate())
		})
	}
}

func TestDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, Duration("1.5s", time.Second))
	assert.Equal(t, time.Second, Duration("", time.Second))
	assert.Equal(t, time.Second, Duration("later", time.Second))
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("ECCLESIA_GEMINI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	_, err := ResolveAPIKey("gemini_api_key", "")
	assert.Error(t, err)

	key, err := ResolveAPIKey("gemini_api_key", "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-config", key)

	t.Setenv("GOOGLE_API_KEY", "from-env")
	key, err = ResolveAPIKey("gemini_api_key", "from-config")
	require.NoError(t, err)
	assert.Equal(t, "from-env", key)
}
