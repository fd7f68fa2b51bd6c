package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // calendar-day boundaries must resolve without a system zoneinfo

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Logging     LoggingConfig   `toml:"logging"`
	Storage     StorageConfig   `toml:"storage"`
	Crawler     CrawlerConfig   `toml:"crawler"`
	Pipeline    PipelineConfig  `toml:"pipeline"`
	LLM         LLMConfig       `toml:"llm"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Claude      ClaudeConfig    `toml:"claude"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Metrics     MetricsConfig   `toml:"metrics"`
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for log lines (default: "15:04:05")
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// CrawlerConfig controls page loading for both the headless browser and the plain HTTP path
type CrawlerConfig struct {
	UserAgent         string  `toml:"user_agent"`
	EnableJavaScript  bool    `toml:"enable_javascript"`   // Render pages with chromedp; false forces the HTTP path everywhere
	Headless          bool    `toml:"headless"`            // Run Chrome headless
	NoSandbox         bool    `toml:"no_sandbox"`          // Pass --no-sandbox (containers)
	BlockResources    bool    `toml:"block_resources"`     // Abort image/media/font/stylesheet sub-requests
	BrowserTimeout    string  `toml:"browser_timeout"`     // Per-attempt timeout for a full page load (default: "30s")
	HTTPTimeout       string  `toml:"http_timeout"`        // Per-attempt timeout for a plain HTTP fetch (default: "10s")
	NavigationRetries int     `toml:"navigation_retries"`  // Retries after the first attempt (default: 2)
	RetryBackoff      string  `toml:"retry_backoff"`       // Backoff unit multiplied by attempt number (default: "2s")
	ReadyTimeout      string  `toml:"ready_timeout"`       // Bound for waiting on a source's ready selector (default: "10s")
	IdleTimeout       string  `toml:"idle_timeout"`        // Bound for waiting on network idle (default: "8s")
	SettleDelay       string  `toml:"settle_delay"`        // Fixed delay when no wait condition applies or a wait times out (default: "2s")
	RequestsPerSecond float64 `toml:"requests_per_second"` // Per-host politeness limit (default: 1)
}

// PipelineConfig controls the ingestion run itself
type PipelineConfig struct {
	ItemDelay        string  `toml:"item_delay"`         // Pause between candidates of one source (default: "1s")
	SourceDelay      string  `toml:"source_delay"`       // Pause between sources (default: "2s")
	MaxInputChars    int     `toml:"max_input_chars"`    // Prefix of page text sent to the model (default: 7000)
	MinContentChars  int     `toml:"min_content_chars"`  // Minimum text length for a content container (default: 100)
	MinHangulDensity float64 `toml:"min_hangul_density"` // Language-density filter ratio (default: 0.2)
	MinHangulLetters int     `toml:"min_hangul_letters"` // Language-density filter absolute floor (default: 20)
	MonthsAhead      int     `toml:"months_ahead"`       // Default calendar months fetched from feed sources (default: 1)
	Timezone         string  `toml:"timezone"`           // Calendar-day boundary for deduplication (default: "Asia/Seoul")
	ShutdownTimeout  string  `toml:"shutdown_timeout"`   // Bound for awaiting background tasks on shutdown (default: "30s")
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "gemini" or "claude" (default: "gemini")
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

// SchedulerConfig controls periodic sweeps in "schedule" mode
type SchedulerConfig struct {
	Schedule string `toml:"schedule"` // Cron schedule with seconds field
}

// MetricsConfig controls the Prometheus endpoint in "schedule" mode
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Address string `toml:"address"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/events",
			},
		},
		Crawler: CrawlerConfig{
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			EnableJavaScript:  true,
			Headless:          true,
			NoSandbox:         true,
			BlockResources:    true,
			BrowserTimeout:    "30s",
			HTTPTimeout:       "10s",
			NavigationRetries: 2,
			RetryBackoff:      "2s",
			ReadyTimeout:      "10s",
			IdleTimeout:       "8s",
			SettleDelay:       "2s",
			RequestsPerSecond: 1,
		},
		Pipeline: PipelineConfig{
			ItemDelay:        "1s",
			SourceDelay:      "2s",
			MaxInputChars:    7000,
			MinContentChars:  100,
			MinHangulDensity: 0.2,
			MinHangulLetters: 20,
			MonthsAhead:      1,
			Timezone:         "Asia/Seoul",
			ShutdownTimeout:  "30s",
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-2.0-flash",
			Timeout:     "2m",
			Temperature: 0.2,
		},
		Claude: ClaudeConfig{
			Model:       "claude-3-5-haiku-20241022",
			MaxTokens:   2048,
			Timeout:     "2m",
			Temperature: 0.2,
		},
		Scheduler: SchedulerConfig{
			Schedule: "0 0 */6 * * *", // Every 6 hours
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9464",
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("ECCLESIA_ENV"); env != "" {
		config.Environment = env
	}

	if level := os.Getenv("ECCLESIA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("ECCLESIA_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}

	if js := os.Getenv("ECCLESIA_ENABLE_JAVASCRIPT"); js != "" {
		if b, err := strconv.ParseBool(js); err == nil {
			config.Crawler.EnableJavaScript = b
		}
	}

	if provider := os.Getenv("ECCLESIA_LLM_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(strings.ToLower(provider))
	}

	if schedule := os.Getenv("ECCLESIA_SCHEDULE"); schedule != "" {
		config.Scheduler.Schedule = schedule
	}
}

// Validate checks values that would otherwise fail late, deep inside a background run
func (c *Config) Validate() error {
	durations := map[string]string{
		"crawler.browser_timeout":   c.Crawler.BrowserTimeout,
		"crawler.http_timeout":      c.Crawler.HTTPTimeout,
		"crawler.retry_backoff":     c.Crawler.RetryBackoff,
		"crawler.ready_timeout":     c.Crawler.ReadyTimeout,
		"crawler.idle_timeout":      c.Crawler.IdleTimeout,
		"crawler.settle_delay":      c.Crawler.SettleDelay,
		"pipeline.item_delay":       c.Pipeline.ItemDelay,
		"pipeline.source_delay":     c.Pipeline.SourceDelay,
		"pipeline.shutdown_timeout": c.Pipeline.ShutdownTimeout,
		"gemini.timeout":            c.Gemini.Timeout,
		"claude.timeout":            c.Claude.Timeout,
	}
	for key, value := range durations {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration for %s '%s': %w", key, value, err)
		}
	}

	if c.Crawler.NavigationRetries < 0 {
		return fmt.Errorf("crawler.navigation_retries must be >= 0, got %d", c.Crawler.NavigationRetries)
	}

	switch c.LLM.DefaultProvider {
	case LLMProviderGemini, LLMProviderClaude:
	default:
		return fmt.Errorf("invalid llm.default_provider '%s': must be 'gemini' or 'claude'", c.LLM.DefaultProvider)
	}

	if _, err := time.LoadLocation(c.Pipeline.Timezone); err != nil {
		return fmt.Errorf("invalid pipeline.timezone '%s': %w", c.Pipeline.Timezone, err)
	}

	if err := ValidateSchedule(c.Scheduler.Schedule); err != nil {
		return err
	}

	return nil
}

// ValidateSchedule validates a cron expression (with seconds field)
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}
	return nil
}

// Duration parses a duration string that Validate has already accepted.
// Falls back to def for empty or malformed values.
func Duration(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return d
}

// ResolveAPIKey resolves an API key by name with environment variable priority
// Resolution order: environment variables → config fallback → error
func ResolveAPIKey(name string, configFallback string) (string, error) {
	keyToEnvMapping := map[string][]string{
		"gemini_api_key":    {"ECCLESIA_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"},
		"anthropic_api_key": {"ECCLESIA_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment or config", name)
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Environment)
	return env == "production" || env == "prod"
}
