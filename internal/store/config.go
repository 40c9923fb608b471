package store

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBaseURL    = "https://api.sectors.app/v1"
	DefaultReportDate = "2023-09-30"
	DefaultGroqURL    = "https://api.groq.com/openai/v1"
	DefaultGroqModel  = "llama-3.3-70b-versatile"

	// ReportDateLatest anchors the financials window at the last completed quarter.
	ReportDateLatest = "latest"
)

type Config struct {
	Sectors struct {
		BaseURL        string `yaml:"base_url"`
		APIKey         string `yaml:"-"`
		ReportDate     string `yaml:"report_date"`
		NQuarters      int    `yaml:"n_quarters"`
		RequestsPerMin int    `yaml:"requests_per_minute"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"sectors"`
	LLM struct {
		Provider       string  `yaml:"provider"`
		Model          string  `yaml:"model"`
		BaseURL        string  `yaml:"base_url"`
		APIKey         string  `yaml:"-"`
		Temperature    float32 `yaml:"temperature"`
		MaxTokens      int     `yaml:"max_tokens"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
	} `yaml:"llm"`
	Retry struct {
		MaxAttempts   int     `yaml:"max_attempts"`
		InitialWaitMs int     `yaml:"initial_wait_ms"`
		MaxWaitMs     int     `yaml:"max_wait_ms"`
		Jitter        float64 `yaml:"jitter"`
	} `yaml:"retry"`
	Dashboard struct {
		IsolatePanels *bool `yaml:"isolate_panels"`
	} `yaml:"dashboard"`
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Schedule struct {
		Enabled   bool     `yaml:"enabled"`
		Spec      string   `yaml:"spec"`
		Watchlist []string `yaml:"watchlist"`
	} `yaml:"schedule"`
	RunLog struct {
		Enabled       bool   `yaml:"enabled"`
		Dir           string `yaml:"dir"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"runlog"`
	// Prompts overrides built-in templates by name (summary, trend, risk, chart).
	Prompts map[string]string `yaml:"prompts"`
}

// providerKeyEnv maps an LLM provider to the environment variable holding its key
var providerKeyEnv = map[string]string{
	"GROQ":   "GROQ_API_KEY",
	"OPENAI": "OPENAI_API_KEY",
	"GEMINI": "GEMINI_API_KEY",
	"CLAUDE": "CLAUDE_API_KEY",
}

func (c *Config) Validate() error {
	if c.Sectors.BaseURL == "" {
		return errors.New("sectors.base_url cannot be empty")
	}
	if c.Sectors.APIKey == "" {
		return errors.New("SECTORS_API_KEY is not set")
	}
	if c.Sectors.NQuarters <= 0 {
		return fmt.Errorf("sectors.n_quarters must be positive, got %d", c.Sectors.NQuarters)
	}
	if c.Sectors.ReportDate != ReportDateLatest {
		if _, err := time.Parse("2006-01-02", c.Sectors.ReportDate); err != nil {
			return fmt.Errorf("sectors.report_date must be YYYY-MM-DD or 'latest', got '%s'", c.Sectors.ReportDate)
		}
	}
	switch c.LLM.Provider {
	case "GROQ", "OPENAI", "GEMINI", "CLAUDE":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("%s is not set for llm.provider '%s'", providerKeyEnv[c.LLM.Provider], c.LLM.Provider)
		}
	case "NOOP":
	default:
		return fmt.Errorf("llm.provider must be 'GROQ', 'OPENAI', 'GEMINI', 'CLAUDE' or 'NOOP', got '%s'", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0-2, got %.2f", c.LLM.Temperature)
	}
	if c.Retry.MaxAttempts < 1 || c.Retry.MaxAttempts > 10 {
		return fmt.Errorf("retry.max_attempts must be between 1-10, got %d", c.Retry.MaxAttempts)
	}
	if c.Retry.Jitter < 0 || c.Retry.Jitter > 1 {
		return fmt.Errorf("retry.jitter must be between 0-1, got %.2f", c.Retry.Jitter)
	}
	if c.Schedule.Enabled && len(c.Schedule.Watchlist) == 0 {
		return errors.New("schedule.watchlist cannot be empty when schedule is enabled")
	}
	return nil
}

// IsolatePanels reports whether a failed panel lets the remaining panels run
func (c *Config) IsolatePanels() bool {
	if c.Dashboard.IsolatePanels == nil {
		return true
	}
	return *c.Dashboard.IsolatePanels
}

// SectorsTimeout returns the per-request timeout for the data API
func (c *Config) SectorsTimeout() time.Duration {
	return time.Duration(c.Sectors.TimeoutSeconds) * time.Second
}

// LLMTimeout returns the per-call timeout for the LLM provider
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// LoadConfig reads the YAML file at path, applies defaults and environment
// secrets, and validates the result. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	var c Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	applyDefaults(&c)
	applyEnv(&c)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.Sectors.BaseURL == "" {
		c.Sectors.BaseURL = DefaultBaseURL
	}
	c.Sectors.BaseURL = strings.TrimRight(c.Sectors.BaseURL, "/")
	if c.Sectors.ReportDate == "" {
		c.Sectors.ReportDate = DefaultReportDate
	}
	if c.Sectors.NQuarters == 0 {
		c.Sectors.NQuarters = 4
	}
	if c.Sectors.RequestsPerMin == 0 {
		c.Sectors.RequestsPerMin = 60
	}
	if c.Sectors.TimeoutSeconds == 0 {
		c.Sectors.TimeoutSeconds = 30
	}

	c.LLM.Provider = strings.ToUpper(strings.TrimSpace(c.LLM.Provider))
	if c.LLM.Provider == "" {
		c.LLM.Provider = "GROQ"
	}
	if c.LLM.Provider == "GROQ" {
		if c.LLM.BaseURL == "" {
			c.LLM.BaseURL = DefaultGroqURL
		}
		if c.LLM.Model == "" {
			c.LLM.Model = DefaultGroqModel
		}
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.7
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1024
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 90
	}

	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = 3
	}
	if c.Retry.InitialWaitMs == 0 {
		c.Retry.InitialWaitMs = 500
	}
	if c.Retry.MaxWaitMs == 0 {
		c.Retry.MaxWaitMs = 5000
	}
	if c.Retry.Jitter == 0 {
		c.Retry.Jitter = 0.5
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Schedule.Spec == "" {
		c.Schedule.Spec = "0 18 * * 1-5"
	}
	if c.RunLog.Dir == "" {
		c.RunLog.Dir = "logs"
	}
}

// applyEnv copies secrets from the environment. Call godotenv.Load first.
func applyEnv(c *Config) {
	if v := os.Getenv("SECTORS_API_KEY"); v != "" {
		c.Sectors.APIKey = v
	}
	if v := os.Getenv("INSIGHTS_LOG_RETENTION_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RunLog.RetentionDays = n
		}
	}
	if env, ok := providerKeyEnv[c.LLM.Provider]; ok {
		if v := os.Getenv(env); v != "" {
			c.LLM.APIKey = v
		}
	}
}
