// Package config provides configuration management for Vigil.
// It loads settings from environment variables with the VIGIL_ prefix and
// provides sensible defaults for all configuration options. An optional YAML
// file can override detection thresholds and companion settings; environment
// variables take precedence over file values.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vigil-app/vigil/internal/engine"
	"github.com/vigil-app/vigil/internal/llm"
	"github.com/vigil-app/vigil/pkg/types"
)

// Config holds all configuration settings for the Vigil engine.
type Config struct {
	Storage   StorageConfig
	LLM       LLMConfig
	Detection DetectionConfig
	Companion CompanionConfig
}

// StorageConfig contains database configuration.
type StorageConfig struct {
	Engine      string // Storage engine: sqlite, postgres (default: sqlite)
	SQLitePath  string // Path to the SQLite database file (default: ./data/vigil.db)
	PostgresDSN string // PostgreSQL connection string (fragment store)
}

// LLMConfig contains LLM provider configuration.
type LLMConfig struct {
	Provider             string // LLM provider: ollama, openai, anthropic (default: ollama)
	OllamaURL            string // Ollama API URL (default: http://localhost:11434)
	OllamaModel          string // Ollama chat model (default: llama3.2)
	OllamaEmbeddingModel string // Ollama embedding model (default: nomic-embed-text)
	OpenAIAPIKey         string // OpenAI API key
	OpenAIModel          string // OpenAI chat model (default: gpt-4o-mini)
	OpenAIEmbeddingModel string // OpenAI embedding model (default: text-embedding-3-small)
	AnthropicAPIKey      string // Anthropic API key
	AnthropicModel       string // Anthropic chat model (default: claude-3-5-haiku-20241022)
	TimeoutSeconds       int    // Completion timeout (default: 45)
}

// DetectionConfig contains detector thresholds.
type DetectionConfig struct {
	AnomalyWindow   int `yaml:"anomaly_window"`    // Observations per metric (default: 20)
	SpikeThreshold  int `yaml:"spike_threshold"`   // Outbound events per contact per day (default: 3)
	SpikeWindowDays int `yaml:"spike_window_days"` // Trailing window in days (default: 7)
	ForecastHorizon int `yaml:"forecast_horizon"`  // Projected points (default: 3)
}

// CompanionConfig contains companion personality defaults.
type CompanionConfig struct {
	PersonalityStyle  string `yaml:"personality_style"`  // balanced, supportive, challenging
	PreferredLanguage string `yaml:"preferred_language"` // ISO language code (default: en)
	ProactiveEnabled  bool   `yaml:"proactive_enabled"`  // default: true
}

// configFile mirrors the optional YAML file shape.
type configFile struct {
	Detection DetectionConfig `yaml:"detection"`
	Companion CompanionConfig `yaml:"companion"`
}

// LoadConfig loads configuration from environment variables with sensible
// defaults. All environment variables use the VIGIL_ prefix.
func LoadConfig() (*Config, error) {
	return buildBaseConfig(), nil
}

// LoadConfigFromFile loads the base configuration, then applies overrides
// from a YAML file. Fields set by environment variables keep their values;
// only defaults are replaced by file values.
func LoadConfigFromFile(path string) (*Config, error) {
	cfg := buildBaseConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
	}

	var file configFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	if os.Getenv("VIGIL_ANOMALY_WINDOW") == "" && file.Detection.AnomalyWindow > 0 {
		cfg.Detection.AnomalyWindow = file.Detection.AnomalyWindow
	}
	if os.Getenv("VIGIL_SPIKE_THRESHOLD") == "" && file.Detection.SpikeThreshold > 0 {
		cfg.Detection.SpikeThreshold = file.Detection.SpikeThreshold
	}
	if os.Getenv("VIGIL_SPIKE_WINDOW_DAYS") == "" && file.Detection.SpikeWindowDays > 0 {
		cfg.Detection.SpikeWindowDays = file.Detection.SpikeWindowDays
	}
	if os.Getenv("VIGIL_FORECAST_HORIZON") == "" && file.Detection.ForecastHorizon > 0 {
		cfg.Detection.ForecastHorizon = file.Detection.ForecastHorizon
	}
	if os.Getenv("VIGIL_PERSONALITY_STYLE") == "" && file.Companion.PersonalityStyle != "" {
		cfg.Companion.PersonalityStyle = file.Companion.PersonalityStyle
	}
	if os.Getenv("VIGIL_PREFERRED_LANGUAGE") == "" && file.Companion.PreferredLanguage != "" {
		cfg.Companion.PreferredLanguage = file.Companion.PreferredLanguage
	}

	return cfg, nil
}

// EngineDetection converts the configured thresholds into the engine's
// detection config.
func (c *Config) EngineDetection() engine.DetectionConfig {
	return engine.DetectionConfig{
		AnomalyWindow:   c.Detection.AnomalyWindow,
		SpikeThreshold:  c.Detection.SpikeThreshold,
		SpikeWindow:     time.Duration(c.Detection.SpikeWindowDays) * 24 * time.Hour,
		ForecastHorizon: c.Detection.ForecastHorizon,
	}
}

// CompanionSettings converts the configured companion defaults into the
// settings struct the composer receives per call.
func (c *Config) CompanionSettings() types.CompanionSettings {
	settings := types.CompanionSettings{
		PersonalityStyle:  types.PersonalityStyle(c.Companion.PersonalityStyle),
		PreferredLanguage: c.Companion.PreferredLanguage,
		ProactiveEnabled:  c.Companion.ProactiveEnabled,
	}
	settings.Normalize()
	return settings
}

// buildBaseConfig constructs a Config with values from environment variables
// and defaults.
func buildBaseConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Engine:      getEnv("VIGIL_STORAGE_ENGINE", "sqlite"),
			SQLitePath:  getEnv("VIGIL_SQLITE_PATH", "./data/vigil.db"),
			PostgresDSN: getEnv("VIGIL_POSTGRES_DSN", ""),
		},
		LLM: LLMConfig{
			Provider:             getEnv("VIGIL_LLM_PROVIDER", "ollama"),
			OllamaURL:            getEnv("VIGIL_OLLAMA_URL", "http://localhost:11434"),
			OllamaModel:          getEnv("VIGIL_OLLAMA_MODEL", "llama3.2"),
			OllamaEmbeddingModel: getEnv("VIGIL_EMBEDDING_MODEL", "nomic-embed-text"),
			OpenAIAPIKey:         getEnv("VIGIL_OPENAI_API_KEY", ""),
			OpenAIModel:          getEnv("VIGIL_OPENAI_MODEL", "gpt-4o-mini"),
			OpenAIEmbeddingModel: getEnv("VIGIL_OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			AnthropicAPIKey:      getEnv("VIGIL_ANTHROPIC_API_KEY", ""),
			AnthropicModel:       getEnv("VIGIL_ANTHROPIC_MODEL", "claude-3-5-haiku-20241022"),
			TimeoutSeconds:       getEnvInt("VIGIL_LLM_TIMEOUT_SECONDS", 45),
		},
		Detection: DetectionConfig{
			AnomalyWindow:   getEnvInt("VIGIL_ANOMALY_WINDOW", engine.DefaultAnomalyWindow),
			SpikeThreshold:  getEnvInt("VIGIL_SPIKE_THRESHOLD", engine.DefaultSpikeThreshold),
			SpikeWindowDays: getEnvInt("VIGIL_SPIKE_WINDOW_DAYS", engine.DefaultSpikeWindowDays),
			ForecastHorizon: getEnvInt("VIGIL_FORECAST_HORIZON", engine.DefaultForecastHorizon),
		},
		Companion: CompanionConfig{
			PersonalityStyle:  getEnv("VIGIL_PERSONALITY_STYLE", "balanced"),
			PreferredLanguage: getEnv("VIGIL_PREFERRED_LANGUAGE", "en"),
			ProactiveEnabled:  getEnvBool("VIGIL_PROACTIVE_ENABLED", true),
		},
	}
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default
// value. If the variable exists but cannot be parsed as an integer, the
// default is returned.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool retrieves a boolean environment variable or returns a default
// value. Accepts the forms strconv.ParseBool accepts.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// ProviderConfig builds the LLM client wiring for the configured provider.
func (c *Config) ProviderConfig() llm.ProviderConfig {
	switch c.LLM.Provider {
	case "openai":
		return llm.ProviderConfig{
			Provider:       "openai",
			APIKey:         c.LLM.OpenAIAPIKey,
			Model:          c.LLM.OpenAIModel,
			EmbeddingModel: c.LLM.OpenAIEmbeddingModel,
		}
	case "anthropic":
		return llm.ProviderConfig{
			Provider:       "anthropic",
			APIKey:         c.LLM.AnthropicAPIKey,
			Model:          c.LLM.AnthropicModel,
			EmbeddingModel: c.LLM.OllamaEmbeddingModel,
		}
	default:
		return llm.ProviderConfig{
			Provider:       "ollama",
			Model:          c.LLM.OllamaModel,
			EmbeddingModel: c.LLM.OllamaEmbeddingModel,
			BaseURL:        c.LLM.OllamaURL,
		}
	}
}
