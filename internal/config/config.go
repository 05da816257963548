package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// this is a pointer so that if someone attempts to use it before loading it will
// panic and force them to load it first.
// it is also private so that it cannot be modified after loading.
var _loaded *Config

// Config is the main configuration structure
type Config struct {
	Common Common `yaml:"common"`
}

// Load loads the configuration following proper precedence: defaults → config file → environment variables
func Load() {
	// Start with defaults
	_loaded = &defaultConfig

	// Try to load from config file and merge over defaults
	configFile := os.Getenv("JOY_CONFIG_FILE")
	if configFile == "" {
		configFile = "joy.yaml"
	}

	if err := LoadFromFile(configFile); err != nil {
		log.Printf("Failed to load config file: %v, using defaults", err)
	}

	// Apply environment variable overrides (highest priority)
	ApplyEnvOverrides()
}

func LoadDefault() {
	config := defaultConfig
	_loaded = &config
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults
	cfg := defaultConfig

	// Merge YAML values over defaults
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	_loaded = &cfg
	return nil
}

// set sane defaults for all of the config options. when loading the config from
// the file, any options that are not set will be set to these defaults.
var defaultConfig = Config{
	Common: Common{
		Log: logConfig{
			Level:  "info",
			Format: "json",
		},
		Http: httpConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Backend: backendConfig{
			URL:       "http://localhost:3000",
			AuthToken: "",
		},
		Postgres: postgresConfig{
			User:               "postgres",
			Password:           "postgres",
			Host:               "localhost",
			Port:               5432,
			Database:           "joy",
			SchemaName:         "public",
			ReadTimeout:        30,
			WriteTimeout:       30,
			MaxOpenConnections: 10,
		},
		LLM: llmConfig{
			Provider:           "openai",
			Model:              "gpt-4o-mini",
			EmbeddingModel:     "text-embedding-3-small",
			EmbeddingDimension: 1536,
		},
		Realtime: realtimeConfig{
			URL: "ws://localhost:7880/agent",
		},
		Memory: memoryConfig{
			FlushThreshold:  300,
			MatchThreshold:  0.78,
			MatchCount:      5,
			EnableRetrieval: false,
		},
	},
}

type Common struct {
	Log      logConfig      `yaml:"log"`
	Http     httpConfig     `yaml:"http"`
	Backend  backendConfig  `yaml:"backend"`
	Postgres postgresConfig `yaml:"postgres"`
	LLM      llmConfig      `yaml:"llm"`
	Realtime realtimeConfig `yaml:"realtime"`
	Memory   memoryConfig   `yaml:"memory"`
}

type logConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// httpConfig configures the health/monitoring endpoint, not the agent
// transport (which is the realtime gateway).
type httpConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type backendConfig struct {
	URL       string `yaml:"url"`        // Base URL of the profile backend
	AuthToken string `yaml:"auth_token"` // Bearer token for /save-user-data
}

type postgresConfig struct {
	User               string `yaml:"user"`
	Password           string `yaml:"password"`
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	Database           string `yaml:"database"`
	SchemaName         string `yaml:"schema_name"`
	ReadTimeout        int    `yaml:"read_timeout"`
	WriteTimeout       int    `yaml:"write_timeout"`
	MaxOpenConnections int    `yaml:"max_open_connections"`
}

func (c postgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		url.QueryEscape(c.User),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		url.QueryEscape(c.Database),
	)
}

type llmConfig struct {
	Provider           string `yaml:"provider"`            // "openai", "gemini" or "mock"
	APIKey             string `yaml:"api_key"`             // Provider API key
	Model              string `yaml:"model"`               // Chat model name
	BaseURL            string `yaml:"base_url"`            // Custom API base URL
	EmbeddingModel     string `yaml:"embedding_model"`     // Embedding model name
	EmbeddingDimension int    `yaml:"embedding_dimension"` // Embedding dimension
}

type realtimeConfig struct {
	URL       string `yaml:"url"`        // Realtime gateway websocket URL
	APIKey    string `yaml:"api_key"`    // Gateway API key
	APISecret string `yaml:"api_secret"` // Gateway API secret
}

type memoryConfig struct {
	FlushThreshold  int     `yaml:"flush_threshold"`  // Minimum transcript length to persist on session end
	MatchThreshold  float64 `yaml:"match_threshold"`  // Similarity threshold for match_conversations
	MatchCount      int     `yaml:"match_count"`      // Top-K for match_conversations
	EnableRetrieval bool    `yaml:"enable_retrieval"` // Inject retrieved context into assistant turns
}

// there should be a getter for each top level field in the config struct.
// these getters will panic if the config has not been loaded.

func Logger() logConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Log
}

func Http() httpConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Http
}

func Backend() backendConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Backend
}

func Postgres() postgresConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Postgres
}

func LLM() llmConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.LLM
}

func Realtime() realtimeConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Realtime
}

func Memory() memoryConfig {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded.Common.Memory
}

// Get returns the full configuration
func Get() *Config {
	if _loaded == nil {
		panic("config not loaded - call Load() first")
	}
	return _loaded
}

func ApplyEnvOverrides() {
	if _loaded == nil {
		return
	}

	// Override with environment variables if present
	if dbHost := os.Getenv("JOY_DB_HOST"); dbHost != "" {
		_loaded.Common.Postgres.Host = dbHost
	}
	if dbPort := os.Getenv("JOY_DB_PORT"); dbPort != "" {
		if port, err := strconv.Atoi(dbPort); err == nil {
			_loaded.Common.Postgres.Port = port
		}
	}
	if dbUser := os.Getenv("JOY_DB_USER"); dbUser != "" {
		_loaded.Common.Postgres.User = dbUser
	}
	if dbPassword := os.Getenv("JOY_DB_PASSWORD"); dbPassword != "" {
		_loaded.Common.Postgres.Password = dbPassword
	}
	if dbName := os.Getenv("JOY_DB_NAME"); dbName != "" {
		_loaded.Common.Postgres.Database = dbName
	}

	if httpHost := os.Getenv("JOY_HTTP_HOST"); httpHost != "" {
		_loaded.Common.Http.Host = httpHost
	}
	if httpPort := os.Getenv("JOY_HTTP_PORT"); httpPort != "" {
		if port, err := strconv.Atoi(httpPort); err == nil {
			_loaded.Common.Http.Port = port
		}
	}

	if backendURL := os.Getenv("JOY_BACKEND_URL"); backendURL != "" {
		_loaded.Common.Backend.URL = backendURL
	}
	if authToken := os.Getenv("JOY_AGENT_AUTH_TOKEN"); authToken != "" {
		_loaded.Common.Backend.AuthToken = authToken
	}

	if provider := os.Getenv("JOY_LLM_PROVIDER"); provider != "" {
		_loaded.Common.LLM.Provider = provider
	}
	if apiKey := os.Getenv("JOY_LLM_API_KEY"); apiKey != "" {
		_loaded.Common.LLM.APIKey = apiKey
	}
	if model := os.Getenv("JOY_LLM_MODEL"); model != "" {
		_loaded.Common.LLM.Model = model
	}
	if baseURL := os.Getenv("JOY_LLM_BASE_URL"); baseURL != "" {
		_loaded.Common.LLM.BaseURL = baseURL
	}
	if embeddingModel := os.Getenv("JOY_EMBEDDING_MODEL"); embeddingModel != "" {
		_loaded.Common.LLM.EmbeddingModel = embeddingModel
	}

	if rtURL := os.Getenv("JOY_REALTIME_URL"); rtURL != "" {
		_loaded.Common.Realtime.URL = rtURL
	}
	if rtKey := os.Getenv("JOY_REALTIME_API_KEY"); rtKey != "" {
		_loaded.Common.Realtime.APIKey = rtKey
	}
	if rtSecret := os.Getenv("JOY_REALTIME_API_SECRET"); rtSecret != "" {
		_loaded.Common.Realtime.APISecret = rtSecret
	}

	if threshold := os.Getenv("JOY_MEMORY_FLUSH_THRESHOLD"); threshold != "" {
		if n, err := strconv.Atoi(threshold); err == nil {
			_loaded.Common.Memory.FlushThreshold = n
		}
	}
	if retrieval := os.Getenv("JOY_MEMORY_ENABLE_RETRIEVAL"); retrieval != "" {
		if enabled, err := strconv.ParseBool(retrieval); err == nil {
			_loaded.Common.Memory.EnableRetrieval = enabled
		}
	}
}
