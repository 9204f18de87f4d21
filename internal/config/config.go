package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AppInfo holds basic information about the running application.
type AppInfo struct {
	Name        string `yaml:"name"`        // application name
	Version     string `yaml:"version"`     // application version
	Environment string `yaml:"environment"` // "development" or "production"
}

// LoggerConfig controls the logging subsystem.
type LoggerConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Address string `yaml:"address"` // listen address, e.g. ":8080"
}

// MySQLConfig holds the MySQL connection settings.
type MySQLConfig struct {
	Address         string `yaml:"address"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	MaxOpenConns    int    `yaml:"maxOpenConns"`
	MaxIdleConns    int    `yaml:"maxIdleConns"`
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // seconds
}

// FieldConfig describes one field of the Milvus collection schema.
type FieldConfig struct {
	Name         string `yaml:"name"`
	DataType     string `yaml:"dataType"` // "Int64", "VarChar", "FloatVector"
	IsPrimaryKey bool   `yaml:"isPrimaryKey"`
	IsAutoID     bool   `yaml:"isAutoID"`
	Dim          int    `yaml:"dim,omitempty"`       // vector types only
	MaxLength    int    `yaml:"maxLength,omitempty"` // VarChar only
}

// IndexConfig describes the vector index built on the collection.
type IndexConfig struct {
	FieldName  string                 `yaml:"fieldName"`
	IndexType  string                 `yaml:"indexType"`  // "IVF_FLAT", "HNSW", "AUTOINDEX"
	MetricType string                 `yaml:"metricType"` // "L2", "COSINE"
	Params     map[string]interface{} `yaml:"params"`
}

// SchemaConfig describes the Milvus collection schema.
type SchemaConfig struct {
	CollectionName string        `yaml:"collectionName"`
	Description    string        `yaml:"description"`
	VectorField    string        `yaml:"vectorField"`
	Fields         []FieldConfig `yaml:"fields"`
	Index          IndexConfig   `yaml:"index"`
}

// MilvusConfig holds the Milvus connection and schema settings.
type MilvusConfig struct {
	Address string       `yaml:"address"`
	Schema  SchemaConfig `yaml:"schema"`
}

// DatabaseConfigs groups the configuration of every backing store.
type DatabaseConfigs struct {
	MySQL  MySQLConfig  `yaml:"mysql"`
	Milvus MilvusConfig `yaml:"milvus"`
}

// ModelConfig describes a single provider-backed model endpoint.
type ModelConfig struct {
	Provider string `yaml:"provider"` // "openai", "gemini", "ollama"
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
	BaseURL  string `yaml:"baseURL,omitempty"` // OpenAI-compatible endpoints and Ollama
}

// LLMConfig configures the chat completion call made by the resolution
// pipeline.
type LLMConfig struct {
	ModelConfig `yaml:",inline"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"maxTokens"`
}

// CrawlerConfig configures the site crawler.
type CrawlerConfig struct {
	BaseURL      string   `yaml:"baseURL"`
	Paths        []string `yaml:"paths"`        // candidate paths relative to baseURL
	FetchTimeout string   `yaml:"fetchTimeout"` // e.g. "10s"
	FetchDelay   string   `yaml:"fetchDelay"`   // politeness delay between pages, e.g. "1s"
	UserAgent    string   `yaml:"userAgent"`
}

// ParsedFetchTimeout returns the fetch timeout, defaulting to 10 seconds.
func (c CrawlerConfig) ParsedFetchTimeout() time.Duration {
	return parseDurationDefault(c.FetchTimeout, 10*time.Second)
}

// ParsedFetchDelay returns the inter-page delay, defaulting to 1 second.
func (c CrawlerConfig) ParsedFetchDelay() time.Duration {
	return parseDurationDefault(c.FetchDelay, time.Second)
}

// ChatbotConfig holds the tuning knobs of the resolution pipeline.
type ChatbotConfig struct {
	CompanyName       string   `yaml:"companyName"`
	QuestionsFile     string   `yaml:"questionsFile"`     // path to the curated question table
	ChunkSize         int      `yaml:"chunkSize"`         // words per chunk
	TopK              int      `yaml:"topK"`              // retrieval depth
	RecoveryMaxPages  int      `yaml:"recoveryMaxPages"`  // crawl bound during miss recovery
	BootstrapMaxPages int      `yaml:"bootstrapMaxPages"` // crawl bound at cold start and manual refresh
	EscalationPhrases []string `yaml:"escalationPhrases"` // empty means built-in defaults
	EscalationSuffix  string   `yaml:"escalationSuffix"`  // empty means built-in default
}

// SMTPConfig holds the settings for outbound ticket notifications.
type SMTPConfig struct {
	Enabled        bool   `yaml:"enabled"`
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	SenderEmail    string `yaml:"senderEmail"`
	RecipientEmail string `yaml:"recipientEmail"`
}

// AppConfig is the root of the YAML configuration file.
type AppConfig struct {
	App       AppInfo         `yaml:"app"`
	Logger    LoggerConfig    `yaml:"logger"`
	Server    ServerConfig    `yaml:"server"`
	Databases DatabaseConfigs `yaml:"databases"`
	LLM       LLMConfig       `yaml:"llm"`
	Embedding ModelConfig     `yaml:"embedding"`
	Crawler   CrawlerConfig   `yaml:"crawler"`
	Chatbot   ChatbotConfig   `yaml:"chatbot"`
	SMTP      SMTPConfig      `yaml:"smtp"`
}

// LoadConfig reads and parses the YAML configuration file at path and applies
// defaults for the pipeline tuning values that config may omit.
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	// Secrets are referenced as ${VAR} in the YAML and come from the
	// environment.
	expanded := os.ExpandEnv(string(yamlFile))
	var cfg AppConfig
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *AppConfig) applyDefaults() {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	// Zero means unset here, so an exact-zero temperature cannot be
	// configured. Greedy decoding is not a supported setting.
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.7
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 500
	}
	if cfg.Chatbot.ChunkSize == 0 {
		cfg.Chatbot.ChunkSize = 500
	}
	if cfg.Chatbot.TopK == 0 {
		cfg.Chatbot.TopK = 3
	}
	if cfg.Chatbot.RecoveryMaxPages == 0 {
		cfg.Chatbot.RecoveryMaxPages = 5
	}
	if cfg.Chatbot.BootstrapMaxPages == 0 {
		cfg.Chatbot.BootstrapMaxPages = 10
	}
}

func parseDurationDefault(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
