package config

import (
	"time"
)

type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Log           LogConfig           `yaml:"log"`
	Model         ModelConfig         `yaml:"model"`
	Reference     ReferenceConfig     `yaml:"reference"`
	Upload        UploadConfig        `yaml:"upload"`
	Manifest      ManifestConfig      `yaml:"manifest"`
	Observability ObservabilityConfig `yaml:"observability"`
	// Exams replaces the built-in exam catalog when non-empty.
	Exams []ExamConfig `yaml:"exams"`
}

type ServerConfig struct {
	IP              string        `yaml:"ip"`
	Port            int           `yaml:"port"`
	Debug           bool          `yaml:"debug"`
	StaticDir       string        `yaml:"static_dir"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// SessionSecret signs the flash-message cookie.
	SessionSecret string `yaml:"session_secret"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderStub   = "stub"
)

type ModelConfig struct {
	Provider string        `yaml:"provider"`
	Name     string        `yaml:"name"`
	Timeout  time.Duration `yaml:"timeout"`
	Gemini   GeminiConfig  `yaml:"gemini"`
	OpenAI   OpenAIConfig  `yaml:"openai"`
}

type GeminiConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
}

type OpenAIConfig struct {
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
	MaxTokens int    `yaml:"max_tokens"`
}

// Credential returns the configured credential of the selected provider.
// The stub provider needs none and reports a placeholder.
func (m ModelConfig) Credential() string {
	switch m.Provider {
	case ProviderOpenAI:
		return m.OpenAI.APIKey
	case ProviderStub:
		if m.Gemini.APIKey != "" {
			return m.Gemini.APIKey
		}
		return "offline"
	default:
		return m.Gemini.APIKey
	}
}

type ReferenceConfig struct {
	CacheDir  string        `yaml:"cache_dir"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
	// MaxPerExam caps how many URLs of an exam type are consulted (0..2).
	MaxPerExam int `yaml:"max_per_exam"`
}

type UploadConfig struct {
	Dir               string   `yaml:"dir"`
	MaxSize           int64    `yaml:"max_size"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

const (
	ManifestMemory = "memory"
	ManifestSQLite = "sqlite"
	ManifestRedis  = "redis"
)

type ManifestConfig struct {
	Driver string              `yaml:"driver"`
	SQLite ManifestSQLiteStore `yaml:"sqlite,omitempty"`
	Redis  ManifestRedisStore  `yaml:"redis,omitempty"`
}

type ManifestSQLiteStore struct {
	DSN string `yaml:"dsn,omitempty"`
}

type ManifestRedisStore struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

type ObservabilityConfig struct {
	Enabled bool `yaml:"enabled"`
	Metrics bool `yaml:"metrics"`
}

// ExamConfig declares one exam type with its keywords and reference URLs.
type ExamConfig struct {
	Type       string   `yaml:"type"`
	Keywords   []string `yaml:"keywords"`
	References []string `yaml:"references"`
}
