package config

import "time"

const (
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultPort        = 5000
	MaxReferencesCap   = 2
)

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:              "0.0.0.0",
			Port:            DefaultPort,
			ShutdownTimeout: 15 * time.Second,
			CORSOrigins:     []string{"*"},
			SessionSecret:   "exam-analyzer-dev-secret",
		},
		Log: LogConfig{
			Level: "info",
			Dir:   "data/logs",
			File:  "server.log",
		},
		Model: ModelConfig{
			Provider: ProviderGemini,
			Name:     DefaultGeminiModel,
			Timeout:  120 * time.Second,
			OpenAI: OpenAIConfig{
				MaxTokens: 4096,
			},
		},
		Reference: ReferenceConfig{
			CacheDir:   "reference_data",
			UserAgent:  "MedicalExamAnalyzer/1.0",
			Timeout:    15 * time.Second,
			MaxPerExam: MaxReferencesCap,
		},
		Upload: UploadConfig{
			Dir:               "/tmp/uploads",
			MaxSize:           20 * 1024 * 1024,
			AllowedExtensions: []string{"png", "jpg", "jpeg", "webp", "gif", "dcm"},
		},
		Manifest: ManifestConfig{
			Driver: ManifestMemory,
			SQLite: ManifestSQLiteStore{DSN: "data/references.db"},
			Redis: ManifestRedisStore{
				Addr:   "127.0.0.1:6379",
				Prefix: "exam-analyzer:refs",
			},
		},
		Observability: ObservabilityConfig{
			Enabled: false,
			Metrics: true,
		},
	}
}
