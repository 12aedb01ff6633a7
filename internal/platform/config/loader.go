package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	platformerrors "exam-analyzer-go/internal/platform/errors"
)

const DefaultConfigPath = ".config.yaml"

// Loader reads .env, the YAML file and environment overrides, in that order.
type Loader struct {
	useDotEnv bool
	path      string
	lookupEnv func(string) (string, bool)
}

func NewLoader() *Loader {
	path := DefaultConfigPath
	if p, ok := os.LookupEnv("CONFIG_PATH"); ok && p != "" {
		path = p
	}
	return &Loader{
		useDotEnv: true,
		path:      path,
		lookupEnv: os.LookupEnv,
	}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

func (l *Loader) WithPath(path string) *Loader {
	if path != "" {
		l.path = path
	}
	return l
}

// WithEnv replaces the environment lookup (useful for tests).
func (l *Loader) WithEnv(lookup func(string) (string, bool)) *Loader {
	if lookup != nil {
		l.lookupEnv = lookup
	}
	return l
}

// Result captures the loaded configuration and its origin path. Path is
// empty when no file was found and defaults were used.
type Result struct {
	Config *Config
	Path   string
}

func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		// a missing .env is normal outside development
		_ = godotenv.Load()
	}

	cfg := DefaultConfig()
	path := ""

	data, err := os.ReadFile(l.path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, platformerrors.Wrap(platformerrors.KindConfig, "config.load", "parse "+l.path, err)
		}
		path = l.path
	case os.IsNotExist(err):
	default:
		return nil, platformerrors.Wrap(platformerrors.KindConfig, "config.load", "read "+l.path, err)
	}

	if err := l.applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := l.validate(cfg); err != nil {
		return nil, err
	}

	return &Result{Config: cfg, Path: path}, nil
}

func (l *Loader) env(key string) (string, bool) {
	v, ok := l.lookupEnv(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (l *Loader) applyEnv(cfg *Config) error {
	if v, ok := l.env("GEMINI_API_KEY"); ok {
		cfg.Model.Gemini.APIKey = v
	}
	if v, ok := l.env("GEMINI_MODEL"); ok {
		cfg.Model.Name = v
	}
	if v, ok := l.env("MODEL_PROVIDER"); ok {
		cfg.Model.Provider = strings.ToLower(v)
	}
	if v, ok := l.env("OPENAI_API_KEY"); ok {
		cfg.Model.OpenAI.APIKey = v
	}
	if v, ok := l.env("OPENAI_BASE_URL"); ok {
		cfg.Model.OpenAI.BaseURL = v
	}
	if v, ok := l.env("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return platformerrors.Wrap(platformerrors.KindConfig, "config.env", "PORT is not a number", err)
		}
		cfg.Server.Port = port
	}
	if v, ok := l.env("LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := l.env("REFERENCE_CACHE_DIR"); ok {
		cfg.Reference.CacheDir = v
	}
	if v, ok := l.env("UPLOAD_DIR"); ok {
		cfg.Upload.Dir = v
	}
	if v, ok := l.env("MANIFEST_DRIVER"); ok {
		cfg.Manifest.Driver = strings.ToLower(v)
	}
	if v, ok := l.env("REDIS_ADDR"); ok {
		cfg.Manifest.Redis.Addr = v
	}
	if v, ok := l.env("APP_DEBUG"); ok {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return platformerrors.Wrap(platformerrors.KindConfig, "config.env", "APP_DEBUG is not a boolean", err)
		}
		cfg.Server.Debug = debug
	}
	return nil
}

func (l *Loader) validate(cfg *Config) error {
	invalid := func(format string, args ...interface{}) error {
		return platformerrors.New(platformerrors.KindConfig, "config.validate", fmt.Sprintf(format, args...))
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return invalid("server port %d out of range", cfg.Server.Port)
	}
	if cfg.Upload.MaxSize < 0 {
		return invalid("upload max_size must not be negative")
	}
	if cfg.Reference.Timeout < 0 {
		return invalid("reference timeout must not be negative")
	}
	if cfg.Reference.MaxPerExam < 0 || cfg.Reference.MaxPerExam > MaxReferencesCap {
		return invalid("reference max_per_exam must be between 0 and %d", MaxReferencesCap)
	}
	switch cfg.Model.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderStub:
	default:
		return invalid("unknown model provider %q", cfg.Model.Provider)
	}
	switch cfg.Manifest.Driver {
	case ManifestMemory, ManifestSQLite, ManifestRedis:
	default:
		return invalid("unknown manifest driver %q", cfg.Manifest.Driver)
	}
	for i, exam := range cfg.Exams {
		if strings.TrimSpace(exam.Type) == "" {
			return invalid("exams[%d] has no type", i)
		}
	}
	return nil
}
