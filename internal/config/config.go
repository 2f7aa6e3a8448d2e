// Package config loads the settings of the research-agent binary from the
// environment, after applying a dotenv file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/IronClad1607/research-agent/internal/broker"
	"github.com/IronClad1607/research-agent/internal/executor"
	"github.com/IronClad1607/research-agent/provider/models"
	"github.com/IronClad1607/research-agent/tools/savefile"
	"github.com/IronClad1607/research-agent/tools/search"
	"github.com/IronClad1607/research-agent/tools/wikipedia"
	"github.com/joho/godotenv"
)

// DefaultEnvFile is read when no other file is named.
const DefaultEnvFile = ".env"

const (
	EnvBackend           = "RESEARCH_BACKEND"
	EnvModel             = "RESEARCH_MODEL"
	EnvOpenAIAPIKey      = "OPENAI_API_KEY"
	EnvOpenAIBaseURL     = "OPENAI_BASE_URL"
	EnvAnthropicAPIKey   = "ANTHROPIC_API_KEY"
	EnvAnthropicBaseURL  = "ANTHROPIC_BASE_URL"
	EnvMaxTurns          = "RESEARCH_MAX_TURNS"
	EnvOutputFile        = "RESEARCH_OUTPUT_FILE"
	EnvStream            = "RESEARCH_STREAM"
	EnvWikipediaLang     = "WIKIPEDIA_LANG"
	EnvWikipediaTopK     = "WIKIPEDIA_TOP_K"
	EnvWikipediaMaxChars = "WIKIPEDIA_MAX_CHARS"
	EnvSearchTimeout     = "SEARCH_TIMEOUT"
	EnvNATSURL           = "NATS_URL"
	EnvNATSSubjectPrefix = "NATS_SUBJECT_PREFIX"
	EnvLogLevel          = "LOG_LEVEL"
)

type Config struct {
	Backend models.Backend
	Model   string

	OpenAIAPIKey     string
	OpenAIBaseURL    string
	AnthropicAPIKey  string
	AnthropicBaseURL string

	MaxTurns   int
	OutputFile string
	Stream     bool

	WikipediaLang     string
	WikipediaTopK     int
	WikipediaMaxChars int
	SearchTimeout     time.Duration

	// NATSURL enables publishing run events when set.
	NATSURL           string
	NATSSubjectPrefix string
	LogLevel          slog.Level
}

// Load applies envFile over the process environment and reads the settings.
// Values in the file win over variables already set. A missing file is not an
// error.
func Load(envFile string) (Config, error) {
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Overload(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv reads the settings through lookup. Every invalid value is reported.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	var errs []error
	intVar := func(key string, def int) int {
		raw := get(key)
		if raw == "" {
			return def
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			errs = append(errs, fmt.Errorf("%s: want a positive integer, got %q", key, raw))
			return def
		}
		return v
	}

	cfg := Config{
		Model:             get(EnvModel),
		OpenAIAPIKey:      get(EnvOpenAIAPIKey),
		OpenAIBaseURL:     get(EnvOpenAIBaseURL),
		AnthropicAPIKey:   get(EnvAnthropicAPIKey),
		AnthropicBaseURL:  get(EnvAnthropicBaseURL),
		MaxTurns:          intVar(EnvMaxTurns, executor.DefaultMaxTurns),
		OutputFile:        get(EnvOutputFile),
		WikipediaLang:     get(EnvWikipediaLang),
		WikipediaTopK:     intVar(EnvWikipediaTopK, wikipedia.DefaultTopK),
		WikipediaMaxChars: intVar(EnvWikipediaMaxChars, wikipedia.DefaultMaxChars),
		SearchTimeout:     search.DefaultTimeout,
		NATSURL:           get(EnvNATSURL),
		NATSSubjectPrefix: get(EnvNATSSubjectPrefix),
		LogLevel:          slog.LevelWarn,
	}
	if cfg.OutputFile == "" {
		cfg.OutputFile = savefile.DefaultPath
	}
	if cfg.NATSSubjectPrefix == "" {
		cfg.NATSSubjectPrefix = broker.DefaultSubjectPrefix
	}
	if cfg.WikipediaLang == "" {
		cfg.WikipediaLang = wikipedia.DefaultLang
	}

	backend, err := models.ParseBackend(get(EnvBackend))
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", EnvBackend, err))
	}
	cfg.Backend = backend
	if cfg.Model == "" && backend != "" {
		cfg.Model = backend.DefaultModel()
	}

	if raw := get(EnvStream); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: want a boolean, got %q", EnvStream, raw))
		}
		cfg.Stream = v
	}

	if raw := get(EnvSearchTimeout); raw != "" {
		v, err := time.ParseDuration(raw)
		if err != nil || v <= 0 {
			errs = append(errs, fmt.Errorf("%s: want a positive duration, got %q", EnvSearchTimeout, raw))
		} else {
			cfg.SearchTimeout = v
		}
	}

	if raw := get(EnvLogLevel); raw != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(raw)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvLogLevel, err))
		}
	}

	switch backend {
	case models.OpenAI:
		if cfg.OpenAIAPIKey == "" {
			errs = append(errs, fmt.Errorf("%s is required for the %s backend", EnvOpenAIAPIKey, backend))
		}
	case models.Anthropic:
		if cfg.AnthropicAPIKey == "" {
			errs = append(errs, fmt.Errorf("%s is required for the %s backend", EnvAnthropicAPIKey, backend))
		}
	}

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

// ModelOptions returns the connection settings of the selected backend.
func (c Config) ModelOptions() models.Options {
	if c.Backend == models.Anthropic {
		return models.Options{APIKey: c.AnthropicAPIKey, BaseURL: c.AnthropicBaseURL}
	}
	return models.Options{APIKey: c.OpenAIAPIKey, BaseURL: c.OpenAIBaseURL}
}
