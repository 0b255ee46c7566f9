package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"ai_diagram_generator/generator"
)

// ErrMissingAPIKey is fatal at startup: the completion provider cannot be reached without it.
var ErrMissingAPIKey = errors.New("completion provider API key is not set")

const (
	DefaultPort           = 3000
	DefaultRequestTimeout = 60 * time.Second
	DefaultTranscribeURL  = "http://localhost:8000/transcribe"
)

// Config is the backend configuration.
type Config struct {
	LLM            LLMConfig           `json:"llm"`
	Transcription  TranscriptionConfig `json:"transcription"`
	Port           int                 `json:"port,omitempty"`
	RequestTimeout int                 `json:"request_timeout_seconds,omitempty"`
	Log            LogConfig           `json:"log"`
}

// LLMConfig selects and authenticates the completion provider.
type LLMConfig struct {
	Provider string `json:"provider,omitempty"`
	Model    string `json:"model,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
	Region   string `json:"region,omitempty"`
}

// TranscriptionConfig selects the speech-to-text provider.
// Provider "whisper" posts to URL; "openai" uses the OpenAI audio API with Model.
type TranscriptionConfig struct {
	Provider string `json:"provider,omitempty"`
	URL      string `json:"url,omitempty"`
	Model    string `json:"model,omitempty"`
	APIKey   string `json:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
}

// LogConfig controls the slog handler and optional rotating file.
type LogConfig struct {
	Format string `json:"format,omitempty"`
	File   string `json:"file,omitempty"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		LLM: LLMConfig{
			Provider: "llm7",
			Model:    "default",
		},
		Transcription: TranscriptionConfig{
			Provider: "whisper",
			URL:      DefaultTranscribeURL,
			Model:    "whisper-1",
		},
		Port:           DefaultPort,
		RequestTimeout: int(DefaultRequestTimeout / time.Second),
		Log:            LogConfig{Format: "text"},
	}
}

// Load reads the optional JSON file at path, then .env, then the environment.
// Later sources win. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, err
		default:
			if err := json.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	_ = godotenv.Load()
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the startup invariants.
func (c Config) Validate() error {
	if generator.NeedsAPIKey(c.LLM.Provider) && strings.TrimSpace(c.LLM.APIKey) == "" {
		return fmt.Errorf("%w for provider %q: set LLM7_API_KEY or LLM_API_KEY", ErrMissingAPIKey, c.LLM.Provider)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.Transcription.Provider {
	case "whisper", "openai":
	default:
		return fmt.Errorf("transcription provider %s not supported", c.Transcription.Provider)
	}
	return nil
}

// Addr is the listen address for the configured port.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// Timeout is the bound applied around each external completion call.
func (c Config) Timeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return 0
	}
	return time.Duration(c.RequestTimeout) * time.Second
}

// LLMSettings converts the provider section for generator.NewLLM.
func (c Config) LLMSettings() generator.LLMSettings {
	return generator.LLMSettings{
		Provider: c.LLM.Provider,
		Model:    c.LLM.Model,
		APIKey:   c.LLM.APIKey,
		BaseURL:  c.LLM.BaseURL,
		Region:   c.LLM.Region,
	}
}

func applyEnv(cfg *Config) {
	setString(&cfg.LLM.APIKey, "LLM7_API_KEY", "LLM_API_KEY")
	setString(&cfg.LLM.Provider, "LLM_PROVIDER")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	setString(&cfg.LLM.BaseURL, "LLM_BASE_URL")
	setString(&cfg.LLM.Region, "AWS_REGION")
	setString(&cfg.Transcription.Provider, "TRANSCRIBE_PROVIDER")
	setString(&cfg.Transcription.URL, "TRANSCRIBE_URL")
	setString(&cfg.Transcription.Model, "TRANSCRIBE_MODEL")
	setString(&cfg.Transcription.APIKey, "TRANSCRIBE_API_KEY", "OPENAI_API_KEY")
	setString(&cfg.Transcription.BaseURL, "TRANSCRIBE_BASE_URL")
	setString(&cfg.Log.Format, "LOG_FORMAT")
	setString(&cfg.Log.File, "LOG_FILE")
	setInt(&cfg.Port, "PORT")
	setInt(&cfg.RequestTimeout, "REQUEST_TIMEOUT_SECONDS")
}

// setString assigns the first non-empty variable among keys.
func setString(dst *string, keys ...string) {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			*dst = v
			return
		}
	}
}

func setInt(dst *int, key string) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}
